package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	data := `
server:
  address: "127.0.0.1"
  port: 9090
storage:
  db_path: "/tmp/relay-db"
lark:
  verification_token: "tok"
  welcome_message: "hi there"
downstream:
  feedback_url: "http://feedback.local"
  topic_url: "http://topic.local"
queue:
  capacity: 128
  workers: 2
`
	if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9090" {
		t.Fatalf("Addr = %q", cfg.Addr())
	}
	if cfg.Lark.VerificationToken != "tok" || cfg.Downstream.TopicURL != "http://topic.local" {
		t.Fatalf("config mismatch: %+v", cfg)
	}
	if cfg.Queue.Capacity != 128 || cfg.Queue.Workers != 2 {
		t.Fatalf("queue config mismatch: %+v", cfg.Queue)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("CARDRELAY_LARK_TOKEN", "env-tok")
	t.Setenv("CARDRELAY_ADDR", "0.0.0.0:7000")
	t.Setenv("CARDRELAY_QUEUE_CAPACITY", "64")

	cfg := &Config{}
	cfg.Lark.VerificationToken = "file-tok"

	if !LoadEnvOverrides(cfg) {
		t.Fatalf("env overrides not detected")
	}
	if cfg.Lark.VerificationToken != "env-tok" {
		t.Fatalf("token = %q, want env value", cfg.Lark.VerificationToken)
	}
	if cfg.Addr() != "0.0.0.0:7000" {
		t.Fatalf("Addr = %q", cfg.Addr())
	}
	if cfg.Queue.Capacity != 64 {
		t.Fatalf("capacity = %d", cfg.Queue.Capacity)
	}
}

func TestAddrDefaults(t *testing.T) {
	cfg := &Config{}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Fatalf("default Addr = %q", cfg.Addr())
	}
}

func TestLoadEffectiveMissingFile(t *testing.T) {
	cfg, _, err := LoadEffective(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadEffective: %v", err)
	}
	if cfg == nil {
		t.Fatalf("nil config for missing file")
	}
}

func TestResolveConfigPath(t *testing.T) {
	if got := ResolveConfigPath("./flag.yaml", true); got != "./flag.yaml" {
		t.Fatalf("flag path not honored: %q", got)
	}
	t.Setenv("CARDRELAY_CONFIG", "/etc/cardrelay.yaml")
	if got := ResolveConfigPath("./flag.yaml", false); got != "/etc/cardrelay.yaml" {
		t.Fatalf("env path not honored: %q", got)
	}
}
