package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
		TLS     struct {
			CertFile string `yaml:"cert_file"`
			KeyFile  string `yaml:"key_file"`
		} `yaml:"tls"`
	} `yaml:"server"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Lark struct {
		AppID             string `yaml:"app_id"`
		AppSecret         string `yaml:"app_secret"`
		VerificationToken string `yaml:"verification_token"`
		BaseURL           string `yaml:"base_url"`
		WelcomeMessage    string `yaml:"welcome_message"`
	} `yaml:"lark"`
	Downstream struct {
		// FeedbackURL is the endpoint of the downstream feedback function.
		FeedbackURL string `yaml:"feedback_url"`
		// TopicURL is the endpoint of the async channel that receives
		// inbound messages for conversational handling.
		TopicURL string `yaml:"topic_url"`
	} `yaml:"downstream"`
	Queue struct {
		Capacity int `yaml:"capacity"`
		Workers  int `yaml:"workers"`
	} `yaml:"queue"`
	Security struct {
		RateLimit struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"security"`
	Maintenance struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
	} `yaml:"maintenance"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultWelcomeMessage is sent to newly added chat members when no
// override is configured.
const DefaultWelcomeMessage = "👏👏👏,欢迎入群，我是小助手，可以帮您找人，问事，查价格等，有什么可以帮您"

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// Load reads a YAML config file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseCommandFlags defines and parses command-line flags and returns their
// values along with a map indicating which flags were explicitly set.
func ParseCommandFlags() (addr string, dbPath string, cfgPath string, setFlags map[string]bool) {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *addrPtr, *dbPtr, *cfgPtr, setFlags
}

// LoadEnvOverrides applies environment overrides onto the provided cfg and
// reports whether any env vars were used.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false

	if v := os.Getenv("CARDRELAY_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("CARDRELAY_DB_PATH"); v != "" {
		envUsed = true
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("CARDRELAY_LARK_APPID"); v != "" {
		envUsed = true
		cfg.Lark.AppID = v
	}
	if v := os.Getenv("CARDRELAY_LARK_APP_SECRET"); v != "" {
		envUsed = true
		cfg.Lark.AppSecret = v
	}
	if v := os.Getenv("CARDRELAY_LARK_TOKEN"); v != "" {
		envUsed = true
		cfg.Lark.VerificationToken = v
	}
	if v := os.Getenv("CARDRELAY_LARK_BASE_URL"); v != "" {
		envUsed = true
		cfg.Lark.BaseURL = v
	}
	if v := os.Getenv("CARDRELAY_WELCOME_MESSAGE"); v != "" {
		envUsed = true
		cfg.Lark.WelcomeMessage = v
	}
	if v := os.Getenv("CARDRELAY_FEEDBACK_URL"); v != "" {
		envUsed = true
		cfg.Downstream.FeedbackURL = v
	}
	if v := os.Getenv("CARDRELAY_TOPIC_URL"); v != "" {
		envUsed = true
		cfg.Downstream.TopicURL = v
	}
	if v := os.Getenv("CARDRELAY_QUEUE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Queue.Capacity = n
		}
	}
	if v := os.Getenv("CARDRELAY_QUEUE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Queue.Workers = n
		}
	}
	if v := os.Getenv("CARDRELAY_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("CARDRELAY_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("CARDRELAY_MAINT_CRON"); v != "" {
		envUsed = true
		cfg.Maintenance.Enabled = true
		cfg.Maintenance.Cron = v
	}
	if c := os.Getenv("CARDRELAY_TLS_CERT"); c != "" {
		envUsed = true
		cfg.Server.TLS.CertFile = c
	}
	if k := os.Getenv("CARDRELAY_TLS_KEY"); k != "" {
		envUsed = true
		cfg.Server.TLS.KeyFile = k
	}
	if v := os.Getenv("CARDRELAY_LOG_LEVEL"); v != "" {
		envUsed = true
		cfg.Logging.Level = v
	}
	return envUsed
}

// LoadEffective loads config from the given path (file) and applies
// environment overrides. It returns the effective config and a boolean
// indicating whether env vars were used. A missing file is not fatal;
// env and flags can fully configure the server.
func LoadEffective(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err != nil {
		cfg = &Config{}
	}
	envUsed := LoadEnvOverrides(cfg)
	return cfg, envUsed, nil
}

// ResolveConfigPath decides the config file path using the flag-provided
// value and the environment variable CARDRELAY_CONFIG when the flag was
// not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("CARDRELAY_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
