package banner

import (
	"fmt"

	"cardrelay/pkg/config"
)

const banner = `
 ██████╗ █████╗ ██████╗ ██████╗ ██████╗ ███████╗██╗      █████╗ ██╗   ██╗
██╔════╝██╔══██╗██╔══██╗██╔══██╗██╔══██╗██╔════╝██║     ██╔══██╗╚██╗ ██╔╝
██║     ███████║██████╔╝██║  ██║██████╔╝█████╗  ██║     ███████║ ╚████╔╝
██║     ██╔══██║██╔══██╗██║  ██║██╔══██╗██╔══╝  ██║     ██╔══██║  ╚██╔╝
╚██████╗██║  ██║██║  ██║██████╔╝██║  ██║███████╗███████╗██║  ██║   ██║
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═════╝ ╚═╝  ╚═╝╚══════╝╚══════╝╚═╝  ╚═╝   ╚═╝
`

// Print displays startup info: listen address, store path and the
// webhook endpoints the platform should be pointed at.
func Print(cfg *config.Config, addr, dbPath, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if cfg != nil && cfg.Downstream.FeedbackURL != "" {
		fmt.Printf("Feedback: %s\n", cfg.Downstream.FeedbackURL)
	}
	if cfg != nil && cfg.Downstream.TopicURL != "" {
		fmt.Printf("Topic:    %s\n", cfg.Downstream.TopicURL)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /webhook/event    - Platform event callback (messages, reactions, member joins)")
	fmt.Println("POST /webhook/feedback - Card button callback")
	fmt.Println("GET  /healthz          - Liveness")
	fmt.Println("GET  /readyz           - Readiness (store)")
	fmt.Println("GET  /metrics          - Prometheus metrics")
	fmt.Println("\n== Production? =================================================")
	fmt.Println("Set a proper storage path (--db)")
	fmt.Println("Set CARDRELAY_LARK_TOKEN to gate webhook callers")
}
