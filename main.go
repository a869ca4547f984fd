package main

import (
	"log"
	"net/http"

	"github.com/slack-go/slack"
)

func main() {
	cfg := LoadConfig()
	appliedTimeout := ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Sheet=%s Tab=%s PollInterval=%ds Timezone=%s HTTPTimeout=%s SlackDigest=%v ToneAudit=%v",
		cfg.SheetID, cfg.SheetTab, cfg.PollIntervalSeconds, cfg.Timezone,
		appliedTimeout, cfg.SlackConfigured(), cfg.LLMConfigured(),
	)

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	log.Printf("Database initialized at %s", cfg.DBPath)
	defer db.Close()

	poller := NewPoller(cfg, db)
	poller.Start()
	defer poller.Stop()

	if cfg.SlackConfigured() {
		api := slack.New(cfg.SlackBotToken)
		StartDigestScheduler(cfg, db, poller, api)
	} else {
		log.Println("Digest disabled (Slack not configured)")
	}

	log.Printf("Starting mention dashboard API on %s...", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, NewRouter(cfg, poller, db)); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
