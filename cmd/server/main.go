package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/config"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/email"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/lifecycle"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/merchants"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/policy"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/resolver"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/server"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/storage"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	log.Printf("Database initialized at %s", cfg.DBPath)

	engine := lifecycle.NewEngine(store, merchants.NewStaticRules(cfg.MerchantRules), lifecycle.Config{
		TokenOverlapThreshold: cfg.TokenOverlapThreshold,
		StalenessDays:         cfg.StalenessDays,
		ExpiringSoonDays:      cfg.ExpiringSoonDays,
	})

	res := resolver.New(store, engine.Calculator(), resolver.Config{
		ThreadMatchWindowDays: cfg.ThreadMatchWindowDays,
	})

	// The scan processor only runs when Gmail credentials are configured;
	// without them the server still serves the order API.
	var processor *workers.ScanProcessor
	if cfg.GmailConfigured() {
		client, err := email.NewGmailClient(&email.GmailConfig{
			ClientID:       cfg.GmailClientID,
			ClientSecret:   cfg.GmailClientSecret,
			RefreshToken:   cfg.GmailRefreshToken,
			AccessToken:    cfg.GmailAccessToken,
			MaxResults:     cfg.GmailMaxResults,
			RateLimitDelay: cfg.GmailRateLimit,
		})
		if err != nil {
			log.Fatalf("Failed to create Gmail client: %v", err)
		}
		defer client.Close()

		processor = workers.NewScanProcessor(&workers.ScanConfig{
			CheckInterval:   cfg.ScanInterval,
			SearchQuery:     cfg.SearchQuery,
			SearchAfterDays: cfg.SearchAfterDays,
			MaxEmailsPerRun: cfg.MaxEmailsPerRun,
			UnreadOnly:      cfg.UnreadOnly,
			DryRun:          cfg.DryRun,
			UserID:          cfg.UserID,
		}, client, store, res, policyExtractor(cfg), newLogger(cfg.LogLevel))

		processor.Start()
		defer processor.Stop()
	} else {
		log.Println("Gmail credentials not configured, inbox scanning disabled")
	}

	srv := &http.Server{
		Addr:    cfg.Address(),
		Handler: server.New(engine, store, processor),

		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownTimeout := 30 * time.Second
	if err := server.HandleSignals(srv, shutdownTimeout); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func policyExtractor(cfg *config.Config) policy.Extractor {
	if !cfg.PolicyEnabled {
		return policy.NewNoOpExtractor()
	}
	pc := policy.DefaultConfig()
	pc.Provider = cfg.PolicyProvider
	pc.Model = cfg.PolicyModel
	pc.Endpoint = cfg.PolicyEndpoint
	pc.Enabled = true
	return policy.NewOllamaExtractor(pc)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
