package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/config"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/email"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/lifecycle"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/merchants"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/policy"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/resolver"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/storage"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/workers"
)

const (
	// Version information
	Version   = "1.0.0"
	BuildDate = "development"
)

var (
	configFile string
	dryRun     bool
	runOnce    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "inbox-scanner",
	Short: "Inbox scanning service for purchase and return tracking",
	Long: `Inbox Scanner Service v1.0.0

DESCRIPTION:
    Scans a Gmail inbox for purchase emails, resolves them into order
    records, and computes return deadlines. Runs continuously on a
    schedule, or once with --once.

CONFIGURATION:
    Configuration comes from a config file, a .env file, and SHOPQ_-
    prefixed environment variables:

    Gmail API Configuration:
        SHOPQ_GMAIL_CLIENT_ID       - OAuth2 client ID
        SHOPQ_GMAIL_CLIENT_SECRET   - OAuth2 client secret
        SHOPQ_GMAIL_REFRESH_TOKEN   - OAuth2 refresh token
        SHOPQ_GMAIL_ACCESS_TOKEN    - OAuth2 access token

    Scan Configuration:
        SHOPQ_SCAN_INTERVAL          - How often to scan (default: 30m)
        SHOPQ_SCAN_SEARCH_AFTER_DAYS - Only scan emails from last N days (default: 90)
        SHOPQ_SCAN_MAX_EMAILS_PER_RUN - Maximum emails per run (default: 200)
        SHOPQ_SCAN_SEARCH_QUERY      - Custom Gmail search query
        SHOPQ_SCAN_UNREAD_ONLY       - Only scan unread emails (default: false)
        SHOPQ_SCAN_DRY_RUN           - Classify and extract without writing (default: false)

    Storage:
        SHOPQ_DATABASE_PATH          - SQLite database path (default: ./shopq.db)

    Policy Extraction (Optional):
        SHOPQ_POLICY_ENABLED         - Enable LLM return-policy extraction (default: false)
        SHOPQ_POLICY_MODEL           - Model name (default: llama3.2)
        SHOPQ_POLICY_ENDPOINT        - Ollama endpoint

EXAMPLES:
    # Continuous scanning with OAuth2
    export SHOPQ_GMAIL_CLIENT_ID="your-client-id"
    export SHOPQ_GMAIL_CLIENT_SECRET="your-client-secret"
    export SHOPQ_GMAIL_REFRESH_TOKEN="your-refresh-token"
    inbox-scanner

    # One-off scan with a custom configuration file
    inbox-scanner --config=config.yaml --once

    # Dry run mode for testing
    inbox-scanner --dry-run --once`,
	Version: Version,
	RunE:    runScanner,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	fang.Execute(context.Background(), rootCmd)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default searches ., ./config, $HOME/.shopq)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "classify and extract without writing orders")
	rootCmd.PersistentFlags().BoolVar(&runOnce, "once", false, "run a single scan and exit")
}

// loadConfiguration loads configuration from files and environment variables
func loadConfiguration() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadWithFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if dryRun {
		cfg.DryRun = true
	}
	return cfg, nil
}

// runScanner is the main execution function for the inbox scanner
func runScanner(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfiguration()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("Starting inbox scanner service",
		"version", Version,
		"build_date", BuildDate)

	logger.Info("Configuration loaded",
		"dry_run", cfg.DryRun,
		"scan_interval", cfg.ScanInterval,
		"policy_enabled", cfg.PolicyEnabled)

	if !cfg.GmailConfigured() {
		return fmt.Errorf("no Gmail OAuth2 credentials configured")
	}

	client, err := email.NewGmailClient(&email.GmailConfig{
		ClientID:       cfg.GmailClientID,
		ClientSecret:   cfg.GmailClientSecret,
		RefreshToken:   cfg.GmailRefreshToken,
		AccessToken:    cfg.GmailAccessToken,
		MaxResults:     cfg.GmailMaxResults,
		RateLimitDelay: cfg.GmailRateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to create Gmail client: %w", err)
	}
	defer client.Close()

	logger.Info("Gmail client initialized")

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	logger.Info("Order store initialized", "db_path", cfg.DBPath)

	calc := lifecycle.NewCalculator(merchants.NewStaticRules(cfg.MerchantRules))
	res := resolver.New(store, calc, resolver.Config{
		ThreadMatchWindowDays: cfg.ThreadMatchWindowDays,
	})

	processor := workers.NewScanProcessor(&workers.ScanConfig{
		CheckInterval:   cfg.ScanInterval,
		SearchQuery:     cfg.SearchQuery,
		SearchAfterDays: cfg.SearchAfterDays,
		MaxEmailsPerRun: cfg.MaxEmailsPerRun,
		UnreadOnly:      cfg.UnreadOnly,
		DryRun:          cfg.DryRun,
		UserID:          cfg.UserID,
	}, client, store, res, policyExtractor(cfg), logger)

	if runOnce {
		processor.RunScan()
		logger.Info("Scan complete", "metrics", processor.Metrics().Snapshot())
		return nil
	}

	processor.Start()
	defer processor.Stop()

	logger.Info("Inbox scanner service started")

	if err := handleSignals(processor, logger); err != nil {
		return fmt.Errorf("service error: %w", err)
	}

	logger.Info("Inbox scanner service stopped gracefully")
	return nil
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

// handleSignals handles graceful shutdown on system signals
func handleSignals(processor *workers.ScanProcessor, logger *slog.Logger) error {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-signalChan
	logger.Info("Received shutdown signal", "signal", sig)

	processor.Stop()

	// Give the current scan a moment to observe cancellation.
	time.Sleep(2 * time.Second)

	logger.Info("Graceful shutdown completed")
	return nil
}
