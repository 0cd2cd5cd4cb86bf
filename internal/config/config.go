// Package config loads server and scanner configuration from defaults,
// optional config file, and SHOPQ_-prefixed environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the server + scanner configuration.
type Config struct {
	ServerHost string
	ServerPort string
	DBPath     string
	LogLevel   string

	// Scan behavior.
	ScanInterval    time.Duration
	SearchQuery     string
	SearchAfterDays int
	MaxEmailsPerRun int
	UnreadOnly      bool
	DryRun          bool
	UserID          string

	// Gmail credentials.
	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string
	GmailAccessToken  string
	GmailMaxResults   int64
	GmailRateLimit    time.Duration

	// Policy extraction (LLM).
	PolicyProvider string
	PolicyModel    string
	PolicyEndpoint string
	PolicyEnabled  bool

	// Engine constants. These are empirically chosen values kept as
	// configuration so behavior can be tuned without a rebuild.
	TokenOverlapThreshold float64
	ThreadMatchWindowDays int
	StalenessDays         int
	ExpiringSoonDays      int

	// Per-merchant return window overrides, domain -> days.
	MerchantRules map[string]int
}

// Address returns the host:port the HTTP server listens on.
func (c *Config) Address() string {
	return c.ServerHost + ":" + c.ServerPort
}

// GmailConfigured reports whether OAuth credentials are present.
func (c *Config) GmailConfigured() bool {
	return c.GmailClientID != "" && c.GmailClientSecret != "" && c.GmailRefreshToken != ""
}

// Load reads configuration from the default search paths and environment.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	LoadEnvFile(".env")
	return LoadWithViper(viper.New())
}

// LoadWithFile reads configuration from a specific file.
func LoadWithFile(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	return LoadWithViper(v)
}

// LoadWithViper loads configuration from the given Viper instance.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	setupEnvBinding(v)

	if err := loadConfigFile(v); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg, err := unmarshalConfig(v)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.path", "./shopq.db")
	v.SetDefault("logging.level", "info")

	v.SetDefault("scan.interval", "30m")
	v.SetDefault("scan.search_query", "")
	v.SetDefault("scan.search_after_days", 90)
	v.SetDefault("scan.max_emails_per_run", 200)
	v.SetDefault("scan.unread_only", false)
	v.SetDefault("scan.dry_run", false)
	v.SetDefault("scan.user_id", "default")

	v.SetDefault("gmail.max_results", 500)
	v.SetDefault("gmail.rate_limit_delay", "100ms")

	v.SetDefault("policy.provider", "disabled")
	v.SetDefault("policy.model", "llama3.2")
	v.SetDefault("policy.endpoint", "http://localhost:11434/api/generate")
	v.SetDefault("policy.enabled", false)

	v.SetDefault("engine.token_overlap_threshold", 0.60)
	v.SetDefault("engine.thread_match_window_days", 30)
	v.SetDefault("engine.staleness_days", 14)
	v.SetDefault("engine.expiring_soon_days", 7)
}

func setupEnvBinding(v *viper.Viper) {
	v.SetEnvPrefix("SHOPQ")
	v.AutomaticEnv()

	envBindings := map[string]string{
		"server.host":                     "SERVER_HOST",
		"server.port":                     "SERVER_PORT",
		"database.path":                   "DATABASE_PATH",
		"logging.level":                   "LOG_LEVEL",
		"scan.interval":                   "SCAN_INTERVAL",
		"scan.search_query":               "SCAN_SEARCH_QUERY",
		"scan.search_after_days":          "SCAN_SEARCH_AFTER_DAYS",
		"scan.max_emails_per_run":         "SCAN_MAX_EMAILS_PER_RUN",
		"scan.unread_only":                "SCAN_UNREAD_ONLY",
		"scan.dry_run":                    "SCAN_DRY_RUN",
		"scan.user_id":                    "SCAN_USER_ID",
		"gmail.client_id":                 "GMAIL_CLIENT_ID",
		"gmail.client_secret":             "GMAIL_CLIENT_SECRET",
		"gmail.refresh_token":             "GMAIL_REFRESH_TOKEN",
		"gmail.access_token":              "GMAIL_ACCESS_TOKEN",
		"gmail.max_results":               "GMAIL_MAX_RESULTS",
		"gmail.rate_limit_delay":          "GMAIL_RATE_LIMIT_DELAY",
		"policy.provider":                 "POLICY_PROVIDER",
		"policy.model":                    "POLICY_MODEL",
		"policy.endpoint":                 "POLICY_ENDPOINT",
		"policy.enabled":                  "POLICY_ENABLED",
		"engine.token_overlap_threshold":  "ENGINE_TOKEN_OVERLAP_THRESHOLD",
		"engine.thread_match_window_days": "ENGINE_THREAD_MATCH_WINDOW_DAYS",
		"engine.staleness_days":           "ENGINE_STALENESS_DAYS",
		"engine.expiring_soon_days":       "ENGINE_EXPIRING_SOON_DAYS",
	}
	for configKey, envSuffix := range envBindings {
		v.BindEnv(configKey, "SHOPQ_"+envSuffix)
	}
}

func loadConfigFile(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.shopq")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return nil
}

func unmarshalConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ServerHost: v.GetString("server.host"),
		ServerPort: v.GetString("server.port"),
		DBPath:     v.GetString("database.path"),
		LogLevel:   v.GetString("logging.level"),

		SearchQuery:     v.GetString("scan.search_query"),
		SearchAfterDays: v.GetInt("scan.search_after_days"),
		MaxEmailsPerRun: v.GetInt("scan.max_emails_per_run"),
		UnreadOnly:      v.GetBool("scan.unread_only"),
		DryRun:          v.GetBool("scan.dry_run"),
		UserID:          v.GetString("scan.user_id"),

		GmailClientID:     v.GetString("gmail.client_id"),
		GmailClientSecret: v.GetString("gmail.client_secret"),
		GmailRefreshToken: v.GetString("gmail.refresh_token"),
		GmailAccessToken:  v.GetString("gmail.access_token"),
		GmailMaxResults:   v.GetInt64("gmail.max_results"),

		PolicyProvider: v.GetString("policy.provider"),
		PolicyModel:    v.GetString("policy.model"),
		PolicyEndpoint: v.GetString("policy.endpoint"),
		PolicyEnabled:  v.GetBool("policy.enabled"),

		TokenOverlapThreshold: v.GetFloat64("engine.token_overlap_threshold"),
		ThreadMatchWindowDays: v.GetInt("engine.thread_match_window_days"),
		StalenessDays:         v.GetInt("engine.staleness_days"),
		ExpiringSoonDays:      v.GetInt("engine.expiring_soon_days"),

		MerchantRules: readMerchantRules(v),
	}

	var err error
	cfg.ScanInterval, err = time.ParseDuration(v.GetString("scan.interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid scan interval: %w", err)
	}
	cfg.GmailRateLimit, err = time.ParseDuration(v.GetString("gmail.rate_limit_delay"))
	if err != nil {
		return nil, fmt.Errorf("invalid gmail rate limit delay: %w", err)
	}
	return cfg, nil
}

// readMerchantRules reads the merchant_rules table from the config file:
//
//	merchant_rules:
//	  nordstrom.com: 45
//	  zara.com: 14
func readMerchantRules(v *viper.Viper) map[string]int {
	raw := v.GetStringMap("merchant_rules")
	if len(raw) == 0 {
		return nil
	}
	rules := make(map[string]int, len(raw))
	for domain := range raw {
		if days := v.GetInt("merchant_rules." + domain); days > 0 {
			rules[domain] = days
		}
	}
	return rules
}

func (c *Config) validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan interval must be positive")
	}
	if c.SearchAfterDays < 0 {
		return fmt.Errorf("search after days cannot be negative")
	}
	if c.TokenOverlapThreshold <= 0 || c.TokenOverlapThreshold > 1 {
		return fmt.Errorf("token overlap threshold must be in (0, 1]")
	}
	if c.ThreadMatchWindowDays <= 0 {
		return fmt.Errorf("thread match window days must be positive")
	}
	if c.StalenessDays < 0 {
		return fmt.Errorf("staleness days cannot be negative")
	}
	return nil
}
