package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadWithViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "./shopq.db", cfg.DBPath)
	assert.Equal(t, 30*time.Minute, cfg.ScanInterval)
	assert.Equal(t, 90, cfg.SearchAfterDays)
	assert.InDelta(t, 0.60, cfg.TokenOverlapThreshold, 0.001)
	assert.Equal(t, 30, cfg.ThreadMatchWindowDays)
	assert.Equal(t, 14, cfg.StalenessDays)
	assert.Equal(t, 7, cfg.ExpiringSoonDays)
	assert.False(t, cfg.PolicyEnabled)
	assert.Nil(t, cfg.MerchantRules)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SHOPQ_SERVER_PORT", "9090")
	t.Setenv("SHOPQ_SCAN_INTERVAL", "5m")
	t.Setenv("SHOPQ_ENGINE_STALENESS_DAYS", "21")
	t.Setenv("SHOPQ_SCAN_DRY_RUN", "true")

	cfg, err := LoadWithViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 5*time.Minute, cfg.ScanInterval)
	assert.Equal(t, 21, cfg.StalenessDays)
	assert.True(t, cfg.DryRun)
}

func TestLoadConfigFileWithMerchantRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "7070"
merchant_rules:
  nordstrom.com: 45
  zara.com: 14
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.ServerPort)
	assert.Equal(t, 45, cfg.MerchantRules["nordstrom.com"])
	assert.Equal(t, 14, cfg.MerchantRules["zara.com"])
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty port", func(c *Config) { c.ServerPort = "" }, "server port"},
		{"empty db path", func(c *Config) { c.DBPath = "" }, "database path"},
		{"zero interval", func(c *Config) { c.ScanInterval = 0 }, "scan interval"},
		{"bad overlap", func(c *Config) { c.TokenOverlapThreshold = 1.5 }, "token overlap"},
		{"zero thread window", func(c *Config) { c.ThreadMatchWindowDays = 0 }, "thread match window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWithViper(viper.New())
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEnvFileDoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SHOPQ_TEST_KEY=from-file\n# comment\nSHOPQ_QUOTED=\"hello\"\n"), 0o644))

	t.Setenv("SHOPQ_TEST_KEY", "from-env")
	LoadEnvFile(path)

	assert.Equal(t, "from-env", os.Getenv("SHOPQ_TEST_KEY"))
	assert.Equal(t, "hello", os.Getenv("SHOPQ_QUOTED"))
	t.Cleanup(func() { os.Unsetenv("SHOPQ_QUOTED") })
}
