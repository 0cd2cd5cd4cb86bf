package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("", "", false, false)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, "table", cfg.Format)
	assert.False(t, cfg.Quiet)
}

func TestLoadConfigFlagsBeatEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SHOPQ_CLI_SERVER", "http://env:9000")
	t.Setenv("SHOPQ_CLI_FORMAT", "json")

	cfg, err := LoadConfig("http://flag:7000", "", true, false)
	require.NoError(t, err)

	assert.Equal(t, "http://flag:7000", cfg.ServerURL)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.Quiet)
}

func TestLoadConfigNoColorEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	cfg, err := LoadConfig("", "", false, false)
	require.NoError(t, err)
	assert.True(t, cfg.NoColor)
}

func TestLoadConfigRejectsBadFormat(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := LoadConfig("", "yaml", false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "this is...", truncate("this is a long string", 10))
}
