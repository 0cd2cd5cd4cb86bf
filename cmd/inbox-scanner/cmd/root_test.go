package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	cfg, err := loadConfiguration()
	require.NoError(t, err)
	assert.Equal(t, "./shopq.db", cfg.DBPath)
	assert.False(t, cfg.DryRun)
}

func TestDryRunFlagOverridesConfig(t *testing.T) {
	dryRun = true
	t.Cleanup(func() { dryRun = false })

	cfg, err := loadConfiguration()
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
}

func TestRootCommandFlags(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("dry-run"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("once"))
}
