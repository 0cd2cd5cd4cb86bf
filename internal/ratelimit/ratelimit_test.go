package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFirstScanNeverBlocked(t *testing.T) {
	result := CheckScanRateLimit(nil, time.Minute, false)
	assert.False(t, result.ShouldBlock)
	assert.Equal(t, "no_previous_scan", result.Reason)

	zero := time.Time{}
	result = CheckScanRateLimit(&zero, time.Minute, false)
	assert.False(t, result.ShouldBlock)
}

func TestRecentScanBlocked(t *testing.T) {
	last := time.Now().Add(-10 * time.Second)
	result := CheckScanRateLimit(&last, time.Minute, false)

	assert.True(t, result.ShouldBlock)
	assert.Equal(t, "rate_limit_active", result.Reason)
	assert.Greater(t, result.RemainingTime, 40*time.Second)
}

func TestOldScanNotBlocked(t *testing.T) {
	last := time.Now().Add(-2 * time.Minute)
	result := CheckScanRateLimit(&last, time.Minute, false)

	assert.False(t, result.ShouldBlock)
	assert.Equal(t, "rate_limit_passed", result.Reason)
}

func TestForcedScanNeverBlocked(t *testing.T) {
	last := time.Now()
	result := CheckScanRateLimit(&last, time.Minute, true)

	assert.False(t, result.ShouldBlock)
	assert.Equal(t, "forced_scan", result.Reason)
}

func TestZeroIntervalUsesDefault(t *testing.T) {
	last := time.Now().Add(-30 * time.Second)
	result := CheckScanRateLimit(&last, 0, false)
	assert.True(t, result.ShouldBlock)
}
