// Package ratelimit guards manually triggered inbox scans so API callers
// cannot hammer Gmail by re-running scans back to back.
package ratelimit

import (
	"time"
)

// DefaultManualScanInterval is the minimum spacing between manual scans.
const DefaultManualScanInterval = 1 * time.Minute

// Result contains the outcome of a rate limit check.
type Result struct {
	ShouldBlock   bool
	RemainingTime time.Duration
	Reason        string
}

// CheckScanRateLimit reports whether a manual scan should be blocked given
// the time of the last completed run. Forced scans are never blocked, nor is
// the first scan.
func CheckScanRateLimit(lastRun *time.Time, minInterval time.Duration, forced bool) Result {
	if forced {
		return Result{
			ShouldBlock: false,
			Reason:      "forced_scan",
		}
	}

	if lastRun == nil || lastRun.IsZero() {
		return Result{
			ShouldBlock: false,
			Reason:      "no_previous_scan",
		}
	}

	if minInterval <= 0 {
		minInterval = DefaultManualScanInterval
	}

	sinceLast := time.Since(*lastRun)
	if sinceLast < minInterval {
		return Result{
			ShouldBlock:   true,
			RemainingTime: minInterval - sinceLast,
			Reason:        "rate_limit_active",
		}
	}

	return Result{
		ShouldBlock: false,
		Reason:      "rate_limit_passed",
	}
}
