package policy

import (
	"context"
	"sync"
	"time"
)

// RateLimiter bounds LLM request volume: a sliding-window cap plus a
// minimum interval between consecutive requests for burst protection.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	minInterval time.Duration

	mu          sync.Mutex
	requests    []time.Time
	lastRequest time.Time
}

// NewRateLimiter creates a rate limiter.
func NewRateLimiter(maxRequests int, window, minInterval time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		minInterval: minInterval,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

// DefaultRateLimiter allows 60 requests per minute, at most one per second.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(60, time.Minute, time.Second)
}

// Allow reports whether a request may proceed now; if not, how long to wait.
func (rl *RateLimiter) Allow() (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	if !rl.lastRequest.IsZero() {
		since := now.Sub(rl.lastRequest)
		if since < rl.minInterval {
			return false, rl.minInterval - since
		}
	}

	rl.evictExpired(now)

	if len(rl.requests) >= rl.maxRequests {
		wait := rl.window - now.Sub(rl.requests[0])
		if wait > 0 {
			return false, wait
		}
	}

	rl.requests = append(rl.requests, now)
	rl.lastRequest = now
	return true, 0
}

// Wait blocks until a request is allowed or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		allowed, wait := rl.Allow()
		if allowed {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

func (rl *RateLimiter) evictExpired(now time.Time) {
	cutoff := now.Add(-rl.window)
	keep := 0
	for keep < len(rl.requests) && !rl.requests[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		rl.requests = rl.requests[keep:]
	}
}
