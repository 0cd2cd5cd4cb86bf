// Package lifecycle computes return deadlines, decides order visibility and
// alert eligibility, and performs display-time deduplication of orders a
// scan may have fragmented.
package lifecycle

import (
	"time"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/merchants"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

// Config carries the engine's tunable constants. The defaults are the
// behavior the rest of the system is calibrated against; override them via
// configuration, not by editing call sites.
type Config struct {
	// TokenOverlapThreshold is the minimum item-summary token overlap for
	// display-time grouping of orders that lack a shared order ID.
	TokenOverlapThreshold float64
	// StalenessDays hides orders whose deadline passed more than this many
	// days ago from the unified visible list.
	StalenessDays int
	// ExpiringSoonDays splits Return Watch into expiring-soon vs active.
	ExpiringSoonDays int
}

// DefaultConfig returns the standard constants.
func DefaultConfig() Config {
	return Config{
		TokenOverlapThreshold: 0.60,
		StalenessDays:         14,
		ExpiringSoonDays:      7,
	}
}

// Calculator derives return_by_date and deadline_confidence for one order.
type Calculator struct {
	rules merchants.RuleProvider
}

// NewCalculator creates a deadline calculator. rules may be nil when no
// user-configured merchant rules exist.
func NewCalculator(rules merchants.RuleProvider) *Calculator {
	return &Calculator{rules: rules}
}

// anchorDate picks the date an estimated deadline counts from. Actual
// delivery beats the estimate, which beats ship and purchase dates.
func anchorDate(o *orders.Order) *time.Time {
	switch {
	case o.DeliveryDate != nil:
		return o.DeliveryDate
	case o.EstimatedDelivery != nil:
		return o.EstimatedDelivery
	case o.ShipDate != nil:
		return o.ShipDate
	case o.PurchaseDate != nil:
		return o.PurchaseDate
	}
	return nil
}

// windowDays picks the return window: the order's own extracted window, then
// a user-configured merchant rule, then the static per-domain default.
func (c *Calculator) windowDays(o *orders.Order) *int {
	if o.ReturnWindowDays != nil {
		return o.ReturnWindowDays
	}
	if c.rules != nil {
		if days := c.rules.GetMerchantRule(o.MerchantDomain); days != nil {
			return days
		}
	}
	return merchants.DefaultReturnWindow(o.MerchantDomain)
}

// Recompute sets ReturnByDate and DeadlineConfidence in place. Confidence
// never regresses: if the computed tier is lower than what the order already
// carries, the existing deadline is kept. Fields only accrete, so a lower
// recomputation can only mean the inputs have not changed since the higher
// one was derived.
func (c *Calculator) Recompute(o *orders.Order) {
	var (
		deadline   *time.Time
		confidence orders.DeadlineConfidence
	)
	switch {
	case o.ExplicitReturnBy != nil:
		d := *o.ExplicitReturnBy
		deadline = &d
		confidence = orders.ConfidenceExact
	default:
		anchor := anchorDate(o)
		window := c.windowDays(o)
		if anchor != nil && window != nil {
			d := anchor.AddDate(0, 0, *window)
			deadline = &d
			confidence = orders.ConfidenceEstimated
		} else {
			deadline = nil
			confidence = orders.ConfidenceUnknown
		}
	}

	if confidence.Rank() < o.DeadlineConfidence.Rank() {
		return
	}
	o.ReturnByDate = deadline
	o.DeadlineConfidence = confidence
}
