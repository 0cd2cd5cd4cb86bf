// Package policy is the on-demand return-policy enrichment collaborator.
// Given the return-anchor text of an email it asks an LLM for the merchant's
// return deadline or window, then validates the answer against the quoted
// policy text before anything downstream may trust it.
package policy

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

// Result is the validated output of a policy extraction. Confidence is
// forced to unknown unless Quote literally contains the claimed date or
// window, so a hallucinated deadline can never reach an order.
type Result struct {
	DeadlineDate *time.Time                `json:"deadline_date,omitempty"`
	WindowDays   *int                      `json:"window_days,omitempty"`
	Confidence   orders.DeadlineConfidence `json:"confidence"`
	Quote        string                    `json:"quote"`
}

// Extractor is the LLM-backed policy extraction interface.
type Extractor interface {
	// ExtractPolicy analyzes return-anchor text for a merchant.
	ExtractPolicy(ctx context.Context, anchorText, merchantDomain string) (*Result, error)

	// HealthCheck verifies the backing service is reachable.
	HealthCheck() error

	// IsEnabled reports whether extraction is configured at all.
	IsEnabled() bool
}

// NoOpExtractor is used when no LLM is configured. It always answers with
// unknown confidence, which downstream treats as "no policy evidence".
type NoOpExtractor struct{}

func NewNoOpExtractor() Extractor {
	return &NoOpExtractor{}
}

func (n *NoOpExtractor) ExtractPolicy(ctx context.Context, anchorText, merchantDomain string) (*Result, error) {
	return &Result{Confidence: orders.ConfidenceUnknown}, nil
}

func (n *NoOpExtractor) HealthCheck() error { return nil }

func (n *NoOpExtractor) IsEnabled() bool { return false }

// Validate enforces the literal-quote rule: every claimed value must appear
// verbatim (in some common rendering) inside the quote, or the result
// degrades to unknown confidence with the claims dropped.
func Validate(r *Result) *Result {
	if r == nil {
		return &Result{Confidence: orders.ConfidenceUnknown}
	}
	out := *r

	if out.WindowDays != nil && !quoteContainsWindow(out.Quote, *out.WindowDays) {
		out.WindowDays = nil
	}
	if out.DeadlineDate != nil && !quoteContainsDate(out.Quote, *out.DeadlineDate) {
		out.DeadlineDate = nil
	}
	if out.DeadlineDate == nil && out.WindowDays == nil {
		out.Confidence = orders.ConfidenceUnknown
	}
	if out.Confidence == "" {
		out.Confidence = orders.ConfidenceUnknown
	}
	return &out
}

func quoteContainsWindow(quote string, days int) bool {
	if quote == "" {
		return false
	}
	needle := strconv.Itoa(days)
	lower := strings.ToLower(quote)
	idx := 0
	for {
		i := strings.Index(lower[idx:], needle)
		if i < 0 {
			return false
		}
		pos := idx + i
		// The number must stand alone, not be part of "130" or "302".
		beforeOK := pos == 0 || !isDigit(lower[pos-1])
		end := pos + len(needle)
		afterOK := end >= len(lower) || !isDigit(lower[end])
		if beforeOK && afterOK {
			return true
		}
		idx = end
	}
}

// quoteContainsDate accepts the common renderings of a calendar date.
func quoteContainsDate(quote string, d time.Time) bool {
	if quote == "" {
		return false
	}
	lower := strings.ToLower(quote)
	renderings := []string{
		strings.ToLower(d.Format("January 2")),
		strings.ToLower(d.Format("Jan 2")),
		strings.ToLower(d.Format("2 January")),
		d.Format("2006-01-02"),
		d.Format("1/2/2006"),
		d.Format("01/02/2006"),
		d.Format("1/2/06"),
	}
	for _, r := range renderings {
		if strings.Contains(lower, r) {
			return true
		}
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
