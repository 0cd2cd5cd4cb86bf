// Package extract pulls structured purchase fields out of raw email text
// with ordered regex patterns. Everything here is deterministic; a field
// that cannot be parsed is simply absent, never an error.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

// Extractor applies the rule patterns to one email at a time.
type Extractor struct {
	summaryPatterns []*regexp.Regexp
}

// New creates an extractor with the default pattern set.
func New() *Extractor {
	return &Extractor{
		summaryPatterns: []*regexp.Regexp{
			// "Your order of Blue Shoes has shipped"
			regexp.MustCompile(`(?i)your\s+order\s+of\s+(.{3,80}?)\s+(?:has|is|was)\b`),
			// "Blue Shoes and 2 other items"
			regexp.MustCompile(`(?i)^(.{3,80}?)\s+and\s+\d+\s+other\s+items?`),
			// "Shipped: Blue Shoes"
			regexp.MustCompile(`(?i)^(?:shipped|delivered|ordered)[:\s]+(.{3,80})$`),
		},
	}
}

// Extract parses subject + body into the rule-extraction payload.
// receivedAt anchors yearless dates.
func (e *Extractor) Extract(subject, body string, receivedAt time.Time) *orders.ExtractedFields {
	text := subject + "\n" + body
	fields := &orders.ExtractedFields{}

	fields.OrderID = e.ExtractOrderID(text)
	fields.TrackingNumber, fields.Carrier = e.ExtractTracking(text)
	e.extractDates(text, receivedAt, fields)
	fields.Amount, fields.Currency = ParseAmount(text)
	fields.ItemSummary = e.extractItemSummary(subject)
	fields.ReturnWindowDays = extractReturnWindow(text)
	fields.HasReturnAnchors = returnAnchorRe.MatchString(text)
	fields.IsFinalSale = finalSaleRe.MatchString(text)
	if m := returnPortalRe.FindStringSubmatch(text); m != nil {
		fields.ReturnPortalLink = m[1]
	}

	return fields
}

// ExtractOrderID returns the first valid order number, trying the most
// specific pattern first.
func (e *Extractor) ExtractOrderID(text string) string {
	for _, entry := range orderIDPatterns {
		for _, m := range entry.Regex.FindAllStringSubmatch(text, -1) {
			id := strings.TrimSpace(m[1])
			id = strings.Trim(id, ".,;:")
			if ValidOrderID(id) {
				return id
			}
		}
	}
	return ""
}

// ExtractTracking returns the first valid tracking number and its carrier
// (empty when the pattern was generic).
func (e *Extractor) ExtractTracking(text string) (string, string) {
	for _, entry := range trackingPatterns {
		for _, m := range entry.Regex.FindAllStringSubmatch(text, -1) {
			num := strings.TrimSpace(m[1])
			num = strings.Trim(num, ".,;:")
			if ValidTrackingNumber(num) {
				return num, entry.Carrier
			}
		}
	}
	return "", ""
}

func (e *Extractor) extractDates(text string, receivedAt time.Time, fields *orders.ExtractedFields) {
	for _, lp := range labeledDatePatterns {
		m := lp.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		parsed := ParseDate(m[1], receivedAt)
		if parsed == nil {
			continue
		}
		switch lp.field {
		case "explicit_return_by":
			if fields.ExplicitReturnBy == nil {
				fields.ExplicitReturnBy = parsed
			}
		case "delivery_date":
			if fields.DeliveryDate == nil {
				fields.DeliveryDate = parsed
			}
		case "estimated_delivery":
			if fields.EstimatedDelivery == nil {
				fields.EstimatedDelivery = parsed
			}
		case "ship_date":
			if fields.ShipDate == nil {
				fields.ShipDate = parsed
			}
		case "purchase_date":
			if fields.PurchaseDate == nil {
				fields.PurchaseDate = parsed
			}
		}
	}
}

func (e *Extractor) extractItemSummary(subject string) string {
	subject = strings.TrimSpace(subject)
	for _, p := range e.summaryPatterns {
		if m := p.FindStringSubmatch(subject); m != nil {
			return cleanSummary(m[1])
		}
	}
	// Fall back to the subject with boilerplate prefixes removed.
	cleaned := subjectBoilerplateRe.ReplaceAllString(subject, "")
	cleaned = cleanSummary(cleaned)
	if len(cleaned) >= 3 {
		return cleaned
	}
	return ""
}

var subjectBoilerplateRe = regexp.MustCompile(`(?i)^(?:re:\s*|fwd?:\s*)?(?:your\s+)?(?:order\s+(?:confirmation|confirmed|update|receipt)|shipping\s+(?:confirmation|update)|delivery\s+(?:confirmation|update)|receipt)[:\s-]*`)

var quantitySuffixRe = regexp.MustCompile(`(?i)\s+and\s+\d+\s+other\s+items?\.?$`)

func cleanSummary(s string) string {
	s = strings.TrimSpace(s)
	s = quantitySuffixRe.ReplaceAllString(s, "")
	s = strings.Trim(s, `"'.,!- `)
	return s
}

func extractReturnWindow(text string) *int {
	m := returnWindowRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	days := 0
	for _, r := range raw {
		days = days*10 + int(r-'0')
	}
	if days == 0 || days > 365 {
		return nil
	}
	return &days
}
