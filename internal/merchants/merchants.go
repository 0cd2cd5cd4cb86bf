// Package merchants supplies per-merchant knowledge: user-configured return
// window rules, static per-domain defaults, and the display-name
// normalization used to group orders at display time.
package merchants

import (
	"regexp"
	"strings"
)

// RuleProvider supplies a user-configured return-window override for a
// merchant domain. Implementations return nil when no rule exists.
type RuleProvider interface {
	GetMerchantRule(domain string) *int
}

// StaticRules is a RuleProvider backed by a plain map, used for config-file
// rules and tests.
type StaticRules struct {
	windows map[string]int
}

// NewStaticRules creates a provider from a domain -> days map.
func NewStaticRules(windows map[string]int) *StaticRules {
	copied := make(map[string]int, len(windows))
	for k, v := range windows {
		copied[strings.ToLower(k)] = v
	}
	return &StaticRules{windows: copied}
}

func (s *StaticRules) GetMerchantRule(domain string) *int {
	if days, ok := s.windows[strings.ToLower(domain)]; ok {
		return &days
	}
	return nil
}

// defaultReturnWindows is the static per-domain fallback table. Values are
// the merchants' published standard policies; user rules and extracted
// windows always win over these.
var defaultReturnWindows = map[string]int{
	"amazon.com":          30,
	"amazon.co.uk":        30,
	"target.com":          90,
	"walmart.com":         90,
	"bestbuy.com":         15,
	"costco.com":          90,
	"nordstrom.com":       40,
	"macys.com":           30,
	"gap.com":             30,
	"oldnavy.com":         30,
	"bananarepublic.com":  30,
	"jcrew.com":           30,
	"madewell.com":        30,
	"uniqlo.com":          30,
	"zara.com":            30,
	"hm.com":              30,
	"nike.com":            60,
	"adidas.com":          30,
	"rei.com":             90,
	"llbean.com":          90,
	"patagonia.com":       60,
	"zappos.com":          365,
	"wayfair.com":         30,
	"ikea.com":            365,
	"homedepot.com":       90,
	"lowes.com":           90,
	"etsy.com":            30,
	"ebay.com":            30,
	"sephora.com":         30,
	"ulta.com":            60,
	"apple.com":           14,
	"anthropologie.com":   30,
	"urbanoutfitters.com": 30,
	"freepeople.com":      30,
	"abercrombie.com":     30,
	"shein.com":           35,
	"asos.com":            28,
	"everlane.com":        45,
	"allbirds.com":        30,
	"chewy.com":           365,
}

// DefaultReturnWindow returns the static default window for a domain, or
// nil when the merchant has no entry.
func DefaultReturnWindow(domain string) *int {
	if days, ok := defaultReturnWindows[strings.ToLower(domain)]; ok {
		return &days
	}
	return nil
}

// aliases maps alternate sending domains to the canonical merchant key.
var aliases = map[string]string{
	"amazonses.com":     "amazon.com",
	"amazon.co.uk":      "amazon.com",
	"gapfactory.com":    "gap.com",
	"oldnavy.gap.com":   "oldnavy.com",
	"nordstromrack.com": "nordstrom.com",
	"email-target.com":  "target.com",
	"walmartemail.com":  "walmart.com",
	"emailbestbuy.com":  "bestbuy.com",
	"e.nike.com":        "nike.com",
	"shopifyemail.com":  "",
	"myshopify.com":     "",
}

// emailServiceDomains are bulk-sender platforms whose domain says nothing
// about the merchant; grouping falls back to the display name.
var emailServiceDomains = map[string]bool{
	"amazonses.com":    true,
	"sendgrid.net":     true,
	"mailchimp.com":    true,
	"mailchimpapp.com": true,
	"klaviyomail.com":  true,
	"cmail19.com":      true,
	"cmail20.com":      true,
	"rsgsv.net":        true,
	"mcsv.net":         true,
	"shopifyemail.com": true,
	"myshopify.com":    true,
}

var (
	domainPrefixRe = regexp.MustCompile(`^(?:email|e|em|mail|news|newsletter|shop|store|orders?|info|hello|updates?|notifications?|t|m)[.-]`)
	nonAlnumRe     = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeKey computes the merchant grouping key for display-time
// deduplication: alias-resolved domain with marketing prefixes stripped,
// falling back to a normalized display name for email-service domains.
func NormalizeKey(domain, displayName string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	for domainPrefixRe.MatchString(d) {
		d = domainPrefixRe.ReplaceAllString(d, "")
	}
	if canonical, ok := aliases[d]; ok {
		if canonical != "" {
			return canonical
		}
		d = "" // alias to nothing: use display name
	}
	if d != "" && !emailServiceDomains[d] {
		return d
	}

	name := strings.ToLower(strings.TrimSpace(displayName))
	name = nonAlnumRe.ReplaceAllString(name, "")
	if name != "" {
		return "name:" + name
	}
	return d
}
