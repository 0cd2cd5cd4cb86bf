package extract

import "regexp"

// PatternEntry is a regex with metadata about what it captures.
type PatternEntry struct {
	Regex       *regexp.Regexp
	Kind        string // "order_id" or "tracking"
	Carrier     string // tracking patterns only
	Confidence  float64
	Description string
}

// orderIDPatterns are tried in order; the first valid match wins.
// The Amazon-style triple-dash pattern goes first because it is the most
// specific and shows up unlabeled in subjects.
var orderIDPatterns = []*PatternEntry{
	{
		Regex:       regexp.MustCompile(`\b(\d{3}-\d{7}-\d{7})\b`),
		Kind:        "order_id",
		Confidence:  0.95,
		Description: "Amazon triple-dash order number",
	},
	{
		Regex:       regexp.MustCompile(`(?i)order\s*(?:number|no\.?|#|id)?\s*[:#]?\s*#?\s*([A-Z0-9][A-Z0-9-]{3,24})`),
		Kind:        "order_id",
		Confidence:  0.8,
		Description: "Generic labeled order number",
	},
	{
		Regex:       regexp.MustCompile(`(?i)confirmation\s*(?:number|no\.?|#|code)?\s*[:#]?\s*([A-Z0-9][A-Z0-9-]{3,24})`),
		Kind:        "order_id",
		Confidence:  0.7,
		Description: "Confirmation number",
	},
	{
		Regex:       regexp.MustCompile(`(?i)invoice\s*(?:number|no\.?|#)?\s*[:#]?\s*([A-Z0-9][A-Z0-9-]{3,24})`),
		Kind:        "order_id",
		Confidence:  0.6,
		Description: "Invoice number",
	},
}

// trackingPatterns are carrier-specific first, generic labeled last.
var trackingPatterns = []*PatternEntry{
	{
		Regex:       regexp.MustCompile(`\b(1Z[A-Z0-9]{16})\b`),
		Kind:        "tracking",
		Carrier:     "ups",
		Confidence:  0.95,
		Description: "UPS 1Z tracking number",
	},
	{
		Regex:       regexp.MustCompile(`\b(9[1-5]\d{20})\b`),
		Kind:        "tracking",
		Carrier:     "usps",
		Confidence:  0.9,
		Description: "USPS 22-digit tracking number",
	},
	{
		Regex:       regexp.MustCompile(`\b([A-Z]{2}\d{9}US)\b`),
		Kind:        "tracking",
		Carrier:     "usps",
		Confidence:  0.9,
		Description: "USPS international tracking number",
	},
	{
		Regex:       regexp.MustCompile(`(?i)fedex[^0-9]{0,30}?(\d{12,22})\b`),
		Kind:        "tracking",
		Carrier:     "fedex",
		Confidence:  0.85,
		Description: "FedEx number near carrier name",
	},
	{
		Regex:       regexp.MustCompile(`(?i)(?:tracking|shipment)\s*(?:number|no\.?|#|id)?\s*(?::|is)?\s*#?\s*([A-Z0-9]{10,35})\b`),
		Kind:        "tracking",
		Carrier:     "",
		Confidence:  0.6,
		Description: "Generic labeled tracking number",
	},
}

// Context labels for date classification. Each regex must capture the date
// text in group 1 via one of the dateExpr alternatives appended to it.
var (
	deliveredLabel  = `(?i)(?:was\s+)?delivered(?:\s+on)?[:\s]+`
	shippedLabel    = `(?i)(?:was\s+)?shipped(?:\s+on)?[:\s]+`
	estimatedLabel  = `(?i)(?:estimated|expected)\s+(?:delivery|arrival)(?:\s+date)?[:\s]+|(?i)arriv(?:ing|es?)(?:\s+by)?[:\s]+`
	orderPlaced     = `(?i)(?:order\s+(?:placed|date)|purchased?\s+on|placed\s+on)[:\s]+`
	returnByLabel   = `(?i)(?:return(?:s)?\s+(?:by|before|through|until)|eligible\s+for\s+return\s+through|return\s+(?:window\s+)?(?:closes|ends)(?:\s+on)?)[:\s]+`
	returnWindowRe  = regexp.MustCompile(`(?i)\b(\d{1,3})[-\s]day\s+(?:free\s+)?return|(?i)returns?\s+(?:accepted\s+)?within\s+(\d{1,3})\s+days`)
	finalSaleRe     = regexp.MustCompile(`(?i)\b(?:final\s+sale|non-?returnable|not\s+eligible\s+for\s+return|all\s+sales\s+(?:are\s+)?final)\b`)
	returnAnchorRe  = regexp.MustCompile(`(?i)\b(?:return\s+policy|free\s+returns?|return\s+window|easy\s+returns?|returns?\s+(?:by|before|within|through|until|accepted)|start\s+a\s+return|return\s+or\s+replace)\b`)
	returnPortalRe  = regexp.MustCompile(`(?i)(https?://[^\s"'<>]*returns?[^\s"'<>]*)`)
	currencyRe      = regexp.MustCompile(`(?i)\b(USD|EUR|GBP|CAD|AUD)\b`)
)

// allZeroRe matches identifiers made entirely of zeros and separators.
var allZeroRe = regexp.MustCompile(`^[0\-]+$`)

// ValidOrderID rejects identifiers that cannot plausibly be order numbers:
// shorter than 5 characters, all zeros, or no digit at all (the labeled
// patterns otherwise capture words like "confirmation").
func ValidOrderID(id string) bool {
	if len(id) < 5 {
		return false
	}
	if allZeroRe.MatchString(id) {
		return false
	}
	return countDigits(id) > 0
}

// ValidTrackingNumber enforces the 10-35 length bound and requires enough
// digits to rule out plain words ("tracking information").
func ValidTrackingNumber(num string) bool {
	if len(num) < 10 || len(num) > 35 {
		return false
	}
	if allZeroRe.MatchString(num) {
		return false
	}
	return countDigits(num) >= 4
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
