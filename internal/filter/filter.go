// Package filter decides whether an email belongs to a category that must
// never produce an order. It is a pure function of the email text and a
// static table: no storage access, no side effects.
package filter

import (
	"regexp"
	"strings"
)

// Result is the filter verdict for one email.
type Result struct {
	Blocked        bool   `json:"blocked"`
	Reason         string `json:"reason,omitempty"`
	MerchantDomain string `json:"merchant_domain"`
}

// Filter holds the static blocklists. Construct once, reuse across scans.
type Filter struct {
	blockedDomains  map[string]string // domain -> category
	blockedKeywords []keywordEntry
	addressPattern  *regexp.Regexp
}

type keywordEntry struct {
	pattern *regexp.Regexp
	reason  string
}

// New creates a filter with the default category blocklists.
func New() *Filter {
	f := &Filter{
		blockedDomains: make(map[string]string),
		addressPattern: regexp.MustCompile(`<([^>]+)>`),
	}
	f.initDomainBlocklist()
	f.initKeywordBlocklist()
	return f
}

// Evaluate classifies one email. The merchant domain is returned even when
// the email is blocked so the caller can record it.
func (f *Filter) Evaluate(from, subject, snippet string) Result {
	domain := MerchantDomain(from)
	result := Result{MerchantDomain: domain}

	if category, ok := f.blockedDomains[domain]; ok {
		result.Blocked = true
		result.Reason = "blocked domain category: " + category
		return result
	}

	text := strings.ToLower(subject + " " + snippet)
	for _, entry := range f.blockedKeywords {
		if entry.pattern.MatchString(text) {
			result.Blocked = true
			result.Reason = entry.reason
			return result
		}
	}

	return result
}

// multiPartTLDs are public suffixes where the registrable domain has three
// labels ("amazon.co.uk"), so naive last-two-label truncation is wrong.
var multiPartTLDs = map[string]bool{
	"co.uk":  true,
	"co.jp":  true,
	"co.nz":  true,
	"co.in":  true,
	"com.au": true,
	"com.br": true,
	"com.mx": true,
	"org.uk": true,
}

// MerchantDomain extracts the normalized merchant domain from a From header.
// Subdomains are stripped ("orders.amazon.com" -> "amazon.com") while known
// multi-part TLDs keep three labels ("shop.amazon.co.uk" -> "amazon.co.uk").
func MerchantDomain(from string) string {
	addr := from
	// "Display Name <user@host>" form.
	if m := regexp.MustCompile(`<([^>]+)>`).FindStringSubmatch(from); m != nil {
		addr = m[1]
	}
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	host := strings.ToLower(strings.TrimSpace(addr[at+1:]))
	host = strings.TrimSuffix(host, ".")

	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	lastTwo := strings.Join(labels[len(labels)-2:], ".")
	if multiPartTLDs[lastTwo] && len(labels) >= 3 {
		return strings.Join(labels[len(labels)-3:], ".")
	}
	return lastTwo
}

func (f *Filter) initDomainBlocklist() {
	categories := map[string][]string{
		"groceries": {
			"instacart.com", "shipt.com", "freshdirect.com", "gopuff.com",
			"wholefoodsmarket.com", "kroger.com", "safeway.com", "albertsons.com",
			"heb.com", "wegmans.com", "traderjoes.com", "aldi.us",
		},
		"food delivery": {
			"doordash.com", "ubereats.com", "grubhub.com", "postmates.com",
			"seamless.com", "caviar.com", "slicelife.com",
		},
		"digital goods": {
			"steampowered.com", "epicgames.com", "playstation.com", "xbox.com",
			"nintendo.com", "itch.io", "gog.com", "audible.com", "kindle.com",
		},
		"subscriptions": {
			"netflix.com", "spotify.com", "hulu.com", "disneyplus.com",
			"max.com", "paramountplus.com", "peacocktv.com", "youtube.com",
			"patreon.com", "substack.com", "nytimes.com", "wsj.com",
		},
		"rideshare": {
			"uber.com", "lyft.com", "lime.bike", "bird.co",
		},
		"travel": {
			"airbnb.com", "booking.com", "expedia.com", "hotels.com", "vrbo.com",
			"kayak.com", "priceline.com", "delta.com", "united.com", "aa.com",
			"southwest.com", "jetblue.com", "alaskaair.com", "amtrak.com",
			"marriott.com", "hilton.com", "hyatt.com", "ihg.com",
		},
		"banking": {
			"chase.com", "bankofamerica.com", "wellsfargo.com", "citi.com",
			"capitalone.com", "discover.com", "amex.com", "americanexpress.com",
			"paypal.com", "venmo.com", "cash.app", "zellepay.com", "sofi.com",
			"schwab.com", "fidelity.com", "vanguard.com", "robinhood.com",
			"coinbase.com", "experian.com", "creditkarma.com",
		},
		"tickets": {
			"ticketmaster.com", "stubhub.com", "seatgeek.com", "axs.com",
			"eventbrite.com", "livenation.com", "vividseats.com", "fandango.com",
		},
		"telecom": {
			"verizon.com", "att.com", "t-mobile.com", "xfinity.com",
			"comcast.com", "spectrum.com", "cox.com", "mintmobile.com",
		},
		"warranty/insurance": {
			"asurion.com", "squaretrade.com", "allstate.com", "geico.com",
			"progressive.com", "statefarm.com", "lemonade.com", "extend.com",
		},
	}

	for category, domains := range categories {
		for _, d := range domains {
			f.blockedDomains[d] = category
		}
	}
}

func (f *Filter) initKeywordBlocklist() {
	// Footer "unsubscribe" text is deliberately absent: nearly every
	// legitimate merchant email carries it.
	keywords := []struct {
		expr   string
		reason string
	}{
		{`\bverification code\b`, "account verification email"},
		{`\bone.?time (pass)?code\b`, "one-time code email"},
		{`\b2fa\b|\btwo.?factor\b`, "two-factor email"},
		{`\bpassword reset\b`, "password reset email"},
		{`\bebook\b|\be-book\b`, "digital goods"},
		{`\bgift card\b|\be-?gift\b`, "gift card"},
		{`\baudiobook\b`, "digital goods"},
		{`\bdownload your\b`, "digital goods"},
		{`\bgrocer(y|ies)\b`, "groceries"},
		{`\bmeal kit\b`, "groceries"},
		{`\byour (food|meal) (order|delivery)\b`, "food delivery"},
		{`\brefund (processed|issued|complete)\b`, "refund notification"},
		{`\byour return is complete\b`, "refund notification"},
		{`\bitinerary\b`, "travel"},
		{`\bboarding pass\b`, "travel"},
		{`\bflight confirmation\b`, "travel"},
		{`\bhotel (reservation|confirmation)\b`, "travel"},
		{`\breservation confirmed\b`, "travel"},
		{`\bsubscription (renew(al|ed|s)?|confirm(ed|ation))\b`, "subscription"},
		{`\bmembership renew`, "subscription"},
		{`\byour (monthly|annual) (statement|bill)\b`, "billing statement"},
		{`\bstatement is (ready|available)\b`, "billing statement"},
		{`\bpayment (due|received|reminder)\b`, "billing"},
		{`\byour (ride|trip) (receipt|with)\b`, "rideshare"},
		{`\bticket confirmation\b`, "tickets"},
		{`\bwarranty\b`, "warranty/insurance"},
		{`\binsurance\b`, "warranty/insurance"},
		{`\bdonat(e|ion)\b`, "donation"},
	}

	f.blockedKeywords = make([]keywordEntry, 0, len(keywords))
	for _, k := range keywords {
		f.blockedKeywords = append(f.blockedKeywords, keywordEntry{
			pattern: regexp.MustCompile(`(?i)` + k.expr),
			reason:  "blocked keyword: " + k.reason,
		})
	}
}
