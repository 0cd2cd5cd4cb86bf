package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Labeled totals win over bare dollar amounts so that an item price in the
// body does not shadow the order total.
var labeledAmountRe = regexp.MustCompile(`(?i)(?:grand\s+total|order\s+total|total(?:\s+charged)?|amount\s+(?:charged|paid))\s*[:\s]\s*(?:USD\s*)?\$?\s*([\d,]+\.\d{2})`)
var bareAmountRe = regexp.MustCompile(`\$\s*([\d,]+\.\d{2})`)

var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"$", "USD"},
	{"£", "GBP"},
	{"€", "EUR"},
}

// ParseAmount finds the most plausible order total in the text. Returns nil
// when no amount is present; a malformed amount is treated as absent.
func ParseAmount(text string) (*decimal.Decimal, string) {
	var raw string
	if m := labeledAmountRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if m := bareAmountRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	}
	if raw == "" {
		return nil, ""
	}

	raw = strings.ReplaceAll(raw, ",", "")
	amt, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, ""
	}

	currency := "USD"
	if m := currencyRe.FindStringSubmatch(text); m != nil {
		currency = strings.ToUpper(m[1])
	} else {
		for _, c := range currencySymbols {
			if strings.Contains(text, c.symbol) {
				currency = c.code
				break
			}
		}
	}
	return &amt, currency
}
