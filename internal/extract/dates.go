package extract

import (
	"regexp"
	"strings"
	"time"
)

// dateExpr matches the date spellings merchants actually use. An optional
// weekday prefix ("Monday, March 15") is consumed but ignored.
const dateExpr = `(?:(?:Mon|Tues?|Wed(?:nes)?|Thu(?:rs)?|Fri|Sat(?:ur)?|Sun)(?:day)?,?\s+)?` +
	`(?:` +
	`[A-Za-z]{3,9}\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?` + // March 15, 2026 / Mar 15
	`|\d{1,2}\s+[A-Za-z]{3,9}\.?(?:\s+\d{4})?` + // 15 March 2026
	`|\d{4}-\d{2}-\d{2}` + // 2026-03-15
	`|\d{1,2}/\d{1,2}/\d{2,4}` + // 3/15/2026
	`)`

var labeledDatePatterns = []struct {
	field   string
	pattern *regexp.Regexp
}{
	{"explicit_return_by", regexp.MustCompile(`(?:` + returnByLabel + `)(` + dateExpr + `)`)},
	{"delivery_date", regexp.MustCompile(`(?:` + deliveredLabel + `)(` + dateExpr + `)`)},
	{"estimated_delivery", regexp.MustCompile(`(?:` + estimatedLabel + `)(` + dateExpr + `)`)},
	{"ship_date", regexp.MustCompile(`(?:` + shippedLabel + `)(` + dateExpr + `)`)},
	{"purchase_date", regexp.MustCompile(`(?:` + orderPlaced + `)(` + dateExpr + `)`)},
}

var dateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"January 2",
	"Jan 2",
	"2 January",
	"2 Jan",
}

var ordinalSuffixRe = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)
var weekdayPrefixRe = regexp.MustCompile(`(?i)^(?:mon|tues?|wed(?:nes)?|thu(?:rs)?|fri|sat(?:ur)?|sun)(?:day)?,?\s+`)

// ParseDate parses a human-written date, returning nil on failure rather
// than an error: a malformed date never aborts email processing.
//
// Yearless dates take the year closest to ref: "arriving Jan 3" received in
// late December means next January, not last.
func ParseDate(s string, ref time.Time) *time.Time {
	s = strings.TrimSpace(s)
	s = weekdayPrefixRe.ReplaceAllString(s, "")
	s = ordinalSuffixRe.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.TrimSuffix(s, ",")

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			t = nearestYear(t, ref)
		}
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &t
	}
	return nil
}

// nearestYear anchors a yearless date to whichever year puts it within six
// months of the reference date.
func nearestYear(t, ref time.Time) time.Time {
	candidate := time.Date(ref.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if candidate.Before(ref.AddDate(0, -6, 0)) {
		return candidate.AddDate(1, 0, 0)
	}
	if candidate.After(ref.AddDate(0, 6, 0)) {
		return candidate.AddDate(-1, 0, 0)
	}
	return candidate
}
