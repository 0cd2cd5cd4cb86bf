// Package classify assigns each email a lifecycle type and decides whether
// it justifies seeding a new order. Pure keyword logic, no storage access.
package classify

import (
	"regexp"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

// SeedKind is the seeding decision for an email.
type SeedKind string

const (
	// SeedFull seeds a complete order record.
	SeedFull SeedKind = "full"
	// SeedPartial seeds a tracking-only order awaiting its order number.
	SeedPartial SeedKind = "partial"
	// SeedNone records the email but creates no order.
	SeedNone SeedKind = "none"
)

// Classifier holds the compiled keyword sets. Delivery keywords are checked
// before shipping, shipping before confirmation: a "your order was delivered"
// email mentions all three stages and the latest one is the truth.
type Classifier struct {
	deliveryKeywords     *regexp.Regexp
	shippingKeywords     *regexp.Regexp
	confirmationKeywords *regexp.Regexp
	strongPurchase       *regexp.Regexp
	amountPattern        *regexp.Regexp
}

// New creates a classifier with the default keyword sets.
func New() *Classifier {
	return &Classifier{
		deliveryKeywords: regexp.MustCompile(
			`(?i)\b(?:was\s+delivered|has\s+been\s+delivered|delivered\s+(?:today|on)|left\s+at\s+your\s+door|your\s+(?:package|order)\s+(?:was\s+)?delivered|delivery\s+confirmed|arrived\s+today)\b`),
		shippingKeywords: regexp.MustCompile(
			`(?i)\b(?:has\s+shipped|was\s+shipped|shipped!|on\s+its\s+way|in\s+transit|out\s+for\s+delivery|tracking\s+(?:number|info)|shipment\s+confirmation|your\s+package\s+is)\b`),
		confirmationKeywords: regexp.MustCompile(
			`(?i)\b(?:order\s+(?:confirmed|confirmation|received|placed)|thank\s+you\s+for\s+your\s+(?:order|purchase)|receipt|purchase\s+confirmation|we'?ve\s+received\s+your\s+order|order\s+#)`),
		strongPurchase: regexp.MustCompile(
			`(?i)\b(?:shipping\s+address|billing\s+address|grand\s+total|order\s+total|payment\s+method|items?\s+ordered|qty|quantity)\b`),
		amountPattern: regexp.MustCompile(`[$£€]\s*[\d,]+\.\d{2}`),
	}
}

// Classify assigns the email type by keyword priority.
func (c *Classifier) Classify(subject, body string) orders.EmailType {
	text := subject + "\n" + body
	switch {
	case c.deliveryKeywords.MatchString(text):
		return orders.EmailTypeDelivery
	case c.shippingKeywords.MatchString(text):
		return orders.EmailTypeShipping
	case c.confirmationKeywords.MatchString(text):
		return orders.EmailTypeConfirmation
	default:
		return orders.EmailTypeOther
	}
}

// PurchaseConfirmed decides whether the email is solid evidence of a real
// purchase: an extracted order number, or confirmation language together
// with either a dollar amount or a strong purchase phrase.
func (c *Classifier) PurchaseConfirmed(subject, body string, fields *orders.ExtractedFields) bool {
	if fields != nil && fields.OrderID != "" {
		return true
	}
	text := subject + "\n" + body
	if !c.confirmationKeywords.MatchString(text) {
		return false
	}
	if fields != nil && fields.Amount != nil {
		return true
	}
	if c.amountPattern.MatchString(text) {
		return true
	}
	return c.strongPurchase.MatchString(text)
}

// ShouldSeedOrder decides whether (and how) an email with no existing order
// match should create one.
func (c *Classifier) ShouldSeedOrder(emailType orders.EmailType, purchaseConfirmed bool, fields *orders.ExtractedFields) SeedKind {
	if fields != nil && fields.OrderID != "" {
		return SeedFull
	}
	if emailType == orders.EmailTypeConfirmation && purchaseConfirmed {
		return SeedFull
	}
	if (emailType == orders.EmailTypeShipping || emailType == orders.EmailTypeDelivery) &&
		fields != nil && fields.TrackingNumber != "" {
		return SeedPartial
	}
	return SeedNone
}
