package classify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

func TestClassifyPriority(t *testing.T) {
	c := New()

	tests := []struct {
		name     string
		subject  string
		body     string
		expected orders.EmailType
	}{
		{
			name:     "delivery beats shipping and confirmation",
			subject:  "Your order was delivered",
			body:     "Your order #123-4567890-1234567 has shipped and was delivered today.",
			expected: orders.EmailTypeDelivery,
		},
		{
			name:     "left at your door",
			subject:  "Package update",
			body:     "Your package was left at your door.",
			expected: orders.EmailTypeDelivery,
		},
		{
			name:     "shipping beats confirmation",
			subject:  "Your order has shipped",
			body:     "Order confirmation inside. Tracking number: 1Z9999999999999999",
			expected: orders.EmailTypeShipping,
		},
		{
			name:     "confirmation",
			subject:  "Order Confirmed",
			body:     "Thank you for your order.",
			expected: orders.EmailTypeConfirmation,
		},
		{
			name:     "receipt is confirmation",
			subject:  "Your receipt from Acme",
			body:     "",
			expected: orders.EmailTypeConfirmation,
		},
		{
			name:     "unrelated email",
			subject:  "Team lunch Friday",
			body:     "See you there!",
			expected: orders.EmailTypeOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Classify(tt.subject, tt.body))
		})
	}
}

func TestPurchaseConfirmed(t *testing.T) {
	c := New()
	amount := decimal.NewFromFloat(59.99)

	tests := []struct {
		name     string
		subject  string
		body     string
		fields   *orders.ExtractedFields
		expected bool
	}{
		{
			name:     "order ID alone confirms",
			subject:  "FYI",
			body:     "nothing else here",
			fields:   &orders.ExtractedFields{OrderID: "113-555"},
			expected: true,
		},
		{
			name:     "confirmation keywords plus extracted amount",
			subject:  "Order confirmed",
			body:     "Thanks!",
			fields:   &orders.ExtractedFields{Amount: &amount},
			expected: true,
		},
		{
			name:     "confirmation keywords plus dollar amount in text",
			subject:  "Order confirmed",
			body:     "You paid $59.99 today.",
			fields:   &orders.ExtractedFields{},
			expected: true,
		},
		{
			name:     "confirmation keywords plus strong purchase phrase",
			subject:  "Thank you for your order",
			body:     "Shipping address: 1 Main St",
			fields:   &orders.ExtractedFields{},
			expected: true,
		},
		{
			name:     "confirmation keywords alone are not enough",
			subject:  "Order confirmation",
			body:     "We'll email you when it ships.",
			fields:   &orders.ExtractedFields{},
			expected: false,
		},
		{
			name:     "amount without confirmation keywords is not enough",
			subject:  "Weekly deals",
			body:     "Save on items from $9.99!",
			fields:   &orders.ExtractedFields{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.PurchaseConfirmed(tt.subject, tt.body, tt.fields))
		})
	}
}

func TestShouldSeedOrder(t *testing.T) {
	c := New()

	tests := []struct {
		name      string
		emailType orders.EmailType
		confirmed bool
		fields    *orders.ExtractedFields
		expected  SeedKind
	}{
		{
			name:      "order ID always seeds full regardless of type",
			emailType: orders.EmailTypeOther,
			fields:    &orders.ExtractedFields{OrderID: "113-555"},
			expected:  SeedFull,
		},
		{
			name:      "confirmed confirmation seeds full",
			emailType: orders.EmailTypeConfirmation,
			confirmed: true,
			fields:    &orders.ExtractedFields{},
			expected:  SeedFull,
		},
		{
			name:      "unconfirmed confirmation does not seed",
			emailType: orders.EmailTypeConfirmation,
			confirmed: false,
			fields:    &orders.ExtractedFields{},
			expected:  SeedNone,
		},
		{
			name:      "shipping with tracking seeds partial",
			emailType: orders.EmailTypeShipping,
			fields:    &orders.ExtractedFields{TrackingNumber: "1Z9999999999999999"},
			expected:  SeedPartial,
		},
		{
			name:      "delivery with tracking seeds partial",
			emailType: orders.EmailTypeDelivery,
			fields:    &orders.ExtractedFields{TrackingNumber: "1Z9999999999999999"},
			expected:  SeedPartial,
		},
		{
			name:      "shipping without tracking does not seed",
			emailType: orders.EmailTypeShipping,
			fields:    &orders.ExtractedFields{},
			expected:  SeedNone,
		},
		{
			name:      "other type never seeds without identifiers",
			emailType: orders.EmailTypeOther,
			fields:    &orders.ExtractedFields{},
			expected:  SeedNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.ShouldSeedOrder(tt.emailType, tt.confirmed, tt.fields))
		})
	}
}
