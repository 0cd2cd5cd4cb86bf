package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var received = time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)

func TestExtractOrderID(t *testing.T) {
	e := New()

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "amazon triple-dash in subject",
			text:     "Order Confirmed #123-4567890-1234567",
			expected: "123-4567890-1234567",
		},
		{
			name:     "generic labeled order number",
			text:     "Thanks for shopping! Your order #A123456 will ship soon.",
			expected: "A123456",
		},
		{
			name:     "confirmation number",
			text:     "Confirmation # 5H8K9-22 for your purchase",
			expected: "5H8K9-22",
		},
		{
			name:     "invoice number",
			text:     "Invoice #INV-20260115 attached",
			expected: "INV-20260115",
		},
		{
			name:     "rejects short ID",
			text:     "order #1234",
			expected: "",
		},
		{
			name:     "rejects all-zero ID",
			text:     "order #00000000",
			expected: "",
		},
		{
			name:     "rejects captured word",
			text:     "Your order confirmation is below",
			expected: "",
		},
		{
			name:     "no order ID",
			text:     "Hello, just checking in.",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.ExtractOrderID(tt.text))
		})
	}
}

func TestExtractTracking(t *testing.T) {
	e := New()

	tests := []struct {
		name            string
		text            string
		expectedNumber  string
		expectedCarrier string
	}{
		{
			name:            "UPS 1Z number",
			text:            "On the way: 1Z9999999999999999",
			expectedNumber:  "1Z9999999999999999",
			expectedCarrier: "ups",
		},
		{
			name:            "USPS 22-digit number",
			text:            "USPS tracking 9400111899562537624840",
			expectedNumber:  "9400111899562537624840",
			expectedCarrier: "usps",
		},
		{
			name:            "FedEx number near carrier name",
			text:            "FedEx tracking: 123456789012",
			expectedNumber:  "123456789012",
			expectedCarrier: "fedex",
		},
		{
			name:            "generic labeled number",
			text:            "Tracking number: XY12345678901234",
			expectedNumber:  "XY12345678901234",
			expectedCarrier: "",
		},
		{
			name:           "rejects plain words after label",
			text:           "tracking information is available",
			expectedNumber: "",
		},
		{
			name:           "rejects too-short number",
			text:           "tracking # 12345",
			expectedNumber: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			num, carrier := e.ExtractTracking(tt.text)
			assert.Equal(t, tt.expectedNumber, num)
			if tt.expectedNumber != "" {
				assert.Equal(t, tt.expectedCarrier, carrier)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"full month", "March 15, 2026", "2026-03-15"},
		{"abbreviated month", "Jan 2, 2026", "2026-01-02"},
		{"iso", "2026-03-15", "2026-03-15"},
		{"slash", "3/15/2026", "2026-03-15"},
		{"day first", "15 March 2026", "2026-03-15"},
		{"ordinal suffix", "March 15th, 2026", "2026-03-15"},
		{"weekday prefix", "Wednesday, March 4, 2026", "2026-03-04"},
		{"yearless takes nearby year", "March 4", "2026-03-04"},
		{"yearless rolls forward", "January 3", "2027-01-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := received
			if tt.name == "yearless rolls forward" {
				ref = time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC)
			}
			got := ParseDate(tt.input, ref)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, got.Format("2006-01-02"))
		})
	}

	assert.Nil(t, ParseDate("not a date", received))
	assert.Nil(t, ParseDate("", received))
}

func TestExtractDatesByLabel(t *testing.T) {
	e := New()

	body := `Your package was delivered on January 10, 2026.
Order placed: January 2, 2026
Return by March 15, 2026`

	fields := e.Extract("Delivery update", body, received)
	require.NotNil(t, fields.DeliveryDate)
	assert.Equal(t, "2026-01-10", fields.DeliveryDate.Format("2006-01-02"))
	require.NotNil(t, fields.PurchaseDate)
	assert.Equal(t, "2026-01-02", fields.PurchaseDate.Format("2006-01-02"))
	require.NotNil(t, fields.ExplicitReturnBy)
	assert.Equal(t, "2026-03-15", fields.ExplicitReturnBy.Format("2006-01-02"))
	assert.Nil(t, fields.ShipDate)
}

func TestExtractEstimatedDelivery(t *testing.T) {
	e := New()
	fields := e.Extract("Shipped!", "Estimated delivery: Wednesday, March 4", received)
	require.NotNil(t, fields.EstimatedDelivery)
	assert.Equal(t, "2026-03-04", fields.EstimatedDelivery.Format("2006-01-02"))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
		currency string
	}{
		{"labeled total wins", "Item: $19.99 Order total: $129.99", "129.99", "USD"},
		{"grand total", "Grand total $1,049.00", "1049", "USD"},
		{"bare amount", "Charged $45.00 to your card", "45", "USD"},
		{"explicit currency code", "Total: 89.50 GBP total charged: 89.50", "89.5", "GBP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amt, currency := ParseAmount(tt.text)
			require.NotNil(t, amt)
			assert.Equal(t, tt.expected, amt.String())
			assert.Equal(t, tt.currency, currency)
		})
	}

	amt, _ := ParseAmount("no money here")
	assert.Nil(t, amt)
}

func TestExtractItemSummary(t *testing.T) {
	e := New()

	tests := []struct {
		name     string
		subject  string
		expected string
	}{
		{
			name:     "your order of pattern",
			subject:  "Your order of Blue Running Shoes has shipped",
			expected: "Blue Running Shoes",
		},
		{
			name:     "boilerplate prefix stripped",
			subject:  "Order Confirmation: Ceramic Mug Set",
			expected: "Ceramic Mug Set",
		},
		{
			name:     "other items suffix stripped",
			subject:  "Wool Socks and 2 other items",
			expected: "Wool Socks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := e.Extract(tt.subject, "", received)
			assert.Equal(t, tt.expected, fields.ItemSummary)
		})
	}
}

func TestReturnSignals(t *testing.T) {
	e := New()

	fields := e.Extract("Order confirmed",
		"Our return policy: returns accepted within 30 days. Start a return at https://returns.example.com/start", received)
	assert.True(t, fields.HasReturnAnchors)
	require.NotNil(t, fields.ReturnWindowDays)
	assert.Equal(t, 30, *fields.ReturnWindowDays)
	assert.Equal(t, "https://returns.example.com/start", fields.ReturnPortalLink)
	assert.False(t, fields.IsFinalSale)

	fields = e.Extract("Sale!", "This item is FINAL SALE and non-returnable.", received)
	assert.True(t, fields.IsFinalSale)

	fields = e.Extract("Order confirmed", "A 90-day return window applies.", received)
	require.NotNil(t, fields.ReturnWindowDays)
	assert.Equal(t, 90, *fields.ReturnWindowDays)
}

func TestExtractFullEmail(t *testing.T) {
	e := New()

	subject := "Your order of Desk Lamp has shipped"
	body := `Order #113-7767890-1234567
Tracking number: 1Z999AA10123456784
Shipped on February 18, 2026
Estimated delivery: February 24, 2026
Order total: $68.47`

	fields := e.Extract(subject, body, received)
	assert.Equal(t, "113-7767890-1234567", fields.OrderID)
	assert.Equal(t, "1Z999AA10123456784", fields.TrackingNumber)
	assert.Equal(t, "ups", fields.Carrier)
	assert.Equal(t, "Desk Lamp", fields.ItemSummary)
	require.NotNil(t, fields.ShipDate)
	assert.Equal(t, "2026-02-18", fields.ShipDate.Format("2006-01-02"))
	require.NotNil(t, fields.EstimatedDelivery)
	assert.Equal(t, "2026-02-24", fields.EstimatedDelivery.Format("2006-01-02"))
	require.NotNil(t, fields.Amount)
	assert.Equal(t, "68.47", fields.Amount.String())
	assert.True(t, fields.HasPrimaryKey())
}
