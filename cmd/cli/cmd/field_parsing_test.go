package cmd

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

func TestParseFieldsDefault(t *testing.T) {
	assert.Equal(t, defaultFields, parseFields(""))
}

func TestParseFieldsCustom(t *testing.T) {
	fields := parseFields("merchant, item ,status")
	assert.Equal(t, []string{"merchant", "item", "status"}, fields)
}

func TestValidateFields(t *testing.T) {
	require.NoError(t, validateFields([]string{"merchant", "returnby"}))

	err := validateFields([]string{"merchant", "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestGetFieldValue(t *testing.T) {
	deadline := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromFloat(49.99)
	o := &orders.Order{
		OrderKey:           "amazon.com:123",
		MerchantName:       "Amazon.com",
		ItemSummary:        "Wireless earbuds",
		OrderID:            "123",
		Amount:             &amount,
		Currency:           "USD",
		ReturnByDate:       &deadline,
		DeadlineConfidence: orders.ConfidenceExact,
		Status:             orders.StatusActive,
	}

	assert.Equal(t, "Amazon.com", getFieldValue(o, "merchant"))
	assert.Equal(t, "49.99 USD", getFieldValue(o, "amount"))
	assert.Equal(t, "2026-03-15", getFieldValue(o, "returnby"))
	assert.Equal(t, "exact", getFieldValue(o, "confidence"))
	assert.Equal(t, "", getFieldValue(o, "delivered"))
}

func TestValidateOrderKey(t *testing.T) {
	key, err := validateOrderKey(" amazon.com:123 ")
	require.NoError(t, err)
	assert.Equal(t, "amazon.com:123", key)

	_, err = validateOrderKey("")
	require.Error(t, err)

	_, err = validateOrderKey("nokey")
	require.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	s, err := parseStatus("Returned")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusReturned, s)

	s, err = parseStatus("canceled")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, s)

	_, err = parseStatus("shredded")
	require.Error(t, err)
}
