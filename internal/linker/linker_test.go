package linker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/storage"
)

func seedOrder(t *testing.T, s storage.Store, key, orderID, tracking string) *orders.Order {
	t.Helper()
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	o := &orders.Order{
		OrderKey:           key,
		UserID:             "user-1",
		MerchantDomain:     "amazon.com",
		OrderID:            orderID,
		TrackingNumber:     tracking,
		ItemSummary:        "Desk Lamp",
		Status:             orders.StatusActive,
		DeadlineConfidence: orders.ConfidenceUnknown,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	require.NoError(t, s.UpsertOrder(o))
	if orderID != "" {
		require.NoError(t, s.PointOrderIDIndex(orderID, key))
	}
	if tracking != "" {
		require.NoError(t, s.PointTrackingIndex(tracking, key))
	}
	return o
}

func TestLookupNoMatchIsNotAnError(t *testing.T) {
	l := New(storage.NewMemoryStore())

	m, err := l.Lookup(&orders.ExtractedFields{OrderID: "113-555"})
	require.NoError(t, err)
	assert.False(t, m.Linked)
	assert.Nil(t, m.Order)
}

func TestLookupNilFields(t *testing.T) {
	l := New(storage.NewMemoryStore())
	m, err := l.Lookup(nil)
	require.NoError(t, err)
	assert.False(t, m.Linked)
}

func TestLookupByOrderID(t *testing.T) {
	s := storage.NewMemoryStore()
	seedOrder(t, s, "amazon.com:113-555", "113-555", "")
	l := New(s)

	m, err := l.Lookup(&orders.ExtractedFields{OrderID: "113-555"})
	require.NoError(t, err)
	require.True(t, m.Linked)
	assert.Equal(t, MatchOrderID, m.MatchedBy)
	assert.Equal(t, "amazon.com:113-555", m.Order.OrderKey)
}

func TestLookupByTracking(t *testing.T) {
	s := storage.NewMemoryStore()
	seedOrder(t, s, "amazon.com:tracking:1Z9999999999999999", "", "1Z9999999999999999")
	l := New(s)

	m, err := l.Lookup(&orders.ExtractedFields{TrackingNumber: "1Z9999999999999999"})
	require.NoError(t, err)
	require.True(t, m.Linked)
	assert.Equal(t, MatchTracking, m.MatchedBy)
}

func TestLookupOrderIDWinsOverTracking(t *testing.T) {
	s := storage.NewMemoryStore()
	seedOrder(t, s, "amazon.com:113-555", "113-555", "")
	seedOrder(t, s, "amazon.com:tracking:1Z9999999999999999", "", "1Z9999999999999999")
	l := New(s)

	m, err := l.Lookup(&orders.ExtractedFields{
		OrderID:        "113-555",
		TrackingNumber: "1Z9999999999999999",
	})
	require.NoError(t, err)
	require.True(t, m.Linked)
	assert.Equal(t, MatchOrderID, m.MatchedBy)
	assert.Equal(t, "amazon.com:113-555", m.Order.OrderKey)
	assert.True(t, m.Conflicting())
}

func TestLookupSameOrderBothKeysIsNotConflicting(t *testing.T) {
	s := storage.NewMemoryStore()
	seedOrder(t, s, "amazon.com:113-555", "113-555", "1Z9999999999999999")
	l := New(s)

	m, err := l.Lookup(&orders.ExtractedFields{
		OrderID:        "113-555",
		TrackingNumber: "1Z9999999999999999",
	})
	require.NoError(t, err)
	require.True(t, m.Linked)
	assert.False(t, m.Conflicting())
}
