package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

func memTestOrder(key string) *orders.Order {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	return &orders.Order{
		OrderKey:           key,
		UserID:             "user-1",
		MerchantDomain:     "amazon.com",
		OrderID:            "113-555",
		ItemSummary:        "Desk Lamp",
		Currency:           "USD",
		Status:             orders.StatusActive,
		DeadlineConfidence: orders.ConfidenceUnknown,
		SourceEmailIDs:     []string{"e1"},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestMemoryStoreGetMissIsNotError(t *testing.T) {
	s := NewMemoryStore()
	o, err := s.GetOrder("missing")
	require.NoError(t, err)
	assert.Nil(t, o)
}

func TestMemoryStoreUpsertAndGet(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.UpsertOrder(memTestOrder("amazon.com:113-555")))

	got, err := s.GetOrder("amazon.com:113-555")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Desk Lamp", got.ItemSummary)

	// Mutating the returned copy must not touch stored state.
	got.ItemSummary = "changed"
	again, err := s.GetOrder("amazon.com:113-555")
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", again.ItemSummary)
}

func TestMemoryStoreIndices(t *testing.T) {
	s := NewMemoryStore()
	o := memTestOrder("amazon.com:113-555")
	require.NoError(t, s.UpsertOrder(o))
	require.NoError(t, s.PointOrderIDIndex("113-555", o.OrderKey))

	found, err := s.FindOrderByOrderID("113-555")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, o.OrderKey, found.OrderKey)

	missing, err := s.FindOrderByOrderID("999-999")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Re-pointing the index changes the resolution target.
	other := memTestOrder("amazon.com:other")
	require.NoError(t, s.UpsertOrder(other))
	require.NoError(t, s.PointOrderIDIndex("113-555", other.OrderKey))
	found, err = s.FindOrderByOrderID("113-555")
	require.NoError(t, err)
	assert.Equal(t, "amazon.com:other", found.OrderKey)
}

func TestMemoryStoreThreadLookup(t *testing.T) {
	s := NewMemoryStore()
	o := memTestOrder("amazon.com:113-555")
	require.NoError(t, s.UpsertOrder(o))
	require.NoError(t, s.StoreOrderEmail(&orders.OrderEmail{
		EmailID:        "e1",
		ThreadID:       "thread-9",
		ReceivedAt:     time.Now(),
		MerchantDomain: "amazon.com",
	}))

	matched, err := s.FindOrdersByThread("thread-9", "amazon.com")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, o.OrderKey, matched[0].OrderKey)

	// Wrong merchant: no match even with a shared thread.
	matched, err = s.FindOrdersByThread("thread-9", "nordstrom.com")
	require.NoError(t, err)
	assert.Empty(t, matched)

	// Empty thread IDs never match anything.
	matched, err = s.FindOrdersByThread("", "amazon.com")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestMemoryStoreProcessedSet(t *testing.T) {
	s := NewMemoryStore()

	done, err := s.IsEmailProcessed("e1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.MarkEmailProcessed("e1"))
	done, err = s.IsEmailProcessed("e1")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestMemoryStoreListOrderEmailsNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	for _, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, s.StoreOrderEmail(&orders.OrderEmail{EmailID: id, ReceivedAt: time.Now()}))
	}

	out, err := s.ListOrderEmails(2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "e3", out[0].EmailID)
	assert.Equal(t, "e2", out[1].EmailID)
}
