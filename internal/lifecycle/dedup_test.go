package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

func TestTokenOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Wool Runners Size 10", "Wool Runners Size 10", 1.0},
		{"subset", "Allbirds Wool Runners Size 10", "Wool Runners", 1.0},
		{"disjoint", "Desk Lamp", "Wool Coat", 0.0},
		{"stop words ignored", "your order of the Desk Lamp", "Desk Lamp", 1.0},
		{"half overlap", "Desk Lamp White", "Desk Lamp Walnut Base", 2.0 / 3.0},
		{"empty never matches", "", "Desk Lamp", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tokenOverlap(tt.a, tt.b), 0.001)
		})
	}
}

func displayOrder(key, orderID, summary string) *orders.Order {
	return &orders.Order{
		OrderKey:           key,
		UserID:             "user-1",
		MerchantDomain:     "amazon.com",
		MerchantName:       "Amazon",
		OrderID:            orderID,
		ItemSummary:        summary,
		Status:             orders.StatusActive,
		DeadlineConfidence: orders.ConfidenceUnknown,
		SourceEmailIDs:     []string{"src-" + key},
		CreatedAt:          time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:          time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDedupMergesOnSharedOrderID(t *testing.T) {
	e, _ := newTestEngine(t)

	a := displayOrder("amazon.com:113-555", "113-555", "Desk Lamp")
	b := displayOrder("amazon.com:tracking:1Z1", "113-555", "Unknown item")

	out := e.DedupForDisplay([]*orders.Order{a, b})
	require.Len(t, out, 1)
}

func TestDedupNeverMergesDifferentOrderIDs(t *testing.T) {
	e, _ := newTestEngine(t)

	// Identical text, different order IDs: two real purchases of the same
	// thing must stay separate.
	a := displayOrder("amazon.com:113-555", "113-555", "Desk Lamp")
	b := displayOrder("amazon.com:113-777", "113-777", "Desk Lamp")

	out := e.DedupForDisplay([]*orders.Order{a, b})
	assert.Len(t, out, 2)
}

func TestDedupMergesOnSummaryOverlapWhenOrderIDMissing(t *testing.T) {
	e, _ := newTestEngine(t)

	a := displayOrder("amazon.com:113-555", "113-555", "Allbirds Wool Runners Size 10")
	b := displayOrder("amazon.com:tracking:1Z1", "", "Wool Runners Size 10")

	out := e.DedupForDisplay([]*orders.Order{a, b})
	require.Len(t, out, 1)
	assert.Equal(t, "113-555", out[0].OrderID)
}

func TestDedupLowOverlapStaysSeparate(t *testing.T) {
	e, _ := newTestEngine(t)

	a := displayOrder("amazon.com:tracking:1Z1", "", "Desk Lamp White")
	b := displayOrder("amazon.com:tracking:1Z2", "", "Wool Coat Navy")

	out := e.DedupForDisplay([]*orders.Order{a, b})
	assert.Len(t, out, 2)
}

func TestDedupDifferentMerchantsNeverGroup(t *testing.T) {
	e, _ := newTestEngine(t)

	a := displayOrder("amazon.com:tracking:1Z1", "", "Desk Lamp")
	b := displayOrder("target.com:tracking:1Z2", "", "Desk Lamp")
	b.MerchantDomain = "target.com"
	b.MerchantName = "Target"

	out := e.DedupForDisplay([]*orders.Order{a, b})
	assert.Len(t, out, 2)
}

func TestDedupAliasedDomainsGroupTogether(t *testing.T) {
	e, _ := newTestEngine(t)

	a := displayOrder("amazon.com:113-555", "113-555", "Desk Lamp")
	b := displayOrder("amazonses.com:tracking:1Z1", "", "Desk Lamp")
	b.MerchantDomain = "amazonses.com"

	out := e.DedupForDisplay([]*orders.Order{a, b})
	assert.Len(t, out, 1)
}

func TestDedupPicksRichestAndBackfills(t *testing.T) {
	e, _ := newTestEngine(t)

	rich := displayOrder("amazon.com:113-555", "113-555", "Desk Lamp")
	rich.DeliveryDate = date(2026, 2, 10)
	rich.ReturnByDate = date(2026, 3, 12)
	rich.DeadlineConfidence = orders.ConfidenceEstimated

	poor := displayOrder("amazon.com:tracking:1Z1", "", "Desk Lamp")
	poor.TrackingNumber = "1Z9999999999999999"
	poor.ShipDate = date(2026, 2, 7)

	out := e.DedupForDisplay([]*orders.Order{poor, rich})
	require.Len(t, out, 1)
	got := out[0]

	// Richest record represents the cluster.
	assert.Equal(t, "amazon.com:113-555", got.OrderKey)
	// Missing fields are backfilled from the other member.
	assert.Equal(t, "1Z9999999999999999", got.TrackingNumber)
	assert.Equal(t, *date(2026, 2, 7), *got.ShipDate)
	// Source emails are unioned for display.
	assert.ElementsMatch(t,
		[]string{"src-amazon.com:113-555", "src-amazon.com:tracking:1Z1"},
		got.SourceEmailIDs)
}

func TestDedupIsReadOnly(t *testing.T) {
	e, store := newTestEngine(t)

	a := displayOrder("amazon.com:113-555", "113-555", "Desk Lamp")
	b := displayOrder("amazon.com:tracking:1Z1", "", "Desk Lamp")
	b.TrackingNumber = "1Z9999999999999999"
	require.NoError(t, store.UpsertOrder(a))
	require.NoError(t, store.UpsertOrder(b))

	all, err := store.GetAllOrders()
	require.NoError(t, err)
	out := e.DedupForDisplay(all)
	require.Len(t, out, 1)

	// Stored records are untouched.
	storedA, err := store.GetOrder("amazon.com:113-555")
	require.NoError(t, err)
	assert.Empty(t, storedA.TrackingNumber)
	storedB, err := store.GetOrder("amazon.com:tracking:1Z1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusActive, storedB.Status)
	assert.Equal(t, []string{"src-amazon.com:tracking:1Z1"}, storedB.SourceEmailIDs)
}
