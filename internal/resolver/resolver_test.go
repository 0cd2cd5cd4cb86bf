package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/classify"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/lifecycle"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/storage"
)

var testNow = time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)

func newTestResolver(t *testing.T) (*Resolver, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	r := New(store, lifecycle.NewCalculator(nil), DefaultConfig())
	r.SetClock(func() time.Time { return testNow })
	return r, store
}

func emailInput(emailID, threadID string, fields *orders.ExtractedFields, seed classify.SeedKind) Input {
	return Input{
		Email: &orders.OrderEmail{
			EmailID:        emailID,
			ThreadID:       threadID,
			UserID:         "user-1",
			ReceivedAt:     testNow,
			MerchantDomain: "amazon.com",
		},
		MerchantName: "Amazon",
		Fields:       fields,
		Seed:         seed,
	}
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestSeedFullFromOrderID(t *testing.T) {
	r, store := newTestResolver(t)

	out, err := r.ResolveEmail(emailInput("e1", "t1",
		&orders.ExtractedFields{OrderID: "123-4567890-1234567"}, classify.SeedFull))
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, out.Action)
	assert.Equal(t, "amazon.com:123-4567890-1234567", out.Order.OrderKey)
	assert.Equal(t, orders.ConfidenceUnknown, out.Order.DeadlineConfidence)
	assert.Equal(t, []string{"e1"}, out.Order.SourceEmailIDs)

	found, err := store.FindOrderByOrderID("123-4567890-1234567")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, out.Order.OrderKey, found.OrderKey)
}

func TestShippingFollowUpUpdatesSameOrder(t *testing.T) {
	r, store := newTestResolver(t)

	_, err := r.ResolveEmail(emailInput("e1", "t1",
		&orders.ExtractedFields{OrderID: "123-4567890-1234567"}, classify.SeedFull))
	require.NoError(t, err)

	out, err := r.ResolveEmail(emailInput("e2", "t1", &orders.ExtractedFields{
		OrderID:        "123-4567890-1234567",
		TrackingNumber: "1Z9999999999999999",
		ShipDate:       datePtr(2026, 2, 18),
	}, classify.SeedPartial))
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, out.Action)
	assert.Equal(t, "amazon.com:123-4567890-1234567", out.Order.OrderKey)
	assert.Equal(t, "1Z9999999999999999", out.Order.TrackingNumber)
	assert.Equal(t, *datePtr(2026, 2, 18), *out.Order.ShipDate)
	assert.ElementsMatch(t, []string{"e1", "e2"}, out.Order.SourceEmailIDs)

	// Tracking index now resolves to the same order.
	byTracking, err := store.FindOrderByTracking("1Z9999999999999999")
	require.NoError(t, err)
	require.NotNil(t, byTracking)
	assert.Equal(t, out.Order.OrderKey, byTracking.OrderKey)

	// Still exactly one stored order.
	all, err := store.GetAllOrders()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFirstWriteWinsOnUpdate(t *testing.T) {
	r, _ := newTestResolver(t)

	_, err := r.ResolveEmail(emailInput("e1", "t1", &orders.ExtractedFields{
		OrderID:     "113-555",
		ItemSummary: "Desk Lamp",
		ShipDate:    datePtr(2026, 2, 10),
	}, classify.SeedFull))
	require.NoError(t, err)

	out, err := r.ResolveEmail(emailInput("e2", "t1", &orders.ExtractedFields{
		OrderID:     "113-555",
		ItemSummary: "Something Else Entirely",
		ShipDate:    datePtr(2026, 2, 15),
	}, classify.SeedFull))
	require.NoError(t, err)

	assert.Equal(t, "Desk Lamp", out.Order.ItemSummary)
	assert.Equal(t, *datePtr(2026, 2, 10), *out.Order.ShipDate)
}

func TestMergeEscalation(t *testing.T) {
	r, store := newTestResolver(t)

	// Tracking-only email arrives first and seeds a partial order.
	_, err := r.ResolveEmail(emailInput("e1", "", &orders.ExtractedFields{
		TrackingNumber: "1Z9999999999999999",
		ShipDate:       datePtr(2026, 2, 18),
	}, classify.SeedPartial))
	require.NoError(t, err)

	// Independent confirmation seeds an order-id-keyed order.
	_, err = r.ResolveEmail(emailInput("e2", "", &orders.ExtractedFields{
		OrderID:     "123-4567890-1234567",
		ItemSummary: "Desk Lamp",
	}, classify.SeedFull))
	require.NoError(t, err)

	// A later email carries both keys: merge escalation fires.
	out, err := r.ResolveEmail(emailInput("e3", "", &orders.ExtractedFields{
		OrderID:        "123-4567890-1234567",
		TrackingNumber: "1Z9999999999999999",
	}, classify.SeedFull))
	require.NoError(t, err)
	assert.Equal(t, ActionMerged, out.Action)

	winner := out.Order
	assert.Equal(t, "amazon.com:123-4567890-1234567", winner.OrderKey)
	assert.Equal(t, "1Z9999999999999999", winner.TrackingNumber)
	assert.Equal(t, "Desk Lamp", winner.ItemSummary)
	assert.Equal(t, *datePtr(2026, 2, 18), *winner.ShipDate)
	assert.ElementsMatch(t, []string{"e1", "e2", "e3"}, winner.SourceEmailIDs)

	// The loser is dismissed, not deleted.
	loser, err := store.GetOrder("amazon.com:tracking:1Z9999999999999999")
	require.NoError(t, err)
	require.NotNil(t, loser)
	assert.Equal(t, orders.StatusDismissed, loser.Status)

	// Tracking index repointed to the winner.
	byTracking, err := store.FindOrderByTracking("1Z9999999999999999")
	require.NoError(t, err)
	assert.Equal(t, winner.OrderKey, byTracking.OrderKey)
}

func TestMergeEscalationIsIdempotent(t *testing.T) {
	r, store := newTestResolver(t)

	_, err := r.ResolveEmail(emailInput("e1", "", &orders.ExtractedFields{
		TrackingNumber: "1Z9999999999999999",
	}, classify.SeedPartial))
	require.NoError(t, err)
	_, err = r.ResolveEmail(emailInput("e2", "", &orders.ExtractedFields{
		OrderID: "123-4567890-1234567",
	}, classify.SeedFull))
	require.NoError(t, err)

	first, err := r.MergeOrders("amazon.com:123-4567890-1234567", "amazon.com:tracking:1Z9999999999999999")
	require.NoError(t, err)
	second, err := r.MergeOrders("amazon.com:123-4567890-1234567", "amazon.com:tracking:1Z9999999999999999")
	require.NoError(t, err)

	assert.Equal(t, first.SourceEmailIDs, second.SourceEmailIDs)
	assert.Equal(t, first.TrackingNumber, second.TrackingNumber)
	assert.Equal(t, first.Status, second.Status)

	loser, err := store.GetOrder("amazon.com:tracking:1Z9999999999999999")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusDismissed, loser.Status)
}

func TestThreadHintPurity(t *testing.T) {
	r, store := newTestResolver(t)

	seeded, err := r.ResolveEmail(emailInput("e1", "thread-1", &orders.ExtractedFields{
		OrderID:     "113-555",
		ItemSummary: "Desk Lamp",
		ShipDate:    datePtr(2026, 2, 10),
	}, classify.SeedFull))
	require.NoError(t, err)
	require.NoError(t, store.StoreOrderEmail(&orders.OrderEmail{
		EmailID: "e1", ThreadID: "thread-1", ReceivedAt: testNow, MerchantDomain: "amazon.com",
	}))
	before := seeded.Order.Clone()

	// Unlinked follow-up in the same thread: extracted dates must NOT be
	// applied, only provenance grows.
	out, err := r.ResolveEmail(emailInput("e2", "thread-1", &orders.ExtractedFields{
		DeliveryDate: datePtr(2026, 2, 19),
		ItemSummary:  "Totally Different Text",
	}, classify.SeedNone))
	require.NoError(t, err)
	assert.Equal(t, ActionThreadHinted, out.Action)

	after, err := store.GetOrder(before.OrderKey)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"e1", "e2"}, after.SourceEmailIDs)
	assert.Nil(t, after.DeliveryDate)
	assert.Equal(t, before.ItemSummary, after.ItemSummary)
	assert.Equal(t, before.ShipDate, after.ShipDate)
	assert.Equal(t, before.DeadlineConfidence, after.DeadlineConfidence)
}

func TestThreadHintAmbiguityDoesNothing(t *testing.T) {
	r, store := newTestResolver(t)

	for _, id := range []string{"113-111", "113-222"} {
		_, err := r.ResolveEmail(emailInput("seed-"+id, "thread-1",
			&orders.ExtractedFields{OrderID: id}, classify.SeedFull))
		require.NoError(t, err)
		require.NoError(t, store.StoreOrderEmail(&orders.OrderEmail{
			EmailID: "seed-" + id, ThreadID: "thread-1", ReceivedAt: testNow, MerchantDomain: "amazon.com",
		}))
	}

	out, err := r.ResolveEmail(emailInput("e3", "thread-1", nil, classify.SeedNone))
	require.NoError(t, err)
	assert.Equal(t, ActionNone, out.Action)
}

func TestThreadHintRespectsAgeWindow(t *testing.T) {
	r, store := newTestResolver(t)

	old, err := r.ResolveEmail(emailInput("e1", "thread-1",
		&orders.ExtractedFields{OrderID: "113-555"}, classify.SeedFull))
	require.NoError(t, err)
	require.NoError(t, store.StoreOrderEmail(&orders.OrderEmail{
		EmailID: "e1", ThreadID: "thread-1", ReceivedAt: testNow, MerchantDomain: "amazon.com",
	}))

	// Age the order past the thread-match window.
	aged := old.Order.Clone()
	aged.CreatedAt = testNow.AddDate(0, 0, -45)
	require.NoError(t, store.UpsertOrder(aged))

	out, err := r.ResolveEmail(emailInput("e2", "thread-1", nil, classify.SeedNone))
	require.NoError(t, err)
	assert.Equal(t, ActionNone, out.Action)
}

func TestTempKeySeedAndUpgrade(t *testing.T) {
	r, store := newTestResolver(t)

	// Confirmed purchase with no primary key at all: temp-keyed order.
	seeded, err := r.ResolveEmail(emailInput("e1", "thread-1", &orders.ExtractedFields{
		ItemSummary: "Desk Lamp",
	}, classify.SeedFull))
	require.NoError(t, err)
	assert.Equal(t, "user-1:temp:e1", seeded.Order.OrderKey)
	require.NoError(t, store.StoreOrderEmail(&orders.OrderEmail{
		EmailID: "e1", ThreadID: "thread-1", ReceivedAt: testNow, MerchantDomain: "amazon.com",
	}))

	// Same thread later reveals the order number: key upgrade.
	out, err := r.ResolveEmail(emailInput("e2", "thread-1", &orders.ExtractedFields{
		OrderID: "113-555",
	}, classify.SeedFull))
	require.NoError(t, err)
	assert.Equal(t, ActionKeyUpgraded, out.Action)
	assert.Equal(t, "amazon.com:113-555", out.Order.OrderKey)
	assert.Equal(t, "Desk Lamp", out.Order.ItemSummary)
	assert.ElementsMatch(t, []string{"e1", "e2"}, out.Order.SourceEmailIDs)

	// Temp record is gone; index resolves the new key.
	gone, err := store.GetOrder("user-1:temp:e1")
	require.NoError(t, err)
	assert.Nil(t, gone)
	byID, err := store.FindOrderByOrderID("113-555")
	require.NoError(t, err)
	assert.Equal(t, "amazon.com:113-555", byID.OrderKey)
}

func TestSeedPartialUsesTrackingKey(t *testing.T) {
	r, _ := newTestResolver(t)

	out, err := r.ResolveEmail(emailInput("e1", "", &orders.ExtractedFields{
		TrackingNumber: "1Z9999999999999999",
	}, classify.SeedPartial))
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, out.Action)
	assert.Equal(t, "amazon.com:tracking:1Z9999999999999999", out.Order.OrderKey)
}

func TestSeedNoneCreatesNothing(t *testing.T) {
	r, store := newTestResolver(t)

	out, err := r.ResolveEmail(emailInput("e1", "", nil, classify.SeedNone))
	require.NoError(t, err)
	assert.Equal(t, ActionNone, out.Action)

	all, err := store.GetAllOrders()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReprocessingSameEmailIsIdempotent(t *testing.T) {
	r, _ := newTestResolver(t)

	in := emailInput("e1", "t1", &orders.ExtractedFields{
		OrderID:     "113-555",
		ItemSummary: "Desk Lamp",
	}, classify.SeedFull)

	first, err := r.ResolveEmail(in)
	require.NoError(t, err)
	second, err := r.ResolveEmail(in)
	require.NoError(t, err)

	assert.Equal(t, []string{"e1"}, second.Order.SourceEmailIDs)
	assert.Equal(t, first.Order.OrderKey, second.Order.OrderKey)
	assert.Equal(t, first.Order.ItemSummary, second.Order.ItemSummary)
}

func TestDeadlineRecomputedOnUpdate(t *testing.T) {
	r, _ := newTestResolver(t)

	// amazon.com has a 30-day default window; delivery date arrives later.
	_, err := r.ResolveEmail(emailInput("e1", "", &orders.ExtractedFields{
		OrderID: "113-555",
	}, classify.SeedFull))
	require.NoError(t, err)

	out, err := r.ResolveEmail(emailInput("e2", "", &orders.ExtractedFields{
		OrderID:      "113-555",
		DeliveryDate: datePtr(2026, 2, 19),
	}, classify.SeedFull))
	require.NoError(t, err)

	assert.Equal(t, orders.ConfidenceEstimated, out.Order.DeadlineConfidence)
	require.NotNil(t, out.Order.ReturnByDate)
	assert.Equal(t, *datePtr(2026, 3, 21), *out.Order.ReturnByDate)
}
