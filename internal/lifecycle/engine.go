package lifecycle

import (
	"fmt"
	"sort"
	"time"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/merchants"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/storage"
)

// Engine answers the display layer's order queries: Return Watch, the
// unified visible list, all purchases, and returns history.
type Engine struct {
	store storage.Store
	calc  *Calculator
	cfg   Config
	now   func() time.Time
}

// NewEngine creates an engine over the given store. rules may be nil.
func NewEngine(store storage.Store, rules merchants.RuleProvider, cfg Config) *Engine {
	return &Engine{
		store: store,
		calc:  NewCalculator(rules),
		cfg:   cfg,
		now:   time.Now,
	}
}

// Calculator exposes the deadline calculator so the resolver can recompute
// deadlines inline when it persists an order.
func (e *Engine) Calculator() *Calculator { return e.calc }

// SetClock overrides the engine's notion of now, for tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

func (e *Engine) today() time.Time {
	t := e.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ShouldShowInReturnWatch reports whether an order belongs on the Return
// Watch list: active, with a justified deadline that has not passed.
func (e *Engine) ShouldShowInReturnWatch(o *orders.Order) bool {
	if o.Status != orders.StatusActive {
		return false
	}
	if o.DeadlineConfidence == orders.ConfidenceUnknown || o.ReturnByDate == nil {
		return false
	}
	return !o.ReturnByDate.Before(e.today())
}

// ShouldAlert reports whether a deadline notification for this order is
// justified. Unknown confidence never alerts; an estimated deadline alerts
// only once actual delivery is confirmed.
func (e *Engine) ShouldAlert(o *orders.Order) bool {
	if !e.ShouldShowInReturnWatch(o) {
		return false
	}
	switch o.DeadlineConfidence {
	case orders.ConfidenceExact:
		return true
	case orders.ConfidenceEstimated:
		return o.DeliveryDate != nil
	}
	return false
}

// isStale reports whether the deadline passed too long ago to act on.
func (e *Engine) isStale(o *orders.Order) bool {
	if o.ReturnByDate == nil {
		return false
	}
	cutoff := e.today().AddDate(0, 0, -e.cfg.StalenessDays)
	return o.ReturnByDate.Before(cutoff)
}

// ReturnWatch is the two-bucket deadline view.
type ReturnWatch struct {
	ExpiringSoon []*orders.Order `json:"expiring_soon"`
	Active       []*orders.Order `json:"active"`
}

// GetReturnWatchOrders returns deduplicated orders with justified upcoming
// deadlines, split into expiring-soon and the rest, soonest deadline first.
func (e *Engine) GetReturnWatchOrders() (*ReturnWatch, error) {
	all, err := e.store.GetAllOrders()
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	watch := &ReturnWatch{}
	soonCutoff := e.today().AddDate(0, 0, e.cfg.ExpiringSoonDays)
	for _, o := range e.DedupForDisplay(all) {
		if !e.ShouldShowInReturnWatch(o) {
			continue
		}
		if o.ReturnByDate.Before(soonCutoff) {
			watch.ExpiringSoon = append(watch.ExpiringSoon, o)
		} else {
			watch.Active = append(watch.Active, o)
		}
	}
	sortByDeadline(watch.ExpiringSoon)
	sortByDeadline(watch.Active)
	return watch, nil
}

// GetVisibleOrders is the unified list: active, deduplicated, with stale
// deadlines hidden. Orders with no deadline at all stay visible.
func (e *Engine) GetVisibleOrders() ([]*orders.Order, error) {
	all, err := e.store.GetAllOrders()
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	var out []*orders.Order
	for _, o := range e.DedupForDisplay(all) {
		if o.Status != orders.StatusActive {
			continue
		}
		if e.isStale(o) {
			continue
		}
		out = append(out, o)
	}
	sortNewestFirst(out)
	return out, nil
}

// GetAllPurchasesForDisplay returns every non-dismissed order, deduplicated.
// Dismissed orders are merge losers kept for audit; showing them would
// double-count the purchase.
func (e *Engine) GetAllPurchasesForDisplay() ([]*orders.Order, error) {
	all, err := e.store.GetAllOrders()
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	var kept []*orders.Order
	for _, o := range all {
		if o.Status == orders.StatusDismissed {
			continue
		}
		kept = append(kept, o)
	}
	out := e.DedupForDisplay(kept)
	sortNewestFirst(out)
	return out, nil
}

// GetReturnedOrders returns orders the user marked returned, newest first.
func (e *Engine) GetReturnedOrders() ([]*orders.Order, error) {
	all, err := e.store.GetAllOrders()
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	var out []*orders.Order
	for _, o := range all {
		if o.Status == orders.StatusReturned {
			out = append(out, o)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortByDeadline(list []*orders.Order) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].ReturnByDate.Equal(*list[j].ReturnByDate) {
			return list[i].ReturnByDate.Before(*list[j].ReturnByDate)
		}
		return list[i].OrderKey < list[j].OrderKey
	})
}

func sortNewestFirst(list []*orders.Order) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].OrderKey < list[j].OrderKey
	})
}
