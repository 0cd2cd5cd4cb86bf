// Package resolver turns per-email evidence into order records: it computes
// stable order keys, creates or updates orders under a strict
// first-write-wins rule, attaches thread hints, upgrades temp keys, and
// performs safe merge escalation when one email proves two records are the
// same purchase.
package resolver

import (
	"fmt"
	"time"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/classify"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/lifecycle"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/linker"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/storage"
)

// Config carries the resolver's tunable constants.
type Config struct {
	// ThreadMatchWindowDays bounds how old an order can be and still
	// receive a thread hint.
	ThreadMatchWindowDays int
}

// DefaultConfig returns the standard constants.
func DefaultConfig() Config {
	return Config{ThreadMatchWindowDays: 30}
}

// Action says what the resolver did with an email.
type Action string

const (
	ActionNone         Action = "none"
	ActionCreated      Action = "created"
	ActionUpdated      Action = "updated"
	ActionThreadHinted Action = "thread_hinted"
	ActionMerged       Action = "merged"
	ActionKeyUpgraded  Action = "key_upgraded"
)

// Input is one email's evidence, assembled by the scan pipeline.
type Input struct {
	Email        *orders.OrderEmail
	MerchantName string
	Fields       *orders.ExtractedFields
	Seed         classify.SeedKind
}

// Outcome reports what happened. Order is nil when Action is ActionNone.
type Outcome struct {
	Action Action
	Order  *orders.Order
}

// Resolver is the sole writer of order records and their indices.
type Resolver struct {
	store  storage.Store
	locks  *storage.KeyLock
	linker *linker.Linker
	calc   *lifecycle.Calculator
	cfg    Config
	now    func() time.Time
}

// New creates a resolver over the given store. calc recomputes deadlines on
// every persisted mutation so stored orders always carry a current
// return_by_date.
func New(store storage.Store, calc *lifecycle.Calculator, cfg Config) *Resolver {
	return &Resolver{
		store:  store,
		locks:  storage.NewKeyLock(),
		linker: linker.New(store),
		calc:   calc,
		cfg:    cfg,
		now:    time.Now,
	}
}

// SetClock overrides the resolver's notion of now, for tests.
func (r *Resolver) SetClock(now func() time.Time) { r.now = now }

// ResolveEmail runs the full resolution for one email: primary-key linking,
// merge escalation, thread hinting, temp-key upgrade, and seeding.
func (r *Resolver) ResolveEmail(in Input) (*Outcome, error) {
	match, err := r.linker.Lookup(in.Fields)
	if err != nil {
		return nil, err
	}

	if match.Conflicting() {
		// One email carries both primary keys and they resolve to two
		// different orders: the same real purchase was seeded twice.
		winner, err := r.MergeOrders(match.ByOrderID.OrderKey, match.ByTracking.OrderKey)
		if err != nil {
			return nil, err
		}
		if winner != nil {
			return r.updateExisting(winner.OrderKey, in, ActionMerged)
		}
	}

	if match.Linked {
		return r.updateExisting(match.Order.OrderKey, in, ActionUpdated)
	}

	hint, err := r.threadCandidate(in.Email)
	if err != nil {
		return nil, err
	}
	if hint != nil {
		if orders.IsTempKey(hint.OrderKey) && in.Fields != nil && in.Fields.HasPrimaryKey() {
			return r.upgradeTempKey(hint, in)
		}
		return r.attachThreadHint(hint.OrderKey, in.Email)
	}

	return r.seedOrder(in)
}

// threadCandidate finds the single unambiguous thread match, or nil. Zero
// candidates or more than one both mean no hint; ambiguity is resolved by
// silence, not by guessing.
func (r *Resolver) threadCandidate(email *orders.OrderEmail) (*orders.Order, error) {
	if email.ThreadID == "" {
		return nil, nil
	}
	candidates, err := r.store.FindOrdersByThread(email.ThreadID, email.MerchantDomain)
	if err != nil {
		return nil, fmt.Errorf("thread lookup: %w", err)
	}

	oldest := email.ReceivedAt.AddDate(0, 0, -r.cfg.ThreadMatchWindowDays)
	var eligible []*orders.Order
	for _, o := range candidates {
		if o.Status != orders.StatusActive {
			continue
		}
		if o.CreatedAt.Before(oldest) {
			continue
		}
		eligible = append(eligible, o)
	}
	if len(eligible) != 1 {
		return nil, nil
	}
	return eligible[0], nil
}

// attachThreadHint appends the email to the order's provenance. Nothing else
// on the order may change here: a shared thread is weaker evidence than a
// primary key and must never touch dates or amounts.
func (r *Resolver) attachThreadHint(key string, email *orders.OrderEmail) (*Outcome, error) {
	unlock := r.locks.Lock(key)
	defer unlock()

	o, err := r.store.GetOrder(key)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", key, err)
	}
	if o == nil {
		return &Outcome{Action: ActionNone}, nil
	}
	if o.AddSourceEmail(email.EmailID) {
		o.UpdatedAt = r.now()
		if err := r.store.UpsertOrder(o); err != nil {
			return nil, fmt.Errorf("persist thread hint: %w", err)
		}
	}
	return &Outcome{Action: ActionThreadHinted, Order: o}, nil
}

// updateExisting applies the email's fields to an existing order under the
// first-write-wins rule and refreshes its deadline.
func (r *Resolver) updateExisting(key string, in Input, action Action) (*Outcome, error) {
	unlock := r.locks.Lock(key)
	o, err := r.store.GetOrder(key)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("get order %s: %w", key, err)
	}
	if o == nil {
		// The record vanished between lookup and lock; treat the email
		// as the first of its order.
		unlock()
		return r.seedOrder(in)
	}
	defer unlock()

	o.ApplyExtracted(in.Fields)
	o.AddSourceEmail(in.Email.EmailID)
	o.UpdatedAt = r.now()
	r.calc.Recompute(o)

	if err := r.store.UpsertOrder(o); err != nil {
		return nil, fmt.Errorf("persist order %s: %w", key, err)
	}
	if err := r.pointIndices(o); err != nil {
		return nil, err
	}
	return &Outcome{Action: action, Order: o}, nil
}

// seedOrder creates a new order when the email justifies one.
func (r *Resolver) seedOrder(in Input) (*Outcome, error) {
	if in.Seed == classify.SeedNone {
		return &Outcome{Action: ActionNone}, nil
	}

	var orderID, tracking string
	if in.Fields != nil {
		orderID = in.Fields.OrderID
		tracking = in.Fields.TrackingNumber
	}
	key := orders.DeriveKey(in.Email.UserID, in.Email.MerchantDomain, orderID, tracking, in.Email.EmailID)

	unlock := r.locks.Lock(key)
	defer unlock()

	existing, err := r.store.GetOrder(key)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", key, err)
	}
	if existing != nil {
		// Someone seeded the same key between lookup and lock.
		existing.ApplyExtracted(in.Fields)
		existing.AddSourceEmail(in.Email.EmailID)
		existing.UpdatedAt = r.now()
		r.calc.Recompute(existing)
		if err := r.store.UpsertOrder(existing); err != nil {
			return nil, fmt.Errorf("persist order %s: %w", key, err)
		}
		return &Outcome{Action: ActionUpdated, Order: existing}, nil
	}

	now := r.now()
	o := &orders.Order{
		OrderKey:           key,
		UserID:             in.Email.UserID,
		MerchantDomain:     in.Email.MerchantDomain,
		MerchantName:       in.MerchantName,
		ItemSummary:        orders.UnknownItemSummary,
		Currency:           "USD",
		Status:             orders.StatusActive,
		DeadlineConfidence: orders.ConfidenceUnknown,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	o.ApplyExtracted(in.Fields)
	o.AddSourceEmail(in.Email.EmailID)
	r.calc.Recompute(o)

	if err := r.store.UpsertOrder(o); err != nil {
		return nil, fmt.Errorf("persist order %s: %w", key, err)
	}
	if err := r.pointIndices(o); err != nil {
		return nil, err
	}
	return &Outcome{Action: ActionCreated, Order: o}, nil
}

// upgradeTempKey rekeys a temp order now that a primary key is known: the
// record is rewritten under the derived key, the temp record is deleted, and
// the indices point at the new key. This is the only case where an order's
// key changes.
func (r *Resolver) upgradeTempKey(temp *orders.Order, in Input) (*Outcome, error) {
	newKey := orders.DeriveKey(in.Email.UserID, in.Email.MerchantDomain,
		in.Fields.OrderID, in.Fields.TrackingNumber, in.Email.EmailID)

	unlock := r.locks.LockPair(temp.OrderKey, newKey)
	current, err := r.store.GetOrder(temp.OrderKey)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("get order %s: %w", temp.OrderKey, err)
	}
	if current == nil {
		unlock()
		return r.seedOrder(in)
	}
	defer unlock()

	upgraded := current.Clone()
	upgraded.OrderKey = newKey

	if existing, err := r.store.GetOrder(newKey); err != nil {
		return nil, fmt.Errorf("get order %s: %w", newKey, err)
	} else if existing != nil {
		// An order already lives under the primary key: absorb the temp
		// record into it instead of colliding.
		existing.FillMissingFrom(current)
		for _, id := range current.SourceEmailIDs {
			existing.AddSourceEmail(id)
		}
		upgraded = existing
	}

	upgraded.ApplyExtracted(in.Fields)
	upgraded.AddSourceEmail(in.Email.EmailID)
	upgraded.UpdatedAt = r.now()
	r.calc.Recompute(upgraded)

	if err := r.store.UpsertOrder(upgraded); err != nil {
		return nil, fmt.Errorf("persist order %s: %w", newKey, err)
	}
	if err := r.pointIndices(upgraded); err != nil {
		return nil, err
	}
	if err := r.store.DeleteOrder(current.OrderKey); err != nil {
		return nil, fmt.Errorf("delete temp order %s: %w", current.OrderKey, err)
	}
	return &Outcome{Action: ActionKeyUpgraded, Order: upgraded}, nil
}

// MergeOrders runs safe merge escalation: the order-id-keyed winner absorbs
// the tracking-keyed loser, which is dismissed (soft delete, kept for
// audit). Idempotent: a second invocation finds the loser dismissed and the
// tracking index already pointing at the winner, and changes nothing.
func (r *Resolver) MergeOrders(winnerKey, loserKey string) (*orders.Order, error) {
	if winnerKey == loserKey {
		o, err := r.store.GetOrder(winnerKey)
		if err != nil {
			return nil, fmt.Errorf("get order %s: %w", winnerKey, err)
		}
		return o, nil
	}

	unlock := r.locks.LockPair(winnerKey, loserKey)
	defer unlock()

	winner, err := r.store.GetOrder(winnerKey)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", winnerKey, err)
	}
	loser, err := r.store.GetOrder(loserKey)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", loserKey, err)
	}
	if winner == nil {
		return nil, nil
	}
	if loser == nil {
		return winner, nil
	}

	for _, id := range loser.SourceEmailIDs {
		winner.AddSourceEmail(id)
	}
	winner.FillMissingFrom(loser)
	winner.UpdatedAt = r.now()
	r.calc.Recompute(winner)

	if err := r.store.UpsertOrder(winner); err != nil {
		return nil, fmt.Errorf("persist winner %s: %w", winnerKey, err)
	}
	if loser.TrackingNumber != "" {
		if err := r.store.PointTrackingIndex(loser.TrackingNumber, winnerKey); err != nil {
			return nil, fmt.Errorf("repoint tracking index: %w", err)
		}
	}

	if loser.Status != orders.StatusDismissed {
		loser.Status = orders.StatusDismissed
		loser.UpdatedAt = r.now()
		if err := r.store.UpsertOrder(loser); err != nil {
			return nil, fmt.Errorf("persist loser %s: %w", loserKey, err)
		}
	}
	return winner, nil
}

// pointIndices keeps the primary-key indices aimed at this order.
func (r *Resolver) pointIndices(o *orders.Order) error {
	if o.OrderID != "" {
		if err := r.store.PointOrderIDIndex(o.OrderID, o.OrderKey); err != nil {
			return fmt.Errorf("point order id index: %w", err)
		}
	}
	if o.TrackingNumber != "" {
		if err := r.store.PointTrackingIndex(o.TrackingNumber, o.OrderKey); err != nil {
			return fmt.Errorf("point tracking index: %w", err)
		}
	}
	return nil
}
