// Package linker matches incoming emails to existing orders by exact
// primary-key lookup. Fuzzy matching is deliberately out of scope; the only
// accepted evidence is an equal order ID or tracking number.
package linker

import (
	"fmt"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/storage"
)

// MatchKind says which primary key produced a link.
type MatchKind string

const (
	MatchOrderID  MatchKind = "order_id"
	MatchTracking MatchKind = "tracking_number"
)

// Match is the result of a lookup. Linked is false when neither key resolves
// to an existing order; that is the normal case for the first email of an
// order, not an error.
type Match struct {
	Linked    bool
	Order     *orders.Order
	MatchedBy MatchKind

	// Both orders when order_id and tracking_number resolve to two
	// different records; the resolver escalates this to a merge.
	ByOrderID  *orders.Order
	ByTracking *orders.Order
}

// Conflicting reports whether the two keys resolved to different orders.
func (m *Match) Conflicting() bool {
	return m.ByOrderID != nil && m.ByTracking != nil &&
		m.ByOrderID.OrderKey != m.ByTracking.OrderKey
}

// Linker resolves extracted primary keys against the store.
type Linker struct {
	store storage.Store
}

func New(store storage.Store) *Linker {
	return &Linker{store: store}
}

// Lookup resolves the extracted keys. When both keys are present and both
// resolve, the order_id match wins; the tracking match is still reported so
// the caller can detect a conflict.
func (l *Linker) Lookup(fields *orders.ExtractedFields) (*Match, error) {
	m := &Match{}
	if fields == nil {
		return m, nil
	}

	if fields.OrderID != "" {
		o, err := l.store.FindOrderByOrderID(fields.OrderID)
		if err != nil {
			return nil, fmt.Errorf("lookup by order id: %w", err)
		}
		m.ByOrderID = o
	}
	if fields.TrackingNumber != "" {
		o, err := l.store.FindOrderByTracking(fields.TrackingNumber)
		if err != nil {
			return nil, fmt.Errorf("lookup by tracking number: %w", err)
		}
		m.ByTracking = o
	}

	switch {
	case m.ByOrderID != nil:
		m.Linked = true
		m.Order = m.ByOrderID
		m.MatchedBy = MatchOrderID
	case m.ByTracking != nil:
		m.Linked = true
		m.Order = m.ByTracking
		m.MatchedBy = MatchTracking
	}
	return m, nil
}
