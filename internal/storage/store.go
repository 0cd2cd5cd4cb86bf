// Package storage defines the keyed order store the engine is written
// against, plus the SQLite and in-memory implementations.
//
// Lookup misses return (nil, nil): absence is an expected outcome, not an
// error. All mutation goes through the resolver and lifecycle engine, which
// serialize access per order key with a KeyLock.
package storage

import (
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

// Store is the abstract keyed storage interface.
type Store interface {
	// GetOrder returns the order stored under key, or nil when absent.
	GetOrder(key string) (*orders.Order, error)

	// UpsertOrder stores the order under its OrderKey.
	UpsertOrder(o *orders.Order) error

	// DeleteOrder removes the order stored under key. Deleting an absent
	// key is a no-op. Used only for temp-key upgrades; real orders are
	// soft-deleted via status.
	DeleteOrder(key string) error

	// GetAllOrders returns every stored order, any status.
	GetAllOrders() ([]*orders.Order, error)

	// FindOrderByOrderID resolves the order-id index, or nil when the ID
	// is unknown.
	FindOrderByOrderID(orderID string) (*orders.Order, error)

	// FindOrderByTracking resolves the tracking-number index, or nil.
	FindOrderByTracking(trackingNumber string) (*orders.Order, error)

	// FindOrdersByThread returns orders that have seen an email in the
	// given conversation thread at the given merchant.
	FindOrdersByThread(threadID, merchantDomain string) ([]*orders.Order, error)

	// PointOrderIDIndex points the order-id index entry at orderKey.
	PointOrderIDIndex(orderID, orderKey string) error

	// PointTrackingIndex points the tracking index entry at orderKey.
	// Merge escalation uses this to re-point the loser's tracking number
	// at the winner.
	PointTrackingIndex(trackingNumber, orderKey string) error

	// MarkEmailProcessed records an email ID in the idempotency set.
	MarkEmailProcessed(emailID string) error

	// IsEmailProcessed reports whether an email ID was already processed.
	IsEmailProcessed(emailID string) (bool, error)

	// StoreOrderEmail persists the per-email processing record.
	StoreOrderEmail(e *orders.OrderEmail) error

	// GetOrderEmail returns a processing record, or nil when absent.
	GetOrderEmail(emailID string) (*orders.OrderEmail, error)

	// ListOrderEmails returns the most recent processing records, newest
	// first, up to limit (0 means no limit).
	ListOrderEmails(limit int) ([]*orders.OrderEmail, error)
}
