package storage

import (
	"sort"
	"sync"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

// MemoryStore is the in-memory Store used by tests and dry runs. Orders are
// stored as deep copies so callers can never mutate stored state without an
// explicit upsert.
type MemoryStore struct {
	mu             sync.RWMutex
	ordersByKey    map[string]*orders.Order
	orderIDIndex   map[string]string // order_id -> order_key
	trackingIndex  map[string]string // tracking_number -> order_key
	processedIDs   map[string]bool
	orderEmails    map[string]*orders.OrderEmail
	orderEmailSeq  []string // insertion order for ListOrderEmails
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ordersByKey:   make(map[string]*orders.Order),
		orderIDIndex:  make(map[string]string),
		trackingIndex: make(map[string]string),
		processedIDs:  make(map[string]bool),
		orderEmails:   make(map[string]*orders.OrderEmail),
	}
}

func (s *MemoryStore) GetOrder(key string) (*orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.ordersByKey[key]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

func (s *MemoryStore) UpsertOrder(o *orders.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ordersByKey[o.OrderKey] = o.Clone()
	return nil
}

func (s *MemoryStore) DeleteOrder(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ordersByKey, key)
	return nil
}

func (s *MemoryStore) GetAllOrders() ([]*orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.ordersByKey))
	for key := range s.ordersByKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	all := make([]*orders.Order, 0, len(keys))
	for _, key := range keys {
		all = append(all, s.ordersByKey[key].Clone())
	}
	return all, nil
}

func (s *MemoryStore) FindOrderByOrderID(orderID string) (*orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.orderIDIndex[orderID]
	if !ok {
		return nil, nil
	}
	o, ok := s.ordersByKey[key]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

func (s *MemoryStore) FindOrderByTracking(trackingNumber string) (*orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.trackingIndex[trackingNumber]
	if !ok {
		return nil, nil
	}
	o, ok := s.ordersByKey[key]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

func (s *MemoryStore) FindOrdersByThread(threadID, merchantDomain string) ([]*orders.Order, error) {
	if threadID == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Orders that contain any email from this thread at this merchant.
	emailThread := make(map[string]bool)
	for _, e := range s.orderEmails {
		if e.ThreadID == threadID {
			emailThread[e.EmailID] = true
		}
	}

	var matched []*orders.Order
	keys := make([]string, 0, len(s.ordersByKey))
	for key := range s.ordersByKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		o := s.ordersByKey[key]
		if o.MerchantDomain != merchantDomain {
			continue
		}
		for _, id := range o.SourceEmailIDs {
			if emailThread[id] {
				matched = append(matched, o.Clone())
				break
			}
		}
	}
	return matched, nil
}

func (s *MemoryStore) PointOrderIDIndex(orderID, orderKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderIDIndex[orderID] = orderKey
	return nil
}

func (s *MemoryStore) PointTrackingIndex(trackingNumber, orderKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackingIndex[trackingNumber] = orderKey
	return nil
}

func (s *MemoryStore) MarkEmailProcessed(emailID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processedIDs[emailID] = true
	return nil
}

func (s *MemoryStore) IsEmailProcessed(emailID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processedIDs[emailID], nil
}

func (s *MemoryStore) StoreOrderEmail(e *orders.OrderEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orderEmails[e.EmailID]; !exists {
		s.orderEmailSeq = append(s.orderEmailSeq, e.EmailID)
	}
	copied := *e
	s.orderEmails[e.EmailID] = &copied
	return nil
}

func (s *MemoryStore) GetOrderEmail(emailID string) (*orders.OrderEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.orderEmails[emailID]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (s *MemoryStore) ListOrderEmails(limit int) ([]*orders.OrderEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*orders.OrderEmail
	for i := len(s.orderEmailSeq) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		e := s.orderEmails[s.orderEmailSeq[i]]
		copied := *e
		out = append(out, &copied)
	}
	return out, nil
}
