package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order record.
type OrderStatus string

const (
	StatusActive    OrderStatus = "active"
	StatusReturned  OrderStatus = "returned"
	StatusDismissed OrderStatus = "dismissed"
	StatusCancelled OrderStatus = "cancelled"
)

// DeadlineConfidence describes how a return-by date was derived.
type DeadlineConfidence string

const (
	ConfidenceExact     DeadlineConfidence = "exact"
	ConfidenceEstimated DeadlineConfidence = "estimated"
	ConfidenceUnknown   DeadlineConfidence = "unknown"
)

// Rank orders confidence tiers so callers can assert monotonicity.
// Higher is better: unknown < estimated < exact.
func (c DeadlineConfidence) Rank() int {
	switch c {
	case ConfidenceExact:
		return 2
	case ConfidenceEstimated:
		return 1
	default:
		return 0
	}
}

// EmailType is the lifecycle classification assigned to a processed email.
type EmailType string

const (
	EmailTypeConfirmation EmailType = "confirmation"
	EmailTypeShipping     EmailType = "shipping"
	EmailTypeDelivery     EmailType = "delivery"
	EmailTypeOther        EmailType = "other"
)

// UnknownItemSummary is the placeholder used when no item description could
// be extracted. Merge escalation treats it as an absent value.
const UnknownItemSummary = "Unknown item"

// Order is the canonical record of one real-world purchase.
//
// Optional fields use pointers (dates, window, amount) or the empty string
// (identifiers, links); absence means the field has never been observed.
// Fields are only ever added, never retracted.
type Order struct {
	OrderKey       string `json:"order_key"`
	UserID         string `json:"user_id"`
	MerchantDomain string `json:"merchant_domain"`
	MerchantName   string `json:"merchant_name"`

	OrderID        string `json:"order_id,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`

	PurchaseDate      *time.Time `json:"purchase_date,omitempty"`
	ShipDate          *time.Time `json:"ship_date,omitempty"`
	DeliveryDate      *time.Time `json:"delivery_date,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`

	ReturnWindowDays   *int               `json:"return_window_days,omitempty"`
	ExplicitReturnBy   *time.Time         `json:"explicit_return_by,omitempty"`
	ReturnByDate       *time.Time         `json:"return_by_date,omitempty"`
	DeadlineConfidence DeadlineConfidence `json:"deadline_confidence"`

	ItemSummary      string           `json:"item_summary"`
	Amount           *decimal.Decimal `json:"amount,omitempty"`
	Currency         string           `json:"currency"`
	ReturnPortalLink string           `json:"return_portal_link,omitempty"`

	SourceEmailIDs []string `json:"source_email_ids"`

	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// AddSourceEmail appends an email ID to the provenance set.
// Returns false if the ID was already present.
func (o *Order) AddSourceEmail(emailID string) bool {
	for _, id := range o.SourceEmailIDs {
		if id == emailID {
			return false
		}
	}
	o.SourceEmailIDs = append(o.SourceEmailIDs, emailID)
	return true
}

// HasSourceEmail reports whether an email ID is already attached.
func (o *Order) HasSourceEmail(emailID string) bool {
	for _, id := range o.SourceEmailIDs {
		if id == emailID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Display-time grouping works on clones so that
// backfilled fields never leak into the store.
func (o *Order) Clone() *Order {
	c := *o
	c.SourceEmailIDs = append([]string(nil), o.SourceEmailIDs...)
	c.PurchaseDate = cloneTime(o.PurchaseDate)
	c.ShipDate = cloneTime(o.ShipDate)
	c.DeliveryDate = cloneTime(o.DeliveryDate)
	c.EstimatedDelivery = cloneTime(o.EstimatedDelivery)
	c.ExplicitReturnBy = cloneTime(o.ExplicitReturnBy)
	c.ReturnByDate = cloneTime(o.ReturnByDate)
	if o.ReturnWindowDays != nil {
		days := *o.ReturnWindowDays
		c.ReturnWindowDays = &days
	}
	if o.Amount != nil {
		amt := *o.Amount
		c.Amount = &amt
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// OrderEmail is the immutable per-email processing record.
type OrderEmail struct {
	EmailID        string           `json:"email_id"`
	ThreadID       string           `json:"thread_id,omitempty"`
	UserID         string           `json:"user_id"`
	ReceivedAt     time.Time        `json:"received_at"`
	MerchantDomain string           `json:"merchant_domain"`
	EmailType      EmailType        `json:"email_type"`
	Blocked        bool             `json:"blocked"`
	BlockReason    string           `json:"block_reason,omitempty"`
	Processed      bool             `json:"processed"`
	Extracted      *ExtractedFields `json:"extracted,omitempty"`
}
