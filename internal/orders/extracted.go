package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtractedFields is the rule-extraction payload for a single email. It is
// produced by the extractor and consumed by the resolver; every field is
// optional and a nil/empty value means the email did not contain it.
type ExtractedFields struct {
	OrderID        string `json:"order_id,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Carrier        string `json:"carrier,omitempty"`

	PurchaseDate      *time.Time `json:"purchase_date,omitempty"`
	ShipDate          *time.Time `json:"ship_date,omitempty"`
	DeliveryDate      *time.Time `json:"delivery_date,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	ExplicitReturnBy  *time.Time `json:"explicit_return_by,omitempty"`

	ReturnWindowDays *int             `json:"return_window_days,omitempty"`
	Amount           *decimal.Decimal `json:"amount,omitempty"`
	Currency         string           `json:"currency,omitempty"`
	ReturnPortalLink string           `json:"return_portal_link,omitempty"`
	ItemSummary      string           `json:"item_summary,omitempty"`

	HasReturnAnchors bool `json:"has_return_anchors"`
	IsFinalSale      bool `json:"is_final_sale"`
}

// HasPrimaryKey reports whether the email carries at least one identifier
// eligible to key or merge an order.
func (f *ExtractedFields) HasPrimaryKey() bool {
	return f.OrderID != "" || f.TrackingNumber != ""
}
