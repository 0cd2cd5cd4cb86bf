package orders

// SetIfAbsent assigns src to dst only when dst is currently nil.
// This is the single first-write-wins rule applied field by field:
// once a value is observed it is never overwritten.
func SetIfAbsent[T any](dst **T, src *T) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}

// SetIfAbsentString assigns src to dst only when dst is currently empty.
func SetIfAbsentString(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}

// FillMissingFrom copies evidence fields from other into o wherever o's
// value is absent. Used by merge escalation (winner absorbs the loser) and
// by display-time backfill. Identity fields and provenance are not touched.
func (o *Order) FillMissingFrom(other *Order) {
	SetIfAbsent(&o.PurchaseDate, other.PurchaseDate)
	SetIfAbsent(&o.ShipDate, other.ShipDate)
	SetIfAbsent(&o.DeliveryDate, other.DeliveryDate)
	SetIfAbsent(&o.EstimatedDelivery, other.EstimatedDelivery)
	SetIfAbsent(&o.ReturnWindowDays, other.ReturnWindowDays)
	SetIfAbsent(&o.ExplicitReturnBy, other.ExplicitReturnBy)
	SetIfAbsent(&o.Amount, other.Amount)
	SetIfAbsentString(&o.TrackingNumber, other.TrackingNumber)
	SetIfAbsentString(&o.Currency, other.Currency)
	SetIfAbsentString(&o.ReturnPortalLink, other.ReturnPortalLink)
	if o.ItemSummary == "" || o.ItemSummary == UnknownItemSummary {
		if other.ItemSummary != "" && other.ItemSummary != UnknownItemSummary {
			o.ItemSummary = other.ItemSummary
		}
	}
}

// ApplyExtracted merges an email's extracted fields into the order under the
// first-write-wins rule. The primary identifiers are included: an order that
// was keyed by tracking number can gain an order ID here (the key upgrade
// itself is the resolver's job).
func (o *Order) ApplyExtracted(f *ExtractedFields) {
	if f == nil {
		return
	}
	SetIfAbsentString(&o.OrderID, f.OrderID)
	SetIfAbsentString(&o.TrackingNumber, f.TrackingNumber)
	SetIfAbsent(&o.PurchaseDate, f.PurchaseDate)
	SetIfAbsent(&o.ShipDate, f.ShipDate)
	SetIfAbsent(&o.DeliveryDate, f.DeliveryDate)
	SetIfAbsent(&o.EstimatedDelivery, f.EstimatedDelivery)
	SetIfAbsent(&o.ExplicitReturnBy, f.ExplicitReturnBy)
	SetIfAbsent(&o.ReturnWindowDays, f.ReturnWindowDays)
	SetIfAbsent(&o.Amount, f.Amount)
	SetIfAbsentString(&o.Currency, f.Currency)
	SetIfAbsentString(&o.ReturnPortalLink, f.ReturnPortalLink)
	if o.ItemSummary == "" || o.ItemSummary == UnknownItemSummary {
		if f.ItemSummary != "" {
			o.ItemSummary = f.ItemSummary
		}
	}
}
