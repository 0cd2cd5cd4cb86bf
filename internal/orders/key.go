package orders

import "strings"

// Order keys are derived, never random. Priority:
//
//	(merchant_domain, order_id)          -> "domain:orderID"
//	(merchant_domain, tracking_number)   -> "domain:tracking:number"
//	(user_id, email_id)                  -> "user:temp:emailID"
//
// Temp keys exist only so an order can be shown before a primary key is
// known; the resolver upgrades them as soon as one appears.

const (
	trackingKeySegment = ":tracking:"
	tempKeySegment     = ":temp:"
)

// KeyFromOrderID derives the canonical key for an order-number-keyed order.
func KeyFromOrderID(merchantDomain, orderID string) string {
	return merchantDomain + ":" + orderID
}

// KeyFromTracking derives the key for a tracking-number-keyed order.
func KeyFromTracking(merchantDomain, trackingNumber string) string {
	return merchantDomain + trackingKeySegment + trackingNumber
}

// TempKey derives a provisional key for an order with no primary key yet.
func TempKey(userID, emailID string) string {
	return userID + tempKeySegment + emailID
}

// IsTempKey reports whether a key is provisional.
func IsTempKey(key string) bool {
	return strings.Contains(key, tempKeySegment)
}

// IsTrackingKey reports whether a key was derived from a tracking number.
func IsTrackingKey(key string) bool {
	return strings.Contains(key, trackingKeySegment)
}

// DeriveKey computes the best available key for the given identifiers,
// in priority order: order ID, tracking number, temp.
func DeriveKey(userID, merchantDomain, orderID, trackingNumber, emailID string) string {
	switch {
	case orderID != "":
		return KeyFromOrderID(merchantDomain, orderID)
	case trackingNumber != "":
		return KeyFromTracking(merchantDomain, trackingNumber)
	default:
		return TempKey(userID, emailID)
	}
}
