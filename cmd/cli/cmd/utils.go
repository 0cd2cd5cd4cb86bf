package cmd

import (
	"fmt"
	"strings"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

// validateOrderKey checks that the argument looks like an order key.
func validateOrderKey(arg string) (string, error) {
	key := strings.TrimSpace(arg)
	if key == "" {
		return "", fmt.Errorf("order key cannot be empty")
	}
	if !strings.Contains(key, ":") {
		return "", fmt.Errorf("invalid order key '%s': expected merchant:identifier", arg)
	}
	return key, nil
}

// parseStatus maps a user-supplied status name to an order status.
func parseStatus(arg string) (orders.OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "active", "keep":
		return orders.StatusActive, nil
	case "returned":
		return orders.StatusReturned, nil
	case "cancelled", "canceled":
		return orders.StatusCancelled, nil
	case "dismissed", "hidden":
		return orders.StatusDismissed, nil
	default:
		return "", fmt.Errorf("invalid status '%s': must be one of active, returned, cancelled, dismissed", arg)
	}
}
