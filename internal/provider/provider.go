// Package provider talks to the payment provider's REST API.
package provider

import (
	"context"
	"errors"
)

var ErrOrderLookup = errors.New("provider order lookup failed")

// OrderMetadata carries the internal identifiers attached to a provider
// order at checkout time.
type OrderMetadata struct {
	OrderID string
	UserID  string
}

// OrdersAPI retrieves checkout metadata for a provider order.
type OrdersAPI interface {
	RetrieveOrderMetadata(ctx context.Context, providerOrderID string) (*OrderMetadata, error)
}
