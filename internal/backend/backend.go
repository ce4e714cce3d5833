// Package backend defines the interface to the external sales service.
// The core calls these three operations and nothing else; the service owns
// the product catalog, stock enforcement, and transaction recording.
package backend

import (
	"context"

	"pos-sales/internal/model"
)

// Service abstracts the sales backend operations the core depends on.
//
// All methods return domain-model values with money already converted to
// cents. Wire-format and error-payload handling is encapsulated within each
// implementation.
type Service interface {
	// GetProduct fetches the full product record for a resolved identifier.
	// Returns an error wrapping model.ErrNotFound if the product does not
	// exist server-side.
	GetProduct(ctx context.Context, productID int64) (*model.Product, error)

	// SearchProducts returns products matching a free-text query, in the
	// backend's preference order. An empty query yields an empty result.
	SearchProducts(ctx context.Context, query string) ([]model.Product, error)

	// SubmitCheckout submits the finalized cart as a single transaction.
	// There is no retry: the call either succeeds once or fails, and the
	// caller leaves its cart untouched on failure. A receipt with warnings
	// is still a success.
	SubmitCheckout(ctx context.Context, req *model.CheckoutRequest) (*model.Receipt, error)
}
