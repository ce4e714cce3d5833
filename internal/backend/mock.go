package backend

import (
	"context"

	"pos-sales/internal/model"
)

// Mock implements Service for testing.
// Each method can be configured via function fields; call counters track
// how many times each operation was invoked.
type Mock struct {
	GetProductFunc     func(ctx context.Context, productID int64) (*model.Product, error)
	SearchProductsFunc func(ctx context.Context, query string) ([]model.Product, error)
	SubmitCheckoutFunc func(ctx context.Context, req *model.CheckoutRequest) (*model.Receipt, error)

	GetProductCalls     int
	SearchProductsCalls int
	SubmitCheckoutCalls int
}

// GetProduct calls the configured GetProductFunc or reports not found.
func (m *Mock) GetProduct(ctx context.Context, productID int64) (*model.Product, error) {
	m.GetProductCalls++
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, productID)
	}
	return nil, model.NewProductNotFoundError(productID)
}

// SearchProducts calls the configured SearchProductsFunc or returns no matches.
func (m *Mock) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	m.SearchProductsCalls++
	if m.SearchProductsFunc != nil {
		return m.SearchProductsFunc(ctx, query)
	}
	return nil, nil
}

// SubmitCheckout calls the configured SubmitCheckoutFunc or returns an error.
func (m *Mock) SubmitCheckout(ctx context.Context, req *model.CheckoutRequest) (*model.Receipt, error) {
	m.SubmitCheckoutCalls++
	if m.SubmitCheckoutFunc != nil {
		return m.SubmitCheckoutFunc(ctx, req)
	}
	return nil, model.NewCheckoutFailedError("", nil)
}

// Verify Mock implements Service at compile time.
var _ Service = (*Mock)(nil)
