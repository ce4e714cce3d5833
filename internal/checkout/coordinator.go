// Package checkout orchestrates the add-item, payment, and cancel flows of
// a sale. The Coordinator resolves user-entered tokens to exactly one
// backend product, is the cart store's only writer, and interprets backend
// checkout results back into user-facing outcomes.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"pos-sales/internal/backend"
	"pos-sales/internal/cart"
	"pos-sales/internal/model"
)

// Coordinator drives one sale against one cart store.
// Not safe for concurrent use; the owning session serializes triggers so at
// most one mutating flow runs at a time.
type Coordinator struct {
	cart   *cart.Store
	svc    backend.Service
	logger *slog.Logger
}

// New creates a coordinator owning the given cart store.
func New(c *cart.Store, svc backend.Service, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		cart:   c,
		svc:    svc,
		logger: logger,
	}
}

// AddItemInput carries one add-item trigger.
// ResolvedID, when positive, is a product id the user already picked from a
// suggestion list; it short-circuits resolution of Code.
type AddItemInput struct {
	Code       string // raw user token: numeric id or free text
	ResolvedID int64  // prior suggestion selection, 0 if none
	Quantity   int    // non-positive defaults to 1
}

// AddItem resolves the input to exactly one product and merges it into the
// cart. On any failure the cart is unchanged; a line is never partially
// added.
func (c *Coordinator) AddItem(ctx context.Context, in AddItemInput) (model.LineItem, error) {
	productID, err := c.resolve(ctx, in)
	if err != nil {
		return model.LineItem{}, err
	}

	product, err := c.svc.GetProduct(ctx, productID)
	if err != nil {
		return model.LineItem{}, err
	}

	qty := in.Quantity
	if qty < 1 {
		qty = 1
	}

	line := c.cart.AddOrMerge(product.ID, product.Name, product.Price, qty)

	c.logger.Info("item added",
		slog.Int64("product_id", product.ID),
		slog.Int("quantity", qty),
		slog.Int("line_quantity", line.Quantity),
		slog.Int64("cart_total", c.cart.Total()),
	)
	return line, nil
}

// resolve converts the user-entered token into a single product identifier.
//
// Order of attempts:
//  1. A prior suggestion selection is used directly, skipping re-resolution.
//  2. A token that is syntactically a non-negative integer is the id itself.
//  3. Otherwise a free-text search must yield exactly one match; zero or
//     several matches tell the caller to disambiguate rather than guess.
func (c *Coordinator) resolve(ctx context.Context, in AddItemInput) (int64, error) {
	if in.ResolvedID > 0 {
		return in.ResolvedID, nil
	}

	token := strings.TrimSpace(in.Code)
	if token == "" {
		return 0, model.NewInvalidInputError("code", "product code or name required")
	}

	if id, err := strconv.ParseInt(token, 10, 64); err == nil && id >= 0 {
		return id, nil
	}

	matches, err := c.svc.SearchProducts(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("searching products: %w", err)
	}
	if len(matches) != 1 {
		return 0, model.NewAmbiguousError(token, len(matches))
	}
	return matches[0].ID, nil
}

// UpdateQuantity replaces a line's quantity; a non-positive quantity removes
// the line. Missing ids are a silent no-op, matching the store contract.
func (c *Coordinator) UpdateQuantity(productID int64, quantity int) {
	c.cart.SetQuantity(productID, quantity)
}

// RemoveItem deletes a line if present.
func (c *Coordinator) RemoveItem(productID int64) {
	c.cart.Remove(productID)
}

// View returns the current cart read model.
func (c *Coordinator) View() model.CartView {
	return c.cart.View()
}

// Checkout submits the current cart as a single transaction.
//
// An empty cart is rejected before any network call. On success the receipt
// is returned and the cart cleared; warnings on the receipt are informational
// and never cause rollback. On failure the cart is left completely untouched
// and the backend detail, when available, is surfaced. There is no retry.
func (c *Coordinator) Checkout(ctx context.Context, paymentMethod string) (*model.Receipt, error) {
	if c.cart.Len() == 0 {
		return nil, model.NewEmptyCartError()
	}

	method, err := model.NormalizePaymentMethod(paymentMethod)
	if err != nil {
		return nil, err
	}

	// Snapshot the cart at submission time; the request is ephemeral and
	// rebuilt per attempt.
	lines := c.cart.Items()
	req := &model.CheckoutRequest{
		Items:         make([]model.ItemRef, len(lines)),
		PaymentMethod: method,
	}
	for i, li := range lines {
		req.Items[i] = model.ItemRef{ProductID: li.ProductID, Quantity: li.Quantity}
	}

	receipt, err := c.svc.SubmitCheckout(ctx, req)
	if err != nil {
		// Cart stays exactly as it was; the user retries manually.
		return nil, err
	}

	c.cart.Clear()

	c.logger.Info("checkout complete",
		slog.Int64("transaction_id", receipt.TransactionID),
		slog.Int64("total_amount", receipt.TotalAmount),
		slog.String("payment_method", string(receipt.PaymentMethod)),
		slog.Int("warnings", len(receipt.Warnings)),
	)
	return receipt, nil
}

// CancelOutcome reports what a cancel trigger did.
type CancelOutcome string

const (
	// CancelNoop: the cart was already empty, nothing to cancel.
	CancelNoop CancelOutcome = "noop"
	// CancelDeclined: confirmation was withheld, cart unchanged.
	CancelDeclined CancelOutcome = "declined"
	// CancelCleared: the sale was cancelled and the cart emptied.
	CancelCleared CancelOutcome = "cleared"
)

// Cancel clears the cart if, and only if, it has lines and the caller
// confirmed. All-or-nothing: there is no partial cancellation.
func (c *Coordinator) Cancel(confirmed bool) CancelOutcome {
	if c.cart.Len() == 0 {
		return CancelNoop
	}
	if !confirmed {
		return CancelDeclined
	}
	c.cart.Clear()
	c.logger.Info("sale cancelled")
	return CancelCleared
}
