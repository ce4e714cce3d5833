// Package model defines the domain types shared across the POS sales core:
// products, cart lines, checkout requests, and receipts. All money amounts
// are int64 cents; conversion to and from the backend's decimal format
// happens at the client boundary.
package model

import "fmt"

// Product is a catalog record as returned by the backend lookup and search
// endpoints. Quantity is the stock level at lookup time; the cart ignores it
// and the backend re-checks stock at submission.
type Product struct {
	ID       int64  `json:"product_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"` // cents
	Quantity int    `json:"quantity,omitempty"`
}

// LineItem is one distinct product's presence in the active cart.
// Name and UnitPrice are captured at add time and are not re-fetched;
// a backend price change affects only lines added afterwards.
type LineItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"` // cents, captured at add time
	Quantity  int    `json:"quantity"`   // always >= 1
}

// LineTotal returns UnitPrice × Quantity in cents.
func (li LineItem) LineTotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// CartView is the read model the rendering layer consumes after every
// mutating call: ordered lines plus the recomputed total.
type CartView struct {
	Items []LineItem `json:"items"`
	Total int64      `json:"total"` // cents
}

// ItemRef identifies a product and quantity in a checkout submission.
type ItemRef struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CheckoutRequest is the ephemeral value object built from the cart at
// submission time. Constructed fresh per attempt, never persisted.
type CheckoutRequest struct {
	Items         []ItemRef     `json:"items"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// LineSummary is one settled line in a receipt, echoing the backend's
// per-line pricing.
type LineSummary struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"` // cents
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"` // cents
}

// Receipt is the backend's confirmation of a completed checkout.
// Warnings are informational only (e.g., low stock after the sale) and never
// indicate a failure. The QR fields are populated only for qr payments.
type Receipt struct {
	TransactionID int64         `json:"transaction_id"`
	Items         []LineSummary `json:"items,omitempty"`
	TotalAmount   int64         `json:"total_amount"` // cents
	PaymentMethod PaymentMethod `json:"payment_method"`
	Timestamp     string        `json:"timestamp,omitempty"`
	Warnings      []string      `json:"warnings,omitempty"`

	// QR payment attachments, passed through from the backend as-is.
	QRPayload   string `json:"qr_payload,omitempty"`
	QRPNGBase64 string `json:"qr_png_base64,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"` // seconds
}

// PaymentMethod tags how a sale is settled.
type PaymentMethod string

// Payment methods accepted by the backend.
const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCredit PaymentMethod = "credit"
	PaymentQR     PaymentMethod = "qr"
	PaymentWallet PaymentMethod = "wallet"
)

// PaymentMethods lists the accepted methods in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentCash, PaymentCredit, PaymentQR, PaymentWallet}
}

// NormalizePaymentMethod validates a user-supplied method tag.
// Empty input defaults to cash; unknown methods are an invalid-input
// condition raised before any network call.
func NormalizePaymentMethod(raw string) (PaymentMethod, error) {
	if raw == "" {
		return PaymentCash, nil
	}
	switch m := PaymentMethod(raw); m {
	case PaymentCash, PaymentCredit, PaymentQR, PaymentWallet:
		return m, nil
	default:
		return "", NewInvalidInputError("payment_method",
			fmt.Sprintf("%q is not one of cash, credit, qr, wallet", raw))
	}
}
