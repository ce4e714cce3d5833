package posapi

import "pos-sales/internal/model"

// Wire types for the sales backend API. Amounts travel as decimal JSON
// numbers (major units) and are converted to cents at this boundary.

// wireProduct is a catalog record as served by the product and search
// endpoints.
type wireProduct struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

func (p wireProduct) toModel() model.Product {
	return model.Product{
		ID:       p.ProductID,
		Name:     p.Name,
		Price:    model.CentsFromFloat(p.Price),
		Quantity: p.Quantity,
	}
}

// wireCheckoutRequest is the POST /checkout payload.
type wireCheckoutRequest struct {
	Items         []wireItemRef `json:"items"`
	PaymentMethod string        `json:"payment_method"`
}

type wireItemRef struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// wireReceipt is the POST /checkout success payload. The backend also folds
// errors into an otherwise-200 body on some paths, hence the Error fields.
type wireReceipt struct {
	TransactionID int64          `json:"transaction_id"`
	Items         []wireLineItem `json:"items"`
	TotalAmount   float64        `json:"total_amount"`
	PaymentMethod string         `json:"payment_method"`
	Timestamp     string         `json:"timestamp"`
	Warnings      []string       `json:"warnings"`

	QRPayload   string `json:"qr_payload"`
	QRPNGBase64 string `json:"qr_png_base64"`
	ExpiresIn   int    `json:"expires_in"`

	Error  string `json:"error"`
	Detail string `json:"detail"`
}

type wireLineItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

func (r *wireReceipt) toModel() *model.Receipt {
	receipt := &model.Receipt{
		TransactionID: r.TransactionID,
		TotalAmount:   model.CentsFromFloat(r.TotalAmount),
		PaymentMethod: model.PaymentMethod(r.PaymentMethod),
		Timestamp:     r.Timestamp,
		Warnings:      r.Warnings,
		QRPayload:     r.QRPayload,
		QRPNGBase64:   r.QRPNGBase64,
		ExpiresIn:     r.ExpiresIn,
	}
	for _, li := range r.Items {
		receipt.Items = append(receipt.Items, model.LineSummary{
			ProductID: li.ProductID,
			Name:      li.Name,
			UnitPrice: model.CentsFromFloat(li.UnitPrice),
			Quantity:  li.Quantity,
			LineTotal: model.CentsFromFloat(li.LineTotal),
		})
	}
	return receipt
}

// wireError is the backend's error payload shape: {"error": code, "detail": msg}.
type wireError struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}
