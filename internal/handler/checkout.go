package handler

import (
	"log/slog"
	"net/http"

	"pos-sales/internal/checkout"
	"pos-sales/internal/model"
)

// suggestResponse is the body for GET /sessions/{sid}/suggest.
// Stale is true when a newer query superseded this one; stale responses
// carry no matches and must not be rendered.
type suggestResponse struct {
	Query   string          `json:"query"`
	Matches []model.Product `json:"matches"`
	Stale   bool            `json:"stale,omitempty"`
}

func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	s, err := h.getSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	query := r.URL.Query().Get("q")
	matches, current, err := s.Suggest(r.Context(), query)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if matches == nil {
		matches = []model.Product{}
	}
	h.writeJSON(w, http.StatusOK, suggestResponse{
		Query:   query,
		Matches: matches,
		Stale:   !current,
	})
}

// checkoutRequest is the body for POST /sessions/{sid}/checkout.
type checkoutRequest struct {
	PaymentMethod string `json:"payment_method,omitempty"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	s, err := h.getSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req checkoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.writeError(w, err)
			return
		}
	}

	var receipt *model.Receipt
	err = s.With(func(c *checkout.Coordinator) error {
		var err error
		receipt, err = c.Checkout(r.Context(), req.PaymentMethod)
		return err
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	if len(receipt.Warnings) > 0 {
		h.logger.Warn("checkout completed with warnings",
			slog.Int64("transaction_id", receipt.TransactionID),
			slog.Any("warnings", receipt.Warnings))
	}

	h.writeJSON(w, http.StatusOK, receipt)
}

// cancelRequest is the body for POST /sessions/{sid}/cancel.
// Confirm distinguishes the operator's second press from the first.
type cancelRequest struct {
	Confirm bool `json:"confirm"`
}

// cancelResponse reports what the cancel attempt did.
type cancelResponse struct {
	Outcome string         `json:"outcome"`
	Cart    model.CartView `json:"cart"`
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	s, err := h.getSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req cancelRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.writeError(w, err)
			return
		}
	}

	var outcome checkout.CancelOutcome
	var view model.CartView
	s.With(func(c *checkout.Coordinator) error {
		outcome = c.Cancel(req.Confirm)
		view = c.View()
		return nil
	})

	h.writeJSON(w, http.StatusOK, cancelResponse{
		Outcome: string(outcome),
		Cart:    view,
	})
}
