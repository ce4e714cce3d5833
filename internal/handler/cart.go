package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pos-sales/internal/checkout"
	"pos-sales/internal/model"
	"pos-sales/internal/terminal"
)

// openSessionResponse is the body for POST /sessions.
type openSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Open()
	if t := terminal.FromContext(r.Context()); t != nil {
		h.logger.Info("session opened by terminal",
			slog.String("session_id", s.ID),
			slog.String("register_id", t.ID))
	}
	h.writeJSON(w, http.StatusCreated, openSessionResponse{SessionID: s.ID})
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "sid")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.getSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var view model.CartView
	s.With(func(c *checkout.Coordinator) error {
		view = c.View()
		return nil
	})
	h.writeJSON(w, http.StatusOK, view)
}

// addItemRequest is the body for POST /sessions/{sid}/cart/items.
// Code is the raw cashier token; ProductID short-circuits resolution when
// the caller already picked a suggestion.
type addItemRequest struct {
	Code      string `json:"code"`
	ProductID int64  `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	s, err := h.getSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	var view model.CartView
	err = s.With(func(c *checkout.Coordinator) error {
		_, err := c.AddItem(r.Context(), checkout.AddItemInput{
			Code:       req.Code,
			ResolvedID: req.ProductID,
			Quantity:   req.Quantity,
		})
		if err != nil {
			return err
		}
		view = c.View()
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// updateItemRequest is the body for PUT /sessions/{sid}/cart/items/{pid}.
type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	s, err := h.getSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	pid, err := parseProductID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	var view model.CartView
	s.With(func(c *checkout.Coordinator) error {
		c.UpdateQuantity(pid, req.Quantity)
		view = c.View()
		return nil
	})
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	s, err := h.getSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	pid, err := parseProductID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var view model.CartView
	s.With(func(c *checkout.Coordinator) error {
		c.RemoveItem(pid)
		view = c.View()
		return nil
	})
	h.writeJSON(w, http.StatusOK, view)
}

func parseProductID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "pid")
	pid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || pid <= 0 {
		return 0, model.NewInvalidInputError("product_id", "must be a positive integer")
	}
	return pid, nil
}
