package handler

import (
	"net/http"

	"pos-sales/internal/model"
	"pos-sales/internal/terminal"
)

// aboutResponse is the service descriptor terminals fetch at startup.
type aboutResponse struct {
	Name           string                `json:"name"`
	APIVersion     string                `json:"api_version"`
	PaymentMethods []model.PaymentMethod `json:"payment_methods"`
}

// handleAbout returns the service descriptor.
// GET /about
func (h *Handler) handleAbout(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, aboutResponse{
		Name:           "pos-sales",
		APIVersion:     terminal.APIVersion,
		PaymentMethods: model.PaymentMethods(),
	})
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}
