// Package handler provides the HTTP and MCP surface of the POS service.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pos-sales/internal/backend"
	"pos-sales/internal/model"
	"pos-sales/internal/session"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	sessions *session.Registry
	svc      backend.Service
	logger   *slog.Logger
}

// New creates a Handler over the given session registry and backend.
func New(sessions *session.Registry, svc backend.Service, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		svc:      svc,
		logger:   logger,
	}
}

// Routes builds the service router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/about", h.handleAbout)
	r.Get("/health", h.handleHealth)
	r.Get("/healthz", h.handleHealth)

	r.Post("/sessions", h.handleOpenSession)
	r.Route("/sessions/{sid}", func(r chi.Router) {
		r.Delete("/", h.handleCloseSession)
		r.Get("/cart", h.handleGetCart)
		r.Post("/cart/items", h.handleAddItem)
		r.Put("/cart/items/{pid}", h.handleUpdateItem)
		r.Delete("/cart/items/{pid}", h.handleRemoveItem)
		r.Get("/suggest", h.handleSuggest)
		r.Post("/checkout", h.handleCheckout)
		r.Post("/cancel", h.handleCancel)
	})

	// MCP transport for agent clients
	r.Handle("/mcp", h.NewMCPHandler())

	return r
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if errors.As(err, &apiErr) {
		// Found APIError in error chain - use it
	} else {
		// Wrap unexpected errors
		apiErr = model.NewInternalError(err)
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewInvalidInputError("body", "invalid JSON")
	}
	return nil
}

// getSession resolves the {sid} path parameter to a live session.
func (h *Handler) getSession(r *http.Request) (*session.Session, error) {
	return h.sessions.Get(chi.URLParam(r, "sid"))
}
