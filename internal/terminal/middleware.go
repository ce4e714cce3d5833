package terminal

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// infoKey stores the parsed terminal Info in the request context.
var infoKey = contextKey{}

// Middleware parses and validates the POS-Terminal header. The header is
// optional: bare requests pass through anonymously, but a header that is
// present must parse and carry a compatible version. Parsed terminal info
// is stored in the request context for handlers and logs.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get(Header)
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			info, err := ParseHeader(header)
			if err != nil {
				logger.Warn("invalid POS-Terminal header",
					slog.String("header", header),
					slog.String("error", err.Error()))
				writeTerminalError(w, "invalid_terminal_header", err.Error())
				return
			}

			if err := CheckVersion(info.Version); err != nil {
				logger.Warn("incompatible terminal version",
					slog.String("register_id", info.ID),
					slog.String("version", info.Version))
				writeTerminalError(w, "incompatible_terminal_version", err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), infoKey, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext retrieves the terminal info, or nil when the request did
// not identify a terminal.
func FromContext(ctx context.Context) *Info {
	v := ctx.Value(infoKey)
	if v == nil {
		return nil
	}
	return v.(*Info)
}

// isExemptPath returns true for infrastructure paths that never carry
// register identity.
func isExemptPath(path string) bool {
	switch path {
	case "/health", "/healthz", "/about", "/mcp":
		return true
	default:
		return false
	}
}

// writeTerminalError writes an error in the service's standard envelope.
func writeTerminalError(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	resp := struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{}
	resp.Error.Code = code
	resp.Error.Message = message

	json.NewEncoder(w).Encode(resp)
}
