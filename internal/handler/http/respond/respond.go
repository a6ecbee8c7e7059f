// Package respond writes JSON responses for the recommendation API and
// keeps internal detail out of client-facing error bodies.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorBody is the uniform error envelope of the API.
type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v as the response body with the given status code. A nil v
// writes only the status line and headers.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already written, so the failure can only be logged.
		slog.Default().Error("encode response failed",
			slog.Int("status", code),
			slog.String("error", err.Error()))
	}
}

// SafeError writes an error response. Client errors (4xx) carry the
// message as-is: handlers pass only validation and lookup failures with
// those codes. Server errors (5xx) return a generic body, with the
// sanitized detail logged instead.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	if code < http.StatusInternalServerError {
		JSON(w, code, errorBody{Error: err.Error()})
		return
	}
	slog.Default().Error("request failed",
		slog.Int("status", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, errorBody{Error: "internal server error"})
}
