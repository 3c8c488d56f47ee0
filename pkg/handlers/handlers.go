// Package handlers holds the JSON response and request helpers shared by every
// HTTP handler in the service.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// DefaultBodyLimit caps JSON request bodies decoded through DecodeJSON.
const DefaultBodyLimit = 1 << 20

// ErrInvalidBody is returned by DecodeJSON for empty, oversized, or malformed bodies.
var ErrInvalidBody = errors.New("invalid request body")

// RespondJSON writes data as a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs err and writes {"error": err.Error()} with the given status.
// Server-side failures log at error level; client errors at warn.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("handler error", "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}
	RespondJSON(w, status, map[string]string{"error": err.Error()})
}

// DecodeJSON decodes a JSON request body into T, rejecting unknown fields and
// bodies larger than DefaultBodyLimit.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T

	r.Body = http.MaxBytesReader(w, r.Body, DefaultBodyLimit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, fmt.Errorf("%w: empty body", ErrInvalidBody)
		}
		return v, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return v, nil
}
