package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// StatusRecorder wraps a ResponseWriter and remembers the status code written.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

// NewStatusRecorder wraps w with a recorder defaulting to 200.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (s *StatusRecorder) WriteHeader(code int) {
	s.Status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (s *StatusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Logger returns middleware that logs each request's method, path, status and duration.
// Query strings are left out of the log line since they may carry user text.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := NewStatusRecorder(w)
			next.ServeHTTP(rec, r)
			logger.InfoContext(
				r.Context(),
				"request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.Status,
				"addr", r.RemoteAddr,
				"duration", time.Since(start),
			)
		})
	}
}
