package ingest

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/triage/internal/retrieval"
	"github.com/JaimeStill/triage/pkg/storage"
)

var (
	ErrUnsupported  = errors.New("unsupported file type")
	ErrInvalidPDF   = errors.New("invalid pdf")
	ErrEmptyText    = errors.New("document has no extractable text")
	ErrInvalidFile  = errors.New("invalid file upload")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus maps ingestion errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrInvalidPDF),
		errors.Is(err, ErrEmptyText),
		errors.Is(err, ErrInvalidFile),
		errors.Is(err, retrieval.ErrInvalidCollection),
		errors.Is(err, storage.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, retrieval.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
