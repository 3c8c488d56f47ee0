package interactions

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/triage/pkg/repository"
)

var (
	ErrNotFound  = errors.New("interaction not found")
	ErrDuplicate = errors.New("interaction already exists")
)

// MapHTTPStatus maps interaction errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrNotMigrated):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
