package prompts

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/triage/pkg/repository"
)

var (
	ErrNotFound             = errors.New("prompt not found")
	ErrDuplicate            = errors.New("prompt name already exists")
	ErrInvalidStage         = errors.New("stage must be classify, answer, or judge")
	ErrNameRequired         = errors.New("prompt name is required")
	ErrInstructionsRequired = errors.New("prompt instructions are required")
)

// MapHTTPStatus maps prompt errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidStage),
		errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrInstructionsRequired):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotMigrated):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
