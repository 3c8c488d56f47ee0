package answers

import (
	"errors"
	"net/http"
)

var ErrQuestionRequired = errors.New("question is required")

// MapHTTPStatus maps answer errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrQuestionRequired) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
