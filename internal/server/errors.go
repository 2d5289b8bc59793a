// Package server provides the HTTP REST API for the expert matching
// engine.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/daniel/expert-match/internal/admission"
	"github.com/daniel/expert-match/internal/matching"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var v *ErrValidation
	switch {
	case errors.As(err, &v):
		return http.StatusBadRequest
	case errors.Is(err, matching.ErrInvalidCaseID):
		return http.StatusBadRequest
	case errors.Is(err, matching.ErrCaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, admission.ErrInterrupted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
