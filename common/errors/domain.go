// Package errors defines the typed failure modes shared across the lending
// engine. Every failure here is locally recoverable: callers re-invoke the
// originating action with corrected input.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoData signals an empty import result: the store stays empty and every
// derived view degrades to zero/empty. Callers may retry the import.
var ErrNoData = errors.New("no borrower data available")

// ErrNotFound signals a lookup miss on a verification, document or borrower
var ErrNotFound = errors.New("record not found")

// TransitionError reports an invalid state-machine transition. The state is
// left unchanged; the attempted action is a no-op.
type TransitionError struct {
	Entity string // e.g. "verification", "document"
	ID     string
	From   string
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot %s from state %q", e.Entity, e.ID, e.Action, e.From)
}

// ValidationError reports missing or malformed required input. The action
// fails before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidation builds a ValidationError for a single field
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsTransition reports whether err is a TransitionError
func IsTransition(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// HTTPStatus maps a domain error to the status code the read-only API
// responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoData):
		return http.StatusUnprocessableEntity
	case IsValidation(err):
		return http.StatusUnprocessableEntity
	case IsTransition(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
