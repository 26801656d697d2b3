package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a church-scoped record does not exist.
var ErrNotFound = errors.New("church: not found")

// ErrAlreadyReviewed is returned when deciding an application that is no longer open.
var ErrAlreadyReviewed = errors.New("church: application already reviewed")

// ValidationError is a form error shown next to the form.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("church: invalid %s: %s", e.Field, e.Message)
}

// Invalid returns a *ValidationError.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// AsValidationError unwraps err to a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
