package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups when no entity exists for the given
// owner and id. It is a normal outcome, not a failure; store adapters must
// translate their driver's no-rows condition into it.
var ErrNotFound = errors.New("not found")

// ValidationError rejects a write before any persistence side effect.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) ValidationError {
	return ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error (including wrapped errors)
func IsValidationError(err error) bool {
	var validationErr ValidationError
	return errors.As(err, &validationErr)
}
