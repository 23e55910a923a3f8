package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an id does not resolve inside the caller's scope.
	// Cross-tenant lookups report this instead of ErrForbidden.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller's role or membership does not allow the mutation
	ErrForbidden = errors.New("not allowed to update this task")
)

// ValidationError rejects a request before anything is persisted
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalidf builds a ValidationError
func Invalidf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err wraps a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
