package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every entity and the layers above them.
var (
	// ErrNotFound marks a lookup that matched nothing.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput marks caller-supplied data that cannot be used.
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed marks an entity that failed its own checks.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError carries the failing field alongside the reason, so
// handlers can report which part of the payload to fix.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
