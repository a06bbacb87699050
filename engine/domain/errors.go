package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation failures.
var (
	ErrUnknownSource  = errors.New("unknown source type")
	ErrMissingID      = errors.New("missing document id")
	ErrMissingSiteID  = errors.New("missing site id")
	ErrMissingTxHash  = errors.New("missing transaction hash")
	ErrNegativeCount  = errors.New("negative count")
	ErrEmptyHash      = errors.New("empty address")
	ErrBadImportance  = errors.New("importance out of range")
	ErrEmptyEmbedText = errors.New("empty embedding text")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
