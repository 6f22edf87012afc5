package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// It is usually wrapped in a *ValidationError naming the offending field.
	ErrValidation = errors.New("validation failed")

	// ErrParse is returned when an import document is not well-formed.
	ErrParse = errors.New("malformed document")

	// ErrInvalidKind is returned when an entry kind is neither dream nor event.
	ErrInvalidKind = errors.New("invalid entry kind")

	// ErrInvalidMood is returned when a mood is outside the fixed enumeration.
	ErrInvalidMood = errors.New("invalid mood")

	// ErrInvalidDate is returned when a date is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidTime is returned when a clock time is not in HH:MM form.
	ErrInvalidTime = errors.New("invalid time")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Err != nil && e.Err != ErrValidation {
		return fmt.Sprintf("%s %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrValidation) match every ValidationError,
// whatever more specific cause it wraps.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// ParseError wraps a decoding failure of an import document.
type ParseError struct {
	Err error
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrParse, e.Err)
}

// Unwrap returns ErrParse and the underlying decoder error.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}
