package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrPersistence is returned when the in-memory mutation succeeded but
	// the durable write did not. The session keeps the new state.
	ErrPersistence = errors.New("persistence failed")

	// Entity-specific "not found" errors

	// ErrEntryNotFound indicates that the requested dream or life event does not exist.
	ErrEntryNotFound = fmt.Errorf("%w: entry", ErrNotFound)

	// ErrConnectionNotFound indicates that the requested connection does not exist.
	ErrConnectionNotFound = fmt.Errorf("%w: connection", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrDuplicateConnection indicates that a connection with the same
	// dream and life event already exists.
	ErrDuplicateConnection = fmt.Errorf("%w: connection", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsPersistenceError checks if the error only reports a failed durable write.
func IsPersistenceError(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "dreams", "connections")
	Operation string // The operation that failed (e.g., "save", "load")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// NewPersistenceError wraps a failed durable write of a collection so that
// errors.Is(err, ErrPersistence) holds.
func NewPersistenceError(collection string, err error) *StoreError {
	return NewStoreError(collection, "save", "changes kept in memory only",
		errors.Join(ErrPersistence, err))
}
