package store

import (
	"context"

	"github.com/phrazzld/dream-diary/internal/domain"
)

// ConnectionStore defines the interface for connection persistence.
// It enforces (dreamId, lifeEventId) uniqueness but does not look entries
// up; referential checks belong to the orchestrating service.
type ConnectionStore interface {
	// Load replaces the in-memory collection with the durable one.
	Load(ctx context.Context) error

	// Create appends a validated connection.
	// Returns ErrDuplicateConnection if the pair already exists; the store
	// is unchanged in that case.
	Create(ctx context.Context, conn *domain.Connection) error

	// GetByID retrieves a connection.
	// Returns ErrConnectionNotFound if it does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Connection, error)

	// Delete removes a connection. A missing id is not an error.
	Delete(ctx context.Context, id int64) (bool, error)

	// DeleteByEntry removes every connection referencing the entry and
	// returns how many were removed.
	DeleteByEntry(ctx context.Context, kind domain.Kind, entryID int64) (int, error)

	// List returns a snapshot of the collection in insertion order.
	List(ctx context.Context) ([]*domain.Connection, error)

	// Count returns the size of the collection.
	Count(ctx context.Context) int

	// Replace swaps the whole collection, used by import.
	Replace(ctx context.Context, conns []*domain.Connection) error
}
