package store

import (
	"context"

	"github.com/phrazzld/dream-diary/internal/domain"
)

// EntryStore defines the interface for dream and life-event persistence.
// Dreams and life events live in two independent collections selected by
// kind; ids are unique within a collection only. Implementations keep
// insertion order and write the affected collection through to durable
// storage after every mutation.
//
// Mutating methods may return a non-nil result together with an error
// wrapping ErrPersistence: the in-memory change happened, the durable write
// did not.
type EntryStore interface {
	// Load replaces the in-memory collections with the durable ones.
	Load(ctx context.Context) error

	// Create appends a validated entry to the collection of its kind.
	// Returns ErrDuplicate if the id is already taken in that collection.
	Create(ctx context.Context, entry *domain.Entry) error

	// GetByID retrieves an entry by kind and id.
	// Returns ErrEntryNotFound if the entry does not exist.
	GetByID(ctx context.Context, kind domain.Kind, id int64) (*domain.Entry, error)

	// Update replaces every stored entry with the same kind and id, keeping
	// their positions in the collection.
	// Returns ErrEntryNotFound if the entry does not exist.
	Update(ctx context.Context, entry *domain.Entry) error

	// Delete removes every entry of kind with the id. It reports whether
	// anything was removed; a missing id is not an error.
	Delete(ctx context.Context, kind domain.Kind, id int64) (bool, error)

	// List returns a snapshot of the collection in insertion order.
	List(ctx context.Context, kind domain.Kind) ([]*domain.Entry, error)

	// Exists reports whether an entry with the id is in the collection.
	Exists(ctx context.Context, kind domain.Kind, id int64) bool

	// Count returns the size of the collection.
	Count(ctx context.Context, kind domain.Kind) int

	// Replace swaps the whole collection, used by import. No validation
	// is performed; records without a type take kind.
	Replace(ctx context.Context, kind domain.Kind, entries []*domain.Entry) error
}
