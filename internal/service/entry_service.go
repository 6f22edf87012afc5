package service

import (
	"context"
	"errors"
	"iter"
	"log/slog"

	"github.com/phrazzld/dream-diary/internal/domain"
	"github.com/phrazzld/dream-diary/internal/events"
	"github.com/phrazzld/dream-diary/internal/platform/logger"
	"github.com/phrazzld/dream-diary/internal/search"
	"github.com/phrazzld/dream-diary/internal/store"
)

// EntryService manages dreams and life events.
type EntryService interface {
	// Create validates fields and appends a new entry of kind.
	Create(ctx context.Context, kind domain.Kind, fields domain.EntryFields) (*domain.Entry, error)

	// Update replaces every editable field of an existing entry. The id,
	// kind, creation time and position are preserved.
	Update(ctx context.Context, kind domain.Kind, id int64, fields domain.EntryFields) (*domain.Entry, error)

	// Delete removes an entry and, before returning, every connection that
	// references it. Deleting an absent id is a no-op.
	Delete(ctx context.Context, kind domain.Kind, id int64) error

	// Get retrieves a single entry.
	Get(ctx context.Context, kind domain.Kind, id int64) (*domain.Entry, error)

	// List returns every entry of kind in insertion order.
	List(ctx context.Context, kind domain.Kind) ([]*domain.Entry, error)

	// Search returns the entries of kind whose title, content or tags
	// contain term, ignoring case. The sequence reads a snapshot taken at
	// call time and can be ranged over repeatedly.
	Search(ctx context.Context, kind domain.Kind, term string) (iter.Seq[*domain.Entry], error)
}

// entryServiceImpl implements the EntryService interface
type entryServiceImpl struct {
	entries store.EntryStore
	emitter events.EventEmitter
	ids     *domain.IDGenerator
	gate    *Gate
	now     Clock
	logger  *slog.Logger
}

// NewEntryService creates a new EntryService.
// It returns an error if any of the required dependencies are nil.
func NewEntryService(
	entries store.EntryStore,
	emitter events.EventEmitter,
	ids *domain.IDGenerator,
	gate *Gate,
	clock Clock,
	logger *slog.Logger,
) (EntryService, error) {
	if entries == nil {
		return nil, domain.NewValidationError("entries", "cannot be nil", domain.ErrValidation)
	}
	if emitter == nil {
		return nil, domain.NewValidationError("emitter", "cannot be nil", domain.ErrValidation)
	}
	if ids == nil {
		return nil, domain.NewValidationError("ids", "cannot be nil", domain.ErrValidation)
	}
	if gate == nil {
		return nil, domain.NewValidationError("gate", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &entryServiceImpl{
		entries: entries,
		emitter: emitter,
		ids:     ids,
		gate:    gate,
		now:     clockOrDefault(clock),
		logger:  logger.With(slog.String("component", "entry_service")),
	}, nil
}

const entryServiceName = "entry"

// Create implements EntryService.Create
func (s *entryServiceImpl) Create(
	ctx context.Context,
	kind domain.Kind,
	fields domain.EntryFields,
) (*domain.Entry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var created *domain.Entry
	err := s.gate.Run(ctx, func(ctx context.Context) error {
		entry, err := domain.NewEntry(kind, fields, s.now())
		if err != nil {
			log.Debug("entry validation failed",
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()))
			return NewServiceError(entryServiceName, "create", "invalid entry", err)
		}

		entry.ID = s.nextID(ctx, kind)
		err = s.entries.Create(ctx, entry)
		if err != nil && !store.IsPersistenceError(err) {
			log.Error("failed to create entry",
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()))
			return NewServiceError(entryServiceName, "create", "failed to store entry", err)
		}

		created = entry
		log.Info("entry created",
			slog.String("kind", string(kind)),
			slog.Int64("entry_id", entry.ID))
		if err != nil {
			return NewServiceError(entryServiceName, "create", "entry not saved durably", err)
		}
		return nil
	})
	return created, err
}

// nextID returns an id not yet used in the collection of kind.
func (s *entryServiceImpl) nextID(ctx context.Context, kind domain.Kind) int64 {
	for {
		id := s.ids.Next()
		if !s.entries.Exists(ctx, kind, id) {
			return id
		}
	}
}

// Update implements EntryService.Update
func (s *entryServiceImpl) Update(
	ctx context.Context,
	kind domain.Kind,
	id int64,
	fields domain.EntryFields,
) (*domain.Entry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Entry
	err := s.gate.Run(ctx, func(ctx context.Context) error {
		entry, err := s.entries.GetByID(ctx, kind, id)
		if err != nil {
			return NewServiceError(entryServiceName, "update", "failed to retrieve entry", err)
		}

		// Imported records may carry a missing or foreign type; the
		// collection the entry was found in decides.
		entry.Type = kind
		if err := entry.Replace(fields, s.now()); err != nil {
			log.Debug("entry validation failed",
				slog.String("kind", string(kind)),
				slog.Int64("entry_id", id),
				slog.String("error", err.Error()))
			return NewServiceError(entryServiceName, "update", "invalid entry", err)
		}

		err = s.entries.Update(ctx, entry)
		if err != nil && !store.IsPersistenceError(err) {
			return NewServiceError(entryServiceName, "update", "failed to store entry", err)
		}

		updated = entry
		log.Info("entry updated",
			slog.String("kind", string(kind)),
			slog.Int64("entry_id", id))
		if err != nil {
			return NewServiceError(entryServiceName, "update", "entry not saved durably", err)
		}
		return nil
	})
	return updated, err
}

// Delete implements EntryService.Delete
func (s *entryServiceImpl) Delete(ctx context.Context, kind domain.Kind, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !kind.Valid() {
		return NewServiceError(entryServiceName, "delete", "invalid kind",
			domain.NewValidationError("type", "must be dream or event", domain.ErrInvalidKind))
	}

	return s.gate.Run(ctx, func(ctx context.Context) error {
		removed, err := s.entries.Delete(ctx, kind, id)
		if err != nil && !store.IsPersistenceError(err) {
			return NewServiceError(entryServiceName, "delete", "failed to delete entry", err)
		}
		if !removed {
			log.Debug("entry already absent",
				slog.String("kind", string(kind)),
				slog.Int64("entry_id", id))
			return nil
		}
		persistErr := err

		event, err := events.NewEntryDeletedEvent(kind, id)
		if err != nil {
			return NewServiceError(entryServiceName, "delete", "failed to build event", err)
		}
		cascadeErr := s.emitter.EmitEvent(ctx, event)

		log.Info("entry deleted",
			slog.String("kind", string(kind)),
			slog.Int64("entry_id", id))

		if persistErr != nil || cascadeErr != nil {
			return NewServiceError(entryServiceName, "delete", "delete not fully applied",
				errors.Join(persistErr, cascadeErr))
		}
		return nil
	})
}

// Get implements EntryService.Get
func (s *entryServiceImpl) Get(ctx context.Context, kind domain.Kind, id int64) (*domain.Entry, error) {
	entry, err := s.entries.GetByID(ctx, kind, id)
	if err != nil {
		return nil, NewServiceError(entryServiceName, "get", "failed to retrieve entry", err)
	}
	return entry, nil
}

// List implements EntryService.List
func (s *entryServiceImpl) List(ctx context.Context, kind domain.Kind) ([]*domain.Entry, error) {
	entries, err := s.entries.List(ctx, kind)
	if err != nil {
		return nil, NewServiceError(entryServiceName, "list", "failed to list entries", err)
	}
	return entries, nil
}

// Search implements EntryService.Search
func (s *entryServiceImpl) Search(
	ctx context.Context,
	kind domain.Kind,
	term string,
) (iter.Seq[*domain.Entry], error) {
	entries, err := s.entries.List(ctx, kind)
	if err != nil {
		return nil, NewServiceError(entryServiceName, "search", "failed to list entries", err)
	}
	return search.Entries(entries, term), nil
}
