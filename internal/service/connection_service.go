package service

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/phrazzld/dream-diary/internal/domain"
	"github.com/phrazzld/dream-diary/internal/events"
	"github.com/phrazzld/dream-diary/internal/platform/logger"
	"github.com/phrazzld/dream-diary/internal/search"
	"github.com/phrazzld/dream-diary/internal/store"
)

// ConnectionService manages links between dreams and life events.
type ConnectionService interface {
	// Create links an existing dream to an existing life event. Both ids
	// must be set and resolve to live entries, and the pair must be new.
	Create(ctx context.Context, dreamID, lifeEventID int64, notes string) (*domain.Connection, error)

	// Delete removes a connection. Deleting an absent id is a no-op.
	Delete(ctx context.Context, id int64) error

	// Get returns a connection with both of its entries. A connection
	// whose dream or life event is gone is reported as not found.
	Get(ctx context.Context, id int64) (*domain.ResolvedConnection, error)

	// List returns every resolvable connection in insertion order.
	List(ctx context.Context) ([]*domain.ResolvedConnection, error)

	// Search returns the resolvable connections whose dream title or
	// content, life event title or content, or notes contain term.
	Search(ctx context.Context, term string) (iter.Seq[*domain.ResolvedConnection], error)

	// Resolve looks up both ends of conn. ok is false when either is missing.
	Resolve(ctx context.Context, conn *domain.Connection) (dream, lifeEvent *domain.Entry, ok bool)

	// HandleEvent removes the connections of a deleted entry. It runs
	// inside the deleting operation and does not take the gate itself.
	events.EventHandler
}

// connectionServiceImpl implements the ConnectionService interface
type connectionServiceImpl struct {
	conns   store.ConnectionStore
	entries store.EntryStore
	ids     *domain.IDGenerator
	gate    *Gate
	now     Clock
	logger  *slog.Logger
}

// NewConnectionService creates a new ConnectionService.
// It returns an error if any of the required dependencies are nil.
func NewConnectionService(
	conns store.ConnectionStore,
	entries store.EntryStore,
	ids *domain.IDGenerator,
	gate *Gate,
	clock Clock,
	logger *slog.Logger,
) (ConnectionService, error) {
	if conns == nil {
		return nil, domain.NewValidationError("conns", "cannot be nil", domain.ErrValidation)
	}
	if entries == nil {
		return nil, domain.NewValidationError("entries", "cannot be nil", domain.ErrValidation)
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

	return &connectionServiceImpl{
		conns:   conns,
		entries: entries,
		ids:     ids,
		gate:    gate,
		now:     clockOrDefault(clock),
		logger:  logger.With(slog.String("component", "connection_service")),
	}, nil
}

const connectionServiceName = "connection"

// Create implements ConnectionService.Create
func (s *connectionServiceImpl) Create(
	ctx context.Context,
	dreamID, lifeEventID int64,
	notes string,
) (*domain.Connection, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var created *domain.Connection
	err := s.gate.Run(ctx, func(ctx context.Context) error {
		conn, err := domain.NewConnection(dreamID, lifeEventID, notes, s.now())
		if err != nil {
			return NewServiceError(connectionServiceName, "create", "invalid connection", err)
		}

		if !s.entries.Exists(ctx, domain.KindDream, dreamID) {
			return NewServiceError(connectionServiceName, "create",
				fmt.Sprintf("dream %d does not exist", dreamID), store.ErrEntryNotFound)
		}
		if !s.entries.Exists(ctx, domain.KindEvent, lifeEventID) {
			return NewServiceError(connectionServiceName, "create",
				fmt.Sprintf("life event %d does not exist", lifeEventID), store.ErrEntryNotFound)
		}

		conn.ID = s.nextID(ctx)
		err = s.conns.Create(ctx, conn)
		if err != nil && !store.IsPersistenceError(err) {
			log.Debug("connection rejected",
				slog.Int64("dream_id", dreamID),
				slog.Int64("life_event_id", lifeEventID),
				slog.String("error", err.Error()))
			return NewServiceError(connectionServiceName, "create", "failed to store connection", err)
		}

		created = conn
		log.Info("connection created",
			slog.Int64("connection_id", conn.ID),
			slog.Int64("dream_id", dreamID),
			slog.Int64("life_event_id", lifeEventID))
		if err != nil {
			return NewServiceError(connectionServiceName, "create", "connection not saved durably", err)
		}
		return nil
	})
	return created, err
}

func (s *connectionServiceImpl) nextID(ctx context.Context) int64 {
	for {
		id := s.ids.Next()
		if _, err := s.conns.GetByID(ctx, id); err != nil {
			return id
		}
	}
}

// Delete implements ConnectionService.Delete
func (s *connectionServiceImpl) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	return s.gate.Run(ctx, func(ctx context.Context) error {
		removed, err := s.conns.Delete(ctx, id)
		if removed {
			log.Info("connection deleted", slog.Int64("connection_id", id))
		}
		if err != nil {
			return NewServiceError(connectionServiceName, "delete", "failed to delete connection", err)
		}
		return nil
	})
}

// Get implements ConnectionService.Get
func (s *connectionServiceImpl) Get(ctx context.Context, id int64) (*domain.ResolvedConnection, error) {
	conn, err := s.conns.GetByID(ctx, id)
	if err != nil {
		return nil, NewServiceError(connectionServiceName, "get", "failed to retrieve connection", err)
	}
	dream, event, ok := s.Resolve(ctx, conn)
	if !ok {
		return nil, NewServiceError(connectionServiceName, "get",
			"connection references a missing entry", store.ErrConnectionNotFound)
	}
	return &domain.ResolvedConnection{Connection: conn, Dream: dream, LifeEvent: event}, nil
}

// List implements ConnectionService.List
func (s *connectionServiceImpl) List(ctx context.Context) ([]*domain.ResolvedConnection, error) {
	seq, err := s.Search(ctx, "")
	if err != nil {
		return nil, err
	}
	out := []*domain.ResolvedConnection{}
	for rc := range seq {
		out = append(out, rc)
	}
	return out, nil
}

// Search implements ConnectionService.Search
func (s *connectionServiceImpl) Search(
	ctx context.Context,
	term string,
) (iter.Seq[*domain.ResolvedConnection], error) {
	conns, err := s.conns.List(ctx)
	if err != nil {
		return nil, NewServiceError(connectionServiceName, "search", "failed to list connections", err)
	}
	dreams, err := s.entries.List(ctx, domain.KindDream)
	if err != nil {
		return nil, NewServiceError(connectionServiceName, "search", "failed to list dreams", err)
	}
	lifeEvents, err := s.entries.List(ctx, domain.KindEvent)
	if err != nil {
		return nil, NewServiceError(connectionServiceName, "search", "failed to list life events", err)
	}

	dreamByID := indexEntries(dreams)
	eventByID := indexEntries(lifeEvents)
	m := search.Compile(term)

	return func(yield func(*domain.ResolvedConnection) bool) {
		for _, c := range conns {
			dream, okDream := dreamByID[c.DreamID]
			event, okEvent := eventByID[c.LifeEventID]
			if !okDream || !okEvent {
				continue
			}
			if !m.Match(dream.Title, dream.Content, event.Title, event.Content, c.Notes) {
				continue
			}
			if !yield(&domain.ResolvedConnection{Connection: c, Dream: dream, LifeEvent: event}) {
				return
			}
		}
	}, nil
}

func indexEntries(entries []*domain.Entry) map[int64]*domain.Entry {
	byID := make(map[int64]*domain.Entry, len(entries))
	for _, e := range entries {
		if _, seen := byID[e.ID]; !seen {
			byID[e.ID] = e
		}
	}
	return byID
}

// Resolve implements ConnectionService.Resolve
func (s *connectionServiceImpl) Resolve(
	ctx context.Context,
	conn *domain.Connection,
) (*domain.Entry, *domain.Entry, bool) {
	if conn == nil {
		return nil, nil, false
	}
	dream, err := s.entries.GetByID(ctx, domain.KindDream, conn.DreamID)
	if err != nil {
		return nil, nil, false
	}
	event, err := s.entries.GetByID(ctx, domain.KindEvent, conn.LifeEventID)
	if err != nil {
		return nil, nil, false
	}
	return dream, event, true
}

// HandleEvent implements events.EventHandler
func (s *connectionServiceImpl) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeEntryDeleted {
		return nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	var payload events.EntryDeletedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return NewServiceError(connectionServiceName, "cascade", "invalid event payload", err)
	}

	removed, err := s.conns.DeleteByEntry(ctx, payload.Kind, payload.EntryID)
	if removed > 0 {
		log.Info("removed connections of deleted entry",
			slog.String("kind", string(payload.Kind)),
			slog.Int64("entry_id", payload.EntryID),
			slog.Int("removed", removed))
	}
	if err != nil {
		return NewServiceError(connectionServiceName, "cascade", "failed to remove connections", err)
	}
	return nil
}
