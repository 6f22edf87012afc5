package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/dream-diary/internal/domain"
	"github.com/phrazzld/dream-diary/internal/platform/logger"
	"github.com/phrazzld/dream-diary/internal/store"
)

// ConnectionStore implements store.ConnectionStore on a single slice.
type ConnectionStore struct {
	mu     sync.RWMutex
	kv     store.KVStore
	key    string
	conns  []*domain.Connection
	logger *slog.Logger
}

// NewConnectionStore creates an empty ConnectionStore persisting to kv
// under key.
func NewConnectionStore(kv store.KVStore, key string, logger *slog.Logger) *ConnectionStore {
	if kv == nil {
		panic("kv cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectionStore{
		kv:     kv,
		key:    key,
		conns:  []*domain.Connection{},
		logger: logger.With(slog.String("component", "connection_store")),
	}
}

// Ensure ConnectionStore implements store.ConnectionStore interface
var _ store.ConnectionStore = (*ConnectionStore)(nil)

// Load implements store.ConnectionStore.Load.
func (s *ConnectionStore) Load(ctx context.Context) error {
	conns, err := store.LoadCollection[domain.Connection](ctx, s.kv, s.key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conns = conns
	s.mu.Unlock()

	logger.FromContextOrDefault(ctx, s.logger).Info("connections loaded",
		slog.Int("connections", len(conns)))
	return nil
}

// Create implements store.ConnectionStore.Create.
func (s *ConnectionStore) Create(ctx context.Context, conn *domain.Connection) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := conn.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pair := conn.Pair()
	for _, c := range s.conns {
		if c.Pair() == pair {
			log.Debug("connection pair already exists",
				slog.Int64("dream_id", pair.DreamID),
				slog.Int64("life_event_id", pair.LifeEventID))
			return store.ErrDuplicateConnection
		}
	}
	for _, c := range s.conns {
		if c.ID == conn.ID {
			return store.NewStoreError("connections", "create",
				fmt.Sprintf("id %d already exists", conn.ID), store.ErrDuplicate)
		}
	}

	s.conns = append(s.conns, conn.Clone())
	log.Debug("connection created", slog.Int64("connection_id", conn.ID))
	return s.persist(ctx)
}

// GetByID implements store.ConnectionStore.GetByID.
func (s *ConnectionStore) GetByID(_ context.Context, id int64) (*domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.conns {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return nil, store.ErrConnectionNotFound
}

// Delete implements store.ConnectionStore.Delete.
func (s *ConnectionStore) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.removeWhere(func(c *domain.Connection) bool { return c.ID == id })
	if removed == 0 {
		return false, nil
	}
	return true, s.persist(ctx)
}

// DeleteByEntry implements store.ConnectionStore.DeleteByEntry.
func (s *ConnectionStore) DeleteByEntry(ctx context.Context, kind domain.Kind, entryID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.removeWhere(func(c *domain.Connection) bool { return c.References(kind, entryID) })
	if removed == 0 {
		return 0, nil
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("connections removed for entry",
		slog.String("kind", string(kind)),
		slog.Int64("entry_id", entryID),
		slog.Int("removed", removed))
	return removed, s.persist(ctx)
}

// List implements store.ConnectionStore.List.
func (s *ConnectionStore) List(_ context.Context) ([]*domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Connection, len(s.conns))
	for i, c := range s.conns {
		out[i] = c.Clone()
	}
	return out, nil
}

// Count implements store.ConnectionStore.Count.
func (s *ConnectionStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Replace implements store.ConnectionStore.Replace.
func (s *ConnectionStore) Replace(ctx context.Context, conns []*domain.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]*domain.Connection, 0, len(conns))
	for _, c := range conns {
		if c != nil {
			next = append(next, c.Clone())
		}
	}
	s.conns = next

	logger.FromContextOrDefault(ctx, s.logger).Info("connections replaced",
		slog.Int("count", len(next)))
	return s.persist(ctx)
}

// removeWhere drops matching connections and returns how many went.
// Callers hold s.mu for writing.
func (s *ConnectionStore) removeWhere(match func(*domain.Connection) bool) int {
	next := make([]*domain.Connection, 0, len(s.conns))
	for _, c := range s.conns {
		if !match(c) {
			next = append(next, c)
		}
	}
	removed := len(s.conns) - len(next)
	if removed > 0 {
		s.conns = next
	}
	return removed
}

func (s *ConnectionStore) persist(ctx context.Context) error {
	if err := store.SaveCollection(ctx, s.kv, s.key, s.conns); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to persist connections",
			slog.String("error", err.Error()))
		return store.NewPersistenceError("connections", err)
	}
	return nil
}
