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

// EntryStore implements store.EntryStore with two slices, one per kind.
type EntryStore struct {
	mu     sync.RWMutex
	kv     store.KVStore
	keys   store.Keys
	dreams []*domain.Entry
	events []*domain.Entry
	logger *slog.Logger
}

// NewEntryStore creates an empty EntryStore persisting to kv under keys.
// Call Load to populate it from durable storage.
// If logger is nil, a default logger will be used.
func NewEntryStore(kv store.KVStore, keys store.Keys, logger *slog.Logger) *EntryStore {
	if kv == nil {
		panic("kv cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EntryStore{
		kv:     kv,
		keys:   keys,
		dreams: []*domain.Entry{},
		events: []*domain.Entry{},
		logger: logger.With(slog.String("component", "entry_store")),
	}
}

// Ensure EntryStore implements store.EntryStore interface
var _ store.EntryStore = (*EntryStore)(nil)

// Load implements store.EntryStore.Load.
func (s *EntryStore) Load(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	dreams, err := store.LoadCollection[domain.Entry](ctx, s.kv, s.keys.Dreams)
	if err != nil {
		return err
	}
	events, err := store.LoadCollection[domain.Entry](ctx, s.kv, s.keys.Events)
	if err != nil {
		return err
	}
	fillKind(dreams, domain.KindDream)
	fillKind(events, domain.KindEvent)

	s.mu.Lock()
	s.dreams = dreams
	s.events = events
	s.mu.Unlock()

	log.Info("entries loaded",
		slog.Int("dreams", len(dreams)),
		slog.Int("events", len(events)))
	return nil
}

// fillKind sets the discriminator on records written without one.
func fillKind(entries []*domain.Entry, kind domain.Kind) {
	for _, e := range entries {
		if e.Type == "" {
			e.Type = kind
		}
	}
}

// Create implements store.EntryStore.Create.
func (s *EntryStore) Create(ctx context.Context, entry *domain.Entry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, err := s.collection(entry.Type)
	if err != nil {
		return err
	}
	if indexOf(*coll, entry.ID) >= 0 {
		log.Warn("entry id already taken",
			slog.String("kind", string(entry.Type)),
			slog.Int64("entry_id", entry.ID))
		return store.NewStoreError(collectionName(entry.Type), "create",
			fmt.Sprintf("id %d already exists", entry.ID), store.ErrDuplicate)
	}

	*coll = append(*coll, entry.Clone())
	log.Debug("entry created",
		slog.String("kind", string(entry.Type)),
		slog.Int64("entry_id", entry.ID))
	return s.persist(ctx, entry.Type)
}

// GetByID implements store.EntryStore.GetByID.
func (s *EntryStore) GetByID(_ context.Context, kind domain.Kind, id int64) (*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, err := s.collection(kind)
	if err != nil {
		return nil, err
	}
	i := indexOf(*coll, id)
	if i < 0 {
		return nil, store.ErrEntryNotFound
	}
	return (*coll)[i].Clone(), nil
}

// Update implements store.EntryStore.Update.
func (s *EntryStore) Update(ctx context.Context, entry *domain.Entry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, err := s.collection(entry.Type)
	if err != nil {
		return err
	}
	replaced := 0
	for i, e := range *coll {
		if e.ID == entry.ID {
			(*coll)[i] = entry.Clone()
			replaced++
		}
	}
	if replaced == 0 {
		log.Debug("entry not found for update",
			slog.String("kind", string(entry.Type)),
			slog.Int64("entry_id", entry.ID))
		return store.ErrEntryNotFound
	}
	return s.persist(ctx, entry.Type)
}

// Delete implements store.EntryStore.Delete.
func (s *EntryStore) Delete(ctx context.Context, kind domain.Kind, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, err := s.collection(kind)
	if err != nil {
		return false, err
	}
	if removeWhere(coll, func(e *domain.Entry) bool { return e.ID == id }) == 0 {
		return false, nil
	}
	return true, s.persist(ctx, kind)
}

// List implements store.EntryStore.List.
func (s *EntryStore) List(_ context.Context, kind domain.Kind) ([]*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, err := s.collection(kind)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Entry, len(*coll))
	for i, e := range *coll {
		out[i] = e.Clone()
	}
	return out, nil
}

// Exists implements store.EntryStore.Exists.
func (s *EntryStore) Exists(_ context.Context, kind domain.Kind, id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, err := s.collection(kind)
	if err != nil {
		return false
	}
	return indexOf(*coll, id) >= 0
}

// Count implements store.EntryStore.Count.
func (s *EntryStore) Count(_ context.Context, kind domain.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, err := s.collection(kind)
	if err != nil {
		return 0
	}
	return len(*coll)
}

// Replace implements store.EntryStore.Replace.
func (s *EntryStore) Replace(ctx context.Context, kind domain.Kind, entries []*domain.Entry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, err := s.collection(kind)
	if err != nil {
		return err
	}
	next := make([]*domain.Entry, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			next = append(next, e.Clone())
		}
	}
	fillKind(next, kind)
	*coll = next

	log.Info("collection replaced",
		slog.String("kind", string(kind)),
		slog.Int("count", len(next)))
	return s.persist(ctx, kind)
}

// collection returns the slice holding kind. Callers hold s.mu.
func (s *EntryStore) collection(kind domain.Kind) (*[]*domain.Entry, error) {
	switch kind {
	case domain.KindDream:
		return &s.dreams, nil
	case domain.KindEvent:
		return &s.events, nil
	default:
		return nil, domain.NewValidationError("type", "must be dream or event", domain.ErrInvalidKind)
	}
}

// persist writes the collection of kind through to the KVStore. Callers
// hold s.mu for writing, which keeps durable writes in mutation order.
func (s *EntryStore) persist(ctx context.Context, kind domain.Kind) error {
	key := s.keys.Dreams
	records := s.dreams
	if kind == domain.KindEvent {
		key = s.keys.Events
		records = s.events
	}

	if err := store.SaveCollection(ctx, s.kv, key, records); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to persist entries",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
		return store.NewPersistenceError(collectionName(kind), err)
	}
	return nil
}

func collectionName(kind domain.Kind) string {
	if kind == domain.KindEvent {
		return "events"
	}
	return "dreams"
}

// removeWhere drops every matching entry from coll and returns how many
// went. Callers hold s.mu for writing.
func removeWhere(coll *[]*domain.Entry, match func(*domain.Entry) bool) int {
	next := make([]*domain.Entry, 0, len(*coll))
	for _, e := range *coll {
		if !match(e) {
			next = append(next, e)
		}
	}
	removed := len(*coll) - len(next)
	if removed > 0 {
		*coll = next
	}
	return removed
}

func indexOf(entries []*domain.Entry, id int64) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
