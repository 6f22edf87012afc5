package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/phrazzld/dream-diary/internal/platform/logger"
)

// KVStore is the durable key-value boundary. Each key holds one JSON blob.
// It is the only component that touches storage.
type KVStore interface {
	// Load returns the blob stored under key, or (nil, nil) when the key
	// has never been written.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the blob stored under key.
	Save(ctx context.Context, key string, data []byte) error

	// Close releases any underlying resources.
	Close() error
}

// DefaultKeyPrefix namespaces the collection keys.
const DefaultKeyPrefix = "dreamDiary_"

// Keys names the blob of each collection.
type Keys struct {
	Dreams      string
	Events      string
	Connections string
}

// NewKeys builds the collection keys under prefix.
func NewKeys(prefix string) Keys {
	return Keys{
		Dreams:      prefix + "dreams",
		Events:      prefix + "events",
		Connections: prefix + "connections",
	}
}

// LoadCollection reads a JSON array of records stored under key. A missing
// or unreadable blob yields an empty collection; only a failing KVStore
// read is returned as an error.
func LoadCollection[T any](ctx context.Context, kv KVStore, key string) ([]*T, error) {
	log := logger.FromContext(ctx)

	data, err := kv.Load(ctx, key)
	if err != nil {
		return nil, NewStoreError(key, "load", "failed to read collection", err)
	}
	if len(data) == 0 {
		log.Debug("collection not found, starting empty", slog.String("key", key))
		return []*T{}, nil
	}

	var records []*T
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn("collection unreadable, starting empty",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return []*T{}, nil
	}

	out := records[:0]
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// SaveCollection writes records as a JSON array under key.
func SaveCollection[T any](ctx context.Context, kv KVStore, key string, records []*T) error {
	if records == nil {
		records = []*T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return NewStoreError(key, "save", "failed to encode collection", err)
	}
	if err := kv.Save(ctx, key, data); err != nil {
		return NewStoreError(key, "save", "failed to write collection", err)
	}
	return nil
}

// MemoryKVStore keeps blobs in a map. It backs tests and the "memory"
// storage driver.
type MemoryKVStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryKVStore creates an empty in-memory KVStore.
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{blobs: make(map[string][]byte)}
}

// Ensure MemoryKVStore implements KVStore interface
var _ KVStore = (*MemoryKVStore)(nil)

// Load implements KVStore.Load.
func (m *MemoryKVStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// Save implements KVStore.Save.
func (m *MemoryKVStore) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

// Close implements KVStore.Close.
func (m *MemoryKVStore) Close() error {
	return nil
}
