// Package sqlite implements store.KVStore on a single SQLite table.
//
// The schema is managed by goose with migrations embedded in the binary.
// The database is driven through database/sql by the ncruces WebAssembly
// build of SQLite, so no cgo toolchain is required.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/phrazzld/dream-diary/internal/platform/logger"
	"github.com/phrazzld/dream-diary/internal/store"
)

const driverName = "sqlite3"

// KVStore implements store.KVStore with one row per key.
type KVStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure KVStore implements store.KVStore interface
var _ store.KVStore = (*KVStore)(nil)

// OpenDB opens the SQLite database file at path without migrating it.
func OpenDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers, which SQLite needs anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Open opens the database at path, applies pending migrations and returns
// a ready KVStore. If logger is nil, a default logger will be used.
func Open(ctx context.Context, path string, logger *slog.Logger) (*KVStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := OpenDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, MigrateUp, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewKVStore(db, logger), nil
}

// NewKVStore wraps an already migrated database.
func NewKVStore(db *sql.DB, logger *slog.Logger) *KVStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KVStore{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_kv_store")),
	}
}

// DB exposes the underlying handle for migration commands.
func (s *KVStore) DB() *sql.DB {
	return s.db
}

// Load implements store.KVStore.Load.
func (s *KVStore) Load(ctx context.Context, key string) ([]byte, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to load key",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, nil
}

// Save implements store.KVStore.Save.
func (s *KVStore) Save(ctx context.Context, key string, data []byte) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, data, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		log.Error("failed to save key",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	log.Debug("key saved", slog.String("key", key), slog.Int("bytes", len(data)))
	return nil
}

// Close implements store.KVStore.Close.
func (s *KVStore) Close() error {
	return s.db.Close()
}
