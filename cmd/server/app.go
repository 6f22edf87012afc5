package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/phrazzld/dream-diary/internal/config"
	"github.com/phrazzld/dream-diary/internal/domain"
	"github.com/phrazzld/dream-diary/internal/events"
	"github.com/phrazzld/dream-diary/internal/platform/filekv"
	"github.com/phrazzld/dream-diary/internal/platform/memory"
	"github.com/phrazzld/dream-diary/internal/platform/sqlite"
	"github.com/phrazzld/dream-diary/internal/service"
	"github.com/phrazzld/dream-diary/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	now    service.Clock

	// Persistence
	kv           store.KVStore
	entryStore   store.EntryStore
	connStore    store.ConnectionStore
	ids          *domain.IDGenerator
	eventEmitter events.EventEmitter

	// Service interfaces
	entryService      service.EntryService
	connectionService service.ConnectionService
	queryService      service.QueryService
	statsService      service.StatsService
	transferService   service.TransferService
}

// newApplication opens the configured storage, wires every service and
// loads the journal.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	kv, err := openKVStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	app, err := newApplicationWithKV(ctx, cfg, logger, kv, time.Now)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	return app, nil
}

// openKVStore returns the Persistence Adapter named by cfg.Driver.
func openKVStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (store.KVStore, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		kv, err := sqlite.Open(ctx, cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		logger.Info("sqlite store opened")
		return kv, nil
	case config.DriverFile:
		kv, err := filekv.New(cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		logger.Info("file store opened")
		return kv, nil
	case config.DriverMemory:
		logger.Warn("using in-memory store; the journal is lost on exit")
		return store.NewMemoryKVStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// newApplicationWithKV wires the application on an already opened store.
func newApplicationWithKV(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	kv store.KVStore,
	clock service.Clock,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		now:    clock,
		kv:     kv,
	}

	keys := store.NewKeys(cfg.Storage.KeyPrefix)
	app.entryStore = memory.NewEntryStore(kv, keys, logger)
	app.connStore = memory.NewConnectionStore(kv, keys.Connections, logger)
	app.ids = domain.NewIDGenerator(clock)
	gate := service.NewGate()
	emitter := events.NewInMemoryEventEmitter(logger)
	app.eventEmitter = emitter

	var err error
	app.connectionService, err = service.NewConnectionService(app.connStore, app.entryStore, app.ids, gate, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection service: %w", err)
	}
	// Deleting an entry removes its connections through this handler.
	emitter.RegisterHandler(app.connectionService)

	app.entryService, err = service.NewEntryService(app.entryStore, emitter, app.ids, gate, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create entry service: %w", err)
	}

	app.queryService, err = service.NewQueryService(app.entryService, app.connectionService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create query service: %w", err)
	}

	app.statsService, err = service.NewStatsService(app.entryStore, app.connStore, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats service: %w", err)
	}

	app.transferService, err = service.NewTransferService(app.entryStore, app.connStore, app.ids, gate, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer service: %w", err)
	}

	if err := app.transferService.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load journal: %w", err)
	}

	logger.Info("application initialized",
		slog.Int("dreams", app.entryStore.Count(ctx, domain.KindDream)),
		slog.Int("life_events", app.entryStore.Count(ctx, domain.KindEvent)),
		slog.Int("connections", app.connStore.Count(ctx)))
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// exportTo writes a backup document to path. When path is a directory the
// file is created inside it under the dated backup name. It returns the
// file written.
func (app *application) exportTo(ctx context.Context, path string) (string, error) {
	doc, err := app.transferService.Export(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to export journal: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, domain.BackupFileName(app.now()))
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	app.logger.Info("journal exported to file",
		slog.Int("dreams", len(doc.Dreams)),
		slog.Int("life_events", len(doc.LifeEvents)),
		slog.Int("connections", len(doc.Connections)))
	return path, nil
}

// importFrom imports the backup document at path. Unlike the HTTP import,
// a failed durable write is an error here: the process exits right after.
func (app *application) importFrom(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	summary, err := app.transferService.ImportJSON(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to import journal: %w", err)
	}

	attrs := []any{}
	for name, n := range map[string]*int{
		"dreams":      summary.Dreams,
		"life_events": summary.LifeEvents,
		"connections": summary.Connections,
	} {
		if n != nil {
			attrs = append(attrs, slog.Int(name, *n))
		}
	}
	app.logger.Info("journal imported from file", attrs...)
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.kv != nil {
		if err := app.kv.Close(); err != nil {
			app.logger.Error("error closing store", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
