package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/dream-diary/internal/config"
	"github.com/phrazzld/dream-diary/internal/platform/sqlite"
)

// runMigrations executes a goose command against the configured SQLite
// store. Migrations only exist for the sqlite driver.
func runMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	if cfg.Storage.Driver != config.DriverSQLite {
		return fmt.Errorf("migrations apply only to the %q storage driver, not %q",
			config.DriverSQLite, cfg.Storage.Driver)
	}

	switch command {
	case sqlite.MigrateUp, sqlite.MigrateStatus, sqlite.MigrateVersion:
	default:
		return fmt.Errorf("unknown migrate command %q (want up, status or version)", command)
	}

	db, err := sqlite.OpenDB(ctx, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("error closing database", slog.String("error", cerr.Error()))
		}
	}()

	logger.Info("executing migrations", slog.String("command", command))
	if err := sqlite.Migrate(ctx, db, command, logger); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}
