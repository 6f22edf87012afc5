// Package main implements the entry point for the Dream Diary server,
// which keeps a journal of dreams and waking-life events and the links
// between them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/dream-diary/internal/config"
	"github.com/phrazzld/dream-diary/internal/platform/logger"
)

// options holds the command line flags.
type options struct {
	configPath string
	exportPath string
	importPath string
	migrateCmd string
}

// parseFlags reads the command line. At most one of -export, -import and
// -migrate may be given.
func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("dream-diary", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configPath, "config", "", "Path to a config file (default: ./config.yaml if present)")
	fs.StringVar(&opts.exportPath, "export", "", "Write a backup of the journal to this file or directory and exit")
	fs.StringVar(&opts.importPath, "import", "", "Import a backup file into the journal and exit")
	fs.StringVar(&opts.migrateCmd, "migrate", "", "Run SQLite migrations (up|status|version) and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	set := 0
	for _, v := range []string{opts.exportPath, opts.importPath, opts.migrateCmd} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return options{}, errors.New("-export, -import and -migrate are mutually exclusive")
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(context.Background(), opts); err != nil {
		slog.Error("dream diary exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run loads configuration and logging, then performs the action chosen
// on the command line. Without an action flag it serves HTTP until a
// shutdown signal arrives.
func run(ctx context.Context, opts options) error {
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("storage_driver", cfg.Storage.Driver))

	if opts.migrateCmd != "" {
		return runMigrations(ctx, cfg, opts.migrateCmd, log)
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.cleanup()

	switch {
	case opts.exportPath != "":
		_, err := app.exportTo(ctx, opts.exportPath)
		return err
	case opts.importPath != "":
		return app.importFrom(ctx, opts.importPath)
	default:
		return app.Run(ctx)
	}
}
