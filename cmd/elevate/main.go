// Package main is the entry point of Elevate, an interactive study tracker.
//
// Layers follow the usual clean-architecture split:
//   - Domain: sessions, streaks, XP, report aggregation
//   - Application: use cases (commands and queries)
//   - Infrastructure: file / PostgreSQL storage, Redis, exports, backups
//   - Interface: the terminal REPL
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/elevate-hub/elevate/config"
	"github.com/elevate-hub/elevate/internal/interface/cli"
	"github.com/elevate-hub/elevate/pkg/logger"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Logging
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output: os.Stderr,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
		Format: logger.ParseFormat(cfg.Observability.LogFormat),
	}).With(
		logger.String("app", cfg.App.Name),
		logger.String("version", cfg.App.Version),
	)
	ctx = logger.WithContext(ctx, log)

	log.Info("starting elevate",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("storage", cfg.Storage.Driver),
		logger.String("backup", cfg.Backup.Driver),
		logger.Bool("redis", cfg.Redis.Enabled),
		logger.String("timezone", cfg.App.Timezone),
	)

	clock := timeutil.SystemClock{Location: cfg.App.Location}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Infrastructure and use cases
	// ─────────────────────────────────────────────────────────────────────────
	deps, err := wire(ctx, cfg, clock, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Terminal
	// ─────────────────────────────────────────────────────────────────────────
	app := cli.NewApp(deps.Handlers, cli.Options{
		In:        os.Stdin,
		Out:       os.Stdout,
		OutputDir: cfg.Storage.ExportDir,
		Logger:    log,
		Clock:     clock,
	})
	app.Run(ctx)

	log.Info("elevate stopped")
	return nil
}
