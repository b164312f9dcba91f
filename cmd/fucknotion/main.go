// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/fucknotion/fucknotion-go/internal/config"
	"github.com/fucknotion/fucknotion-go/internal/directory"
	"github.com/fucknotion/fucknotion-go/internal/handler/api"
	"github.com/fucknotion/fucknotion-go/internal/legacy"
	"github.com/fucknotion/fucknotion-go/internal/logging"
	"github.com/fucknotion/fucknotion-go/internal/middleware"
	"github.com/fucknotion/fucknotion-go/internal/migration"
	"github.com/fucknotion/fucknotion-go/internal/scheduler"
	"github.com/fucknotion/fucknotion-go/internal/storage"
	"github.com/fucknotion/fucknotion-go/internal/store"
	"github.com/fucknotion/fucknotion-go/internal/transfer"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "FuckNotion - local-first page storage\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FN_DB_PATH       SQLite database path (default: ./data/fucknotion.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FN_LEGACY_PATH   Legacy flat-file store path (default: ./data/legacy.json)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FN_SERVER_PORT   Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FN_ENV           Environment: development|production (default: development)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("fucknotion %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	events := logging.NewEventBufferHandler(textHandler)
	logger := slog.New(events)
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Open the legacy flat-file store and build the two backends
	legacyStore := legacy.Open(cfg.LegacyPath)
	manager := storage.NewManager(db, cfg.DBPath, logger)
	legacyBackend := legacy.NewBackend(legacyStore)

	// One-time migration of legacy data into the database
	ctx := context.Background()
	engine := migration.NewEngine(legacyStore, manager, logger)
	if engine.NeedsMigration() {
		slog.Info("legacy data detected, starting migration")
		result := engine.Migrate(ctx)
		slog.Info("migration finished",
			"success", result.Success,
			"migrated_pages", result.MigratedPages,
			"errors", len(result.Errors))
		if result.Success {
			if err := engine.CleanupLegacy(cfg.KeepLegacyBackup); err != nil {
				slog.Warn("legacy cleanup failed", "error", err)
			}
		}
	}

	// Page directory with SQLite primary and flat-file fallback
	dir := directory.New(manager, legacyBackend, logger)
	if err := dir.Refresh(ctx); err != nil {
		slog.Error("initial page load failed", "error", err)
	}
	slog.Info("page directory ready", "pages", dir.Len(), "state", dir.State().String())

	// Maintenance scheduler
	sched := scheduler.New(manager, cfg.VersionRetentionDays, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	debounce := directory.NewDebouncer(time.Duration(cfg.DebounceMs) * time.Millisecond)
	defer debounce.Close()

	apiHandler := api.NewHandler(api.Options{
		Directory:  dir,
		Manager:    manager,
		Engine:     engine,
		Exporter:   transfer.NewExporter(store.New(db)),
		Importer:   transfer.NewImporter(manager, logger),
		Events:     events,
		Debounce:   debounce,
		Logger:     logger,
		AppVersion: appVersion,
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.IsDevelopment() {
		r.Use(chimw.Logger)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimiter.Middleware())
		apiHandler.Routes(r)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.ServerAddr(), "version", appVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
