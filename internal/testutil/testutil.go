// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers.
package testutil

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fucknotion/fucknotion-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary test database with migrations applied.
// Returns the database, its path, and a cleanup function that should be
// deferred.
func TestDB(t *testing.T) (*sql.DB, string, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "fucknotion-test.db")

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, dbPath, func() {
		_ = db.Close()
	}
}

// TestMemoryDB creates an in-memory SQLite database for tests that do not
// need the full schema or persistence.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// Each pooled connection would otherwise get its own empty memory
	// database.
	db.SetMaxOpenConns(1)
	return db
}

// TestLegacyPath returns a path for a legacy flat-file store inside the
// test's temp dir.
func TestLegacyPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "legacy.json")
}
