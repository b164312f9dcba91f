// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides the persistent page database: connection
// management, schema migrations and the query facade over the four record
// collections (pages, settings, attachments, page versions).
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"time"

	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

//go:embed migrations/*.sql
var migrations embed.FS

// DBConfig holds database configuration options.
type DBConfig struct {
	// MaxOpenConns is the maximum number of open connections to the database.
	// For SQLite, this is typically 1 for writes but can be higher for reads with WAL mode.
	MaxOpenConns int
	// MaxIdleConns is the maximum number of connections in the idle connection pool.
	MaxIdleConns int
	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	ConnMaxLifetime time.Duration
	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns sensible defaults for SQLite.
func DefaultDBConfig() DBConfig {
	return DBConfig{
		// SQLite with WAL mode supports multiple readers but single writer.
		// The editor issues far more reads than writes.
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// NewDB opens the page database and configures it for optimal performance.
// Opening is idempotent: an already-initialized database file is reused.
func NewDB(path string) (*sql.DB, error) {
	return NewDBWithConfig(path, DefaultDBConfig())
}

// NewDBWithConfig opens the page database with custom configuration.
// Pragmas ride in the DSN so every pooled connection gets them, not just
// the one that happened to serve the setup statement.
func NewDBWithConfig(path string, cfg DBConfig) (*sql.DB, error) {
	pragmas := []string{
		"journal_mode(WAL)",   // Write-Ahead Logging for better concurrency
		"busy_timeout(5000)",  // Wait 5s when database is locked
		"synchronous(NORMAL)", // Good balance of safety and speed
		"cache_size(-64000)",  // 64MB cache
		"foreign_keys(ON)",    // Enforce foreign key constraints
		"temp_store(MEMORY)",  // Store temp tables in memory
	}
	dsn := path
	for i, pragma := range pragmas {
		if i == 0 {
			dsn += "?"
		} else {
			dsn += "&"
		}
		dsn += "_pragma=" + pragma
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Migrate runs all pending database migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// Info reports the on-disk footprint of the database file and, where the
// host filesystem exposes it, the available quota. Quota fields stay nil
// when unavailable rather than defaulting to zero.
type Info struct {
	Usage *uint64
	Quota *uint64
}

// FileInfo returns storage usage for the database at path. Every field is
// best-effort: a missing file or an unsupported filesystem yields an empty
// Info, never an error that would block the caller.
func FileInfo(path string) Info {
	var info Info
	st, err := os.Stat(path)
	if err == nil {
		usage := uint64(st.Size())
		// WAL and shared-memory files count toward usage too.
		for _, suffix := range []string{"-wal", "-shm"} {
			if s, err := os.Stat(path + suffix); err == nil {
				usage += uint64(s.Size())
			}
		}
		info.Usage = &usage
	}
	if quota, ok := fsQuota(path); ok {
		info.Quota = &quota
	}
	return info
}
