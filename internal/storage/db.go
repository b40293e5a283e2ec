// Package storage owns the SQLite engine handle and the change-notification
// machinery that turns plain SQL queries into live subscriptions.
// No domain-specific SQL lives here; the repo package builds on top.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// DB wraps the SQLite handle with a writer lock and a change watcher.
// It is the single shared mutable resource in the process; construct one in
// the composition root and pass it by reference.
type DB struct {
	sql     *sql.DB
	watcher *Watcher
	log     *slog.Logger

	// writeMu serializes all writers. SQLite allows only one writer at a
	// time anyway; taking the lock in-process avoids SQLITE_BUSY churn and
	// makes the write→broadcast sequence atomic with respect to other writers.
	writeMu sync.Mutex
}

// Open opens (creating if necessary) the SQLite database at path, applies
// all pending migrations from migrationFS, and returns a ready DB.
// Foreign key enforcement is switched on in the DSN so the engine itself
// rejects itinerary rows that reference a missing trip and cascades deletes.
// The logger reports failures of live-query re-runs, which have no caller to
// return an error to; a nil logger falls back to slog.Default.
func Open(ctx context.Context, path string, migrationFS fs.FS, log *slog.Logger) (*DB, error) {
	if log == nil {
		log = slog.Default()
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.Open: open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("storage.Open: ping sqlite db: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, migrationFS)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("storage.Open: create goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("storage.Open: run migrations: %w", err)
	}

	return &DB{sql: sqlDB, watcher: NewWatcher(), log: log}, nil
}

// Close closes the underlying SQLite handle. Live subscriptions should be
// cancelled first; any still running will start failing their re-queries.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Query runs a read-only query against the database.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, query, args...)
}

// QueryRow runs a read-only single-row query against the database.
func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, query, args...)
}

// Write runs fn inside a transaction while holding the writer lock, then
// notifies watchers of the given tables once the transaction has committed.
// Subscribers therefore re-query either fully before or fully after the
// transaction, never in between: a trip delete and its cascaded item deletes
// are observed as a single state change.
//
// Write returns only after the commit is durable, so once a write has
// returned, any fresh read observes it.
func (d *DB) Write(ctx context.Context, tables []string, fn func(tx *sql.Tx) error) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.DB.Write: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.DB.Write: commit: %w", err)
	}

	d.watcher.Broadcast(tables...)
	return nil
}

// Watch registers interest in changes to the given tables. See Watcher.Watch.
func (d *DB) Watch(tables ...string) (<-chan struct{}, func()) {
	return d.watcher.Watch(tables...)
}
