// Package testutil provides shared helpers for tests that need a real
// storage engine. The engine is in-process SQLite, so unlike a client/server
// database no environment variable or external service is required: every
// test gets its own migrated database file under t.TempDir.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/xmikolay/trip-planner-app/internal/storage"
	"github.com/xmikolay/trip-planner-app/migrations"
)

// OpenDB opens a fresh SQLite database in a per-test temp directory and
// applies all embedded migrations. The database file disappears with the
// temp dir and the handle is closed automatically when the test (and all its
// subtests) finish, so tests never share state or need cleanup SQL.
// Live-query failures are logged to a discarded logger to keep test output
// quiet; tests asserting on those logs open the store themselves.
func OpenDB(t *testing.T) *storage.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "trip_planner_test.db")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := storage.Open(context.Background(), path, migrations.FS, log)
	if err != nil {
		t.Fatalf("testutil.OpenDB: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}
