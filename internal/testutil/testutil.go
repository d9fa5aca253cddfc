// Package testutil provides shared test helpers for building stores on the
// in-memory and SQLite media.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/taskflow/internal/kv"
	"github.com/starford/taskflow/internal/persist"
)

// MemoryStore creates a store over an unlimited in-memory medium.
func MemoryStore(t *testing.T, opts ...persist.Option) (*persist.Store, *kv.Memory) {
	t.Helper()
	m := kv.NewMemory(0)
	s, err := persist.New(m, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return s, m
}

// SQLiteStore creates a store over a temporary SQLite database that is
// closed when the test ends.
func SQLiteStore(t *testing.T, opts ...persist.Option) (*persist.Store, *kv.SQLite) {
	t.Helper()
	db, err := kv.OpenSQLite(filepath.Join(t.TempDir(), "taskflow-test.db"), kv.DefaultQuota)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := persist.New(db, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return s, db
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
