// Package testutil provides shared test helpers for setting up stores and
// search databases.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/odden/ansuz/internal/docstore"
	"github.com/odden/ansuz/internal/index"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite search index that is automatically
// cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates an in-memory document store without persistence.
func TestStore(t *testing.T) *docstore.Store {
	t.Helper()
	return docstore.New(nil, Logger())
}
