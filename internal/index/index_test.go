package index

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/odden/ansuz/internal/docstore"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUpsertAndSearch(t *testing.T) {
	db := openTestDB(t)

	row := DocumentRow{
		Path:      "guides/setup.md",
		Title:     "Setup Guide",
		Category:  "guides",
		Checksum:  "abc",
		Tags:      []string{"install", "quickstart"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertDocument(row, "How to install the toolchain."); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := db.Search("install", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "guides/setup.md" || results[0].Title != "Setup Guide" {
		t.Errorf("unexpected hit: %+v", results[0])
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	db := openTestDB(t)

	row := DocumentRow{Path: "a.md", Title: "Old Title", Checksum: "1", UpdatedAt: time.Now()}
	if err := db.UpsertDocument(row, "old body"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	row.Title = "New Title"
	row.Checksum = "2"
	if err := db.UpsertDocument(row, "new body"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("all checksums: %v", err)
	}
	if len(checksums) != 1 || checksums["a.md"] != "2" {
		t.Errorf("expected single entry with checksum 2, got %v", checksums)
	}

	results, err := db.Search("Old", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("stale title still searchable: %+v", results)
	}
}

func TestDeleteDocument(t *testing.T) {
	db := openTestDB(t)

	row := DocumentRow{Path: "gone.md", Title: "Ephemeral", Checksum: "x", UpdatedAt: time.Now()}
	if err := db.UpsertDocument(row, "body"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := db.DeleteDocument("gone.md"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	results, err := db.Search("Ephemeral", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("deleted document still searchable: %+v", results)
	}
}

func TestRebuildSyncsWithStore(t *testing.T) {
	db := openTestDB(t)
	store := docstore.New(nil, discardLogger())

	store.Add("notes/go.md", "---\ntitle: Go Notes\ntags: [\"golang\"]\n---\nGoroutines and channels.")
	store.Add("notes/stale.md", "---\ntitle: Stale\n---\nOld text.")

	if err := Rebuild(db, store, discardLogger()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	// Remove one document and rebuild: its index entry must disappear.
	store.Delete("notes/stale.md")
	if err := Rebuild(db, store, discardLogger()); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("all checksums: %v", err)
	}
	if len(checksums) != 1 {
		t.Fatalf("expected 1 indexed document, got %d", len(checksums))
	}
	if _, ok := checksums["notes/go.md"]; !ok {
		t.Errorf("surviving document missing from index: %v", checksums)
	}

	results, err := db.Search("Goroutines", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Go Notes" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestFollowTracksStoreEvents(t *testing.T) {
	db := openTestDB(t)
	store := docstore.New(nil, discardLogger())

	unsub := Follow(db, store, discardLogger())
	defer unsub()

	store.Add("inbox/todo.md", "---\ntitle: Todo\n---\nWrite release notes.")
	results, err := db.Search("release", 10)
	if err != nil {
		t.Fatalf("search after add: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected document indexed on add, got %d results", len(results))
	}

	store.Rename("inbox/todo.md", "done/todo.md")
	results, err = db.Search("release", 10)
	if err != nil {
		t.Fatalf("search after rename: %v", err)
	}
	if len(results) != 1 || results[0].Path != "done/todo.md" {
		t.Errorf("rename not reflected in index: %+v", results)
	}

	store.Delete("done/todo.md")
	results, err = db.Search("release", 10)
	if err != nil {
		t.Fatalf("search after delete: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("deleted document still indexed: %+v", results)
	}
}
