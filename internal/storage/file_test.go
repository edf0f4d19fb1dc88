package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/odden/ansuz/internal/models"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.json")
	f, err := NewFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	snap := models.Snapshot{
		Version:  models.SnapshotVersion,
		Exported: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Files: map[string]models.SnapshotFile{
			"guide.md": {Content: "---\ntitle: Guide\n---\nbody"},
		},
	}
	if err := f.Save(snap); err != nil {
		t.Fatal(err)
	}

	got := f.Load()
	if got == nil {
		t.Fatal("Load returned nil")
	}
	if got.Version != models.SnapshotVersion {
		t.Errorf("version = %q", got.Version)
	}
	if got.Files["guide.md"].Content != snap.Files["guide.md"].Content {
		t.Errorf("content = %q", got.Files["guide.md"].Content)
	}
}

func TestLoadAbsent(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "missing.json"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if snap := f.Load(); snap != nil {
		t.Errorf("expected nil for absent snapshot, got %v", snap)
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := NewFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if snap := f.Load(); snap != nil {
		t.Errorf("expected nil for corrupt snapshot, got %v", snap)
	}
}
