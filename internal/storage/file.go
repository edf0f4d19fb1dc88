// Package storage persists the workspace snapshot to the local file system.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/odden/ansuz/internal/models"
)

// File stores the collection snapshot as a single JSON file.
type File struct {
	path   string
	logger *slog.Logger
}

// NewFile creates a snapshot store writing to path. The parent directory is
// created if needed.
func NewFile(path string, logger *slog.Logger) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}
	return &File{path: abs, logger: logger}, nil
}

// Save atomically writes the snapshot: tmp file → fsync → rename.
func (f *File) Save(snap models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".ansuz-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Load reads the prior snapshot. Absent or corrupt state returns nil so the
// collection starts empty.
func (f *File) Load() *models.Snapshot {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) && f.logger != nil {
			f.logger.Warn("storage: read snapshot failed", slog.String("error", err.Error()))
		}
		return nil
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		if f.logger != nil {
			f.logger.Warn("storage: corrupt snapshot ignored", slog.String("error", err.Error()))
		}
		return nil
	}
	return &snap
}
