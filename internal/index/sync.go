package index

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/odden/ansuz/internal/checksum"
	"github.com/odden/ansuz/internal/docstore"
	"github.com/odden/ansuz/internal/header"
)

// Rebuild brings the index in line with the store collection:
//   - new/changed documents are decoded and upserted
//   - entries whose documents are gone are deleted
func Rebuild(db *DB, store *docstore.Store, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	present := make(map[string]struct{})
	for _, doc := range store.All() {
		present[doc.Path] = struct{}{}

		cs := checksum.Sum([]byte(doc.Content))
		if checksums[doc.Path] == cs {
			continue
		}
		if err := indexDocument(db, doc.Path, doc.Content); err != nil {
			logger.Warn("index: rebuild upsert failed",
				slog.String("path", doc.Path),
				slog.String("error", err.Error()))
		} else {
			logger.Debug("index: rebuilt", slog.String("path", doc.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := present[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("index: remove stale failed",
					slog.String("path", p),
					slog.String("error", err.Error()))
			}
		}
	}

	return nil
}

// Follow subscribes the index to store mutations so search stays current.
// It returns the unsubscribe function.
func Follow(db *DB, store *docstore.Store, logger *slog.Logger) func() {
	return store.Subscribe(func(ev docstore.Event) {
		var err error
		switch ev.Kind {
		case docstore.EventAdded, docstore.EventUpdated:
			if doc, ok := store.Get(ev.Path); ok {
				err = indexDocument(db, doc.Path, doc.Content)
			}
		case docstore.EventDeleted:
			err = db.DeleteDocument(ev.Path)
		case docstore.EventRenamed:
			if delErr := db.DeleteDocument(ev.OldPath); delErr != nil {
				err = delErr
			} else if doc, ok := store.Get(ev.Path); ok {
				err = indexDocument(db, doc.Path, doc.Content)
			}
		case docstore.EventImported:
			err = Rebuild(db, store, logger)
		}
		if err != nil {
			logger.Warn("index: follow update failed",
				slog.String("kind", ev.Kind),
				slog.String("path", ev.Path),
				slog.String("error", err.Error()))
		}
	})
}

// indexDocument decodes content and upserts its searchable projection.
func indexDocument(db *DB, path, content string) error {
	d := header.Decode(content)

	row := DocumentRow{
		Path:      path,
		Checksum:  checksum.Sum([]byte(content)),
		UpdatedAt: time.Now(),
	}
	if t, ok := d.Fields["title"].(string); ok {
		row.Title = t
	}
	if c, ok := d.Fields["category"].(string); ok {
		row.Category = c
	}
	if tags, ok := d.Fields["tags"].([]string); ok {
		row.Tags = tags
	}
	if err := db.UpsertDocument(row, d.Body); err != nil {
		return fmt.Errorf("index: document %s: %w", path, err)
	}
	return nil
}
