// Package docstore owns the in-memory document collection, the current
// document selection, and the persistence round-trip to the snapshot file.
package docstore

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/odden/ansuz/internal/models"
)

// Event kinds emitted to subscribers.
const (
	EventAdded          = "document.added"
	EventUpdated        = "document.updated"
	EventDeleted        = "document.deleted"
	EventRenamed        = "document.renamed"
	EventImported       = "collection.imported"
	EventCurrentChanged = "document.opened"
)

// Event describes a store mutation. For renames, Path is the new path and
// OldPath the previous one.
type Event struct {
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	OldPath string `json:"old_path,omitempty"`
}

// Persister saves and loads the full-collection snapshot.
// Load must tolerate absent or corrupt prior state by returning nil.
type Persister interface {
	Save(snap models.Snapshot) error
	Load() *models.Snapshot
}

type subscriber struct {
	id int
	fn func(Event)
}

// Store is the sole owner of the document collection. In-memory state is
// authoritative; persistence is a best-effort side effect of every mutation.
type Store struct {
	mu      sync.Mutex
	docs    map[string]models.Document
	current string

	persist Persister
	logger  *slog.Logger
	now     func() time.Time

	subs   []subscriber
	nextID int
}

// New creates a Store and loads any prior snapshot from the persister.
// A missing or corrupt snapshot starts the collection empty.
func New(persist Persister, logger *slog.Logger) *Store {
	s := &Store{
		docs:    make(map[string]models.Document),
		persist: persist,
		logger:  logger,
		now:     time.Now,
	}
	if persist != nil {
		if snap := persist.Load(); snap != nil {
			for path, f := range snap.Files {
				s.docs[path] = models.Document{Path: path, Content: f.Content, Metadata: f.Metadata}
			}
		}
	}
	return s
}

// Subscribe registers an observer. Notification is synchronous and ordered
// by registration. The returned function unregisters.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(ev Event) {
	s.mu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.fn(ev)
	}
}

// Add inserts or overwrites a document. Modified is set to now; Created is
// preserved for an existing path and defaults to now otherwise.
func (s *Store) Add(path, content string) models.Document {
	s.mu.Lock()
	now := s.now()
	doc := models.Document{
		Path:    path,
		Content: content,
		Metadata: models.DocumentMeta{
			Created:  now,
			Modified: now,
		},
	}
	if prev, ok := s.docs[path]; ok {
		doc.Metadata.Created = prev.Metadata.Created
	}
	s.docs[path] = doc
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventAdded, Path: path})
	return doc
}

// Get returns the document at path.
func (s *Store) Get(path string) (models.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[path]
	return doc, ok
}

// Update replaces the content of an existing document. An absent path is a
// no-op returning false, not an error.
func (s *Store) Update(path, content string) (models.Document, bool) {
	s.mu.Lock()
	doc, ok := s.docs[path]
	if !ok {
		s.mu.Unlock()
		return models.Document{}, false
	}
	doc.Content = content
	doc.Metadata.Modified = s.now()
	s.docs[path] = doc
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventUpdated, Path: path})
	return doc, true
}

// Delete removes the document at path. Deleting the current document clears
// the current selection.
func (s *Store) Delete(path string) bool {
	s.mu.Lock()
	if _, ok := s.docs[path]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.docs, path)
	if s.current == path {
		s.current = ""
	}
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventDeleted, Path: path})
	return true
}

// Rename atomically changes a document's key. It returns false when oldPath
// is absent or newPath is already taken. The current-document pointer
// follows the rename.
func (s *Store) Rename(oldPath, newPath string) bool {
	s.mu.Lock()
	doc, ok := s.docs[oldPath]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if _, taken := s.docs[newPath]; taken && newPath != oldPath {
		s.mu.Unlock()
		return false
	}
	delete(s.docs, oldPath)
	doc.Path = newPath
	doc.Metadata.Modified = s.now()
	s.docs[newPath] = doc
	if s.current == oldPath {
		s.current = newPath
	}
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventRenamed, Path: newPath, OldPath: oldPath})
	return true
}

// SetCurrent marks the document at path as open. This is advisory state for
// collaborators, not an ownership transfer.
func (s *Store) SetCurrent(path string) {
	s.mu.Lock()
	s.current = path
	s.mu.Unlock()
	s.notify(Event{Kind: EventCurrentChanged, Path: path})
}

// Current returns the open document, if any.
func (s *Store) Current() (models.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" {
		return models.Document{}, false
	}
	doc, ok := s.docs[s.current]
	return doc, ok
}

// CurrentPath returns the path of the open document, or "".
func (s *Store) CurrentPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// All returns every document, sorted by path.
func (s *Store) All() []models.Document {
	s.mu.Lock()
	out := make([]models.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Len returns the number of documents in the collection.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// ExportAll returns a full-collection snapshot.
func (s *Store) ExportAll() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ImportAll replaces the collection with the snapshot contents. The
// collection is cleared first; a malformed snapshot leaves it empty rather
// than half-populated.
func (s *Store) ImportAll(snap models.Snapshot) {
	s.mu.Lock()
	s.docs = make(map[string]models.Document)
	s.current = ""
	for path, f := range snap.Files {
		if path == "" {
			continue
		}
		s.docs[path] = models.Document{Path: path, Content: f.Content, Metadata: f.Metadata}
	}
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventImported})
}

func (s *Store) snapshotLocked() models.Snapshot {
	files := make(map[string]models.SnapshotFile, len(s.docs))
	for path, doc := range s.docs {
		files[path] = models.SnapshotFile{Content: doc.Content, Metadata: doc.Metadata}
	}
	return models.Snapshot{
		Version:  models.SnapshotVersion,
		Exported: s.now(),
		Files:    files,
	}
}

// persistLocked saves the collection. Failures are logged and swallowed;
// in-memory state remains authoritative for the session.
func (s *Store) persistLocked() {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(s.snapshotLocked()); err != nil && s.logger != nil {
		s.logger.Warn("docstore: persist failed", slog.String("error", err.Error()))
	}
}
