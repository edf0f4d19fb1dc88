// Package workspace coordinates the document store, the search index, the
// sync controller, and the validators behind one service surface used by the
// HTTP API and the MCP server.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/odden/ansuz/internal/apperr"
	"github.com/odden/ansuz/internal/checksum"
	"github.com/odden/ansuz/internal/docstore"
	"github.com/odden/ansuz/internal/header"
	"github.com/odden/ansuz/internal/index"
	"github.com/odden/ansuz/internal/models"
	"github.com/odden/ansuz/internal/preview"
	"github.com/odden/ansuz/internal/schema"
	"github.com/odden/ansuz/internal/syncctl"
	"github.com/odden/ansuz/internal/validate"
)

// DocumentDetail is the full representation of a document.
type DocumentDetail struct {
	Path     string        `json:"path"`
	Title    string        `json:"title"`
	Type     string        `json:"type"`
	Content  string        `json:"content"`
	Checksum string        `json:"checksum"`
	Fields   header.Fields `json:"fields,omitempty"`
	Tags     []string      `json:"tags"`
	Created  time.Time     `json:"created"`
	Modified time.Time     `json:"modified"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	Type     string    `json:"type"`
	Tags     []string  `json:"tags"`
	Modified time.Time `json:"modified"`
}

// ValidationReport pairs a document with its validation outcome.
type ValidationReport struct {
	Path   string          `json:"path"`
	Result validate.Result `json:"result"`
}

// CollectionReport aggregates validation over the whole collection.
type CollectionReport struct {
	Documents  []ValidationReport `json:"documents"`
	ErrorCount int                `json:"error_count"`
}

// Service coordinates store, index, controller, validator, and renderer.
type Service struct {
	store     *docstore.Store
	db        *index.DB
	ctrl      *syncctl.Controller
	table     *schema.Table
	validator *validate.Adapter
	renderer  *preview.Renderer
	logger    *slog.Logger
	today     func() time.Time
}

// NewService creates the workspace service.
func NewService(store *docstore.Store, db *index.DB, ctrl *syncctl.Controller,
	table *schema.Table, validator *validate.Adapter, renderer *preview.Renderer,
	logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		db:        db,
		ctrl:      ctrl,
		table:     table,
		validator: validator,
		renderer:  renderer,
		logger:    logger,
		today:     time.Now,
	}
}

// Controller exposes the sync controller for handlers that drive the open
// document directly.
func (s *Service) Controller() *syncctl.Controller { return s.ctrl }

// ListDocuments returns every document, sorted by path.
func (s *Service) ListDocuments(_ context.Context) []DocumentListItem {
	docs := s.store.All()
	items := make([]DocumentListItem, 0, len(docs))
	for _, doc := range docs {
		d := header.Decode(doc.Content)
		item := DocumentListItem{
			Path:     doc.Path,
			Tags:     []string{},
			Modified: doc.Metadata.Modified,
		}
		if t, ok := d.Fields["title"].(string); ok {
			item.Title = t
		}
		if dt, ok := d.Fields[s.table.TypeField].(string); ok {
			item.Type = dt
		}
		if tags, ok := d.Fields["tags"].([]string); ok {
			item.Tags = tags
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items
}

// GetDocument returns the full detail for one document.
func (s *Service) GetDocument(_ context.Context, docPath string) (*DocumentDetail, error) {
	doc, ok := s.store.Get(docPath)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return s.buildDetail(doc), nil
}

// CreateDocument adds a new document with the given content.
func (s *Service) CreateDocument(_ context.Context, docPath, content string) (*DocumentDetail, error) {
	if _, ok := s.store.Get(docPath); ok {
		return nil, apperr.ErrAlreadyExists
	}
	doc := s.store.Add(docPath, content)
	return s.buildDetail(doc), nil
}

// CreateFromTemplate adds a new document with a generated header: default
// type, title derived from the filename, and today's date.
func (s *Service) CreateFromTemplate(ctx context.Context, docPath string) (*DocumentDetail, error) {
	title := TitleFromPath(docPath)
	fields := header.Fields{
		s.table.TypeField: s.table.DefaultType,
		"title":           title,
		"dateAdded":       s.today().Format("2006-01-02"),
	}
	content := "---\n" + header.Encode(fields, s.table.FieldOrder()) + "\n---\n\n# " + title + "\n"
	return s.CreateDocument(ctx, docPath, content)
}

// UpdateDocument replaces content with optimistic concurrency: a non-empty
// ifMatch must equal the stored content's checksum.
func (s *Service) UpdateDocument(_ context.Context, docPath, content, ifMatch string) (*DocumentDetail, error) {
	existing, ok := s.store.Get(docPath)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if ifMatch != "" && ifMatch != checksum.Sum([]byte(existing.Content)) {
		return nil, apperr.ErrConflict
	}
	doc, _ := s.store.Update(docPath, content)
	return s.buildDetail(doc), nil
}

// DeleteDocument removes a document. If it is the open document, the
// controller is closed first.
func (s *Service) DeleteDocument(_ context.Context, docPath string) error {
	if _, ok := s.store.Get(docPath); !ok {
		return apperr.ErrNotFound
	}
	if s.ctrl != nil && s.ctrl.Snapshot().Path == docPath {
		s.ctrl.Close()
	}
	s.store.Delete(docPath)
	return nil
}

// RenameDocument moves a document to a new path. The open document follows
// the rename.
func (s *Service) RenameDocument(_ context.Context, oldPath, newPath string) error {
	if _, ok := s.store.Get(oldPath); !ok {
		return apperr.ErrNotFound
	}
	if _, taken := s.store.Get(newPath); taken {
		return apperr.ErrAlreadyExists
	}
	reopen := s.ctrl != nil && s.ctrl.Snapshot().Path == oldPath
	if reopen {
		s.ctrl.Close()
	}
	if !s.store.Rename(oldPath, newPath) {
		return apperr.ErrNotFound
	}
	if reopen {
		if err := s.ctrl.Open(newPath); err != nil {
			s.logger.Warn("workspace: reopen after rename failed",
				slog.String("path", newPath),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// OpenDocument makes the document current and loads it into both views.
func (s *Service) OpenDocument(_ context.Context, docPath string) error {
	return s.ctrl.Open(docPath)
}

// ValidateDocument validates a single document's header.
func (s *Service) ValidateDocument(_ context.Context, docPath string) (validate.Result, error) {
	doc, ok := s.store.Get(docPath)
	if !ok {
		return validate.Result{}, apperr.ErrNotFound
	}
	return s.validator.Validate(doc.Content), nil
}

// ValidateAll validates every document and aggregates the error count.
func (s *Service) ValidateAll(_ context.Context) CollectionReport {
	var report CollectionReport
	for _, doc := range s.store.All() {
		res := s.validator.Validate(doc.Content)
		report.Documents = append(report.Documents, ValidationReport{Path: doc.Path, Result: res})
		report.ErrorCount += len(res.Errors)
	}
	sort.Slice(report.Documents, func(i, j int) bool {
		return report.Documents[i].Path < report.Documents[j].Path
	})
	return report
}

// RenderPreview renders a document's frontmatter table plus body HTML.
func (s *Service) RenderPreview(_ context.Context, docPath string) (string, error) {
	doc, ok := s.store.Get(docPath)
	if !ok {
		return "", apperr.ErrNotFound
	}
	return s.renderer.RenderDocument(doc.Content), nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("workspace: search index not configured")
	}
	return s.db.Search(query, limit)
}

// Export returns the collection snapshot.
func (s *Service) Export(_ context.Context) models.Snapshot {
	return s.store.ExportAll()
}

// Import replaces the collection with the snapshot contents. The open
// document is closed first since it may not survive the import.
func (s *Service) Import(_ context.Context, snap models.Snapshot) {
	if s.ctrl != nil {
		s.ctrl.Close()
	}
	s.store.ImportAll(snap)
}

func (s *Service) buildDetail(doc models.Document) *DocumentDetail {
	d := header.Decode(doc.Content)
	detail := &DocumentDetail{
		Path:     doc.Path,
		Content:  doc.Content,
		Checksum: checksum.Sum([]byte(doc.Content)),
		Fields:   d.Fields,
		Tags:     []string{},
		Created:  doc.Metadata.Created,
		Modified: doc.Metadata.Modified,
	}
	if t, ok := d.Fields["title"].(string); ok {
		detail.Title = t
	}
	if dt, ok := d.Fields[s.table.TypeField].(string); ok {
		detail.Type = dt
	}
	if tags, ok := d.Fields["tags"].([]string); ok {
		detail.Tags = tags
	}
	return detail
}

// TitleFromPath derives a human title from a document path: the base name
// without extension, hyphens and underscores as spaces, words capitalized.
func TitleFromPath(docPath string) string {
	base := path.Base(docPath)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	words := strings.Fields(base)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
