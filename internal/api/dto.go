package api

import (
	"github.com/odden/ansuz/internal/index"
	"github.com/odden/ansuz/internal/syncctl"
	"github.com/odden/ansuz/internal/validate"
	"github.com/odden/ansuz/internal/workspace"
)

// CreateDocumentRequest is the request body for creating a document.
// An empty content means "generate from template".
type CreateDocumentRequest struct {
	Path    string `json:"path" example:"guides/setup.md" validate:"required"`
	Content string `json:"content,omitempty" example:"---\ntitle: Setup\n---\n# Setup"`
}

// UpdateDocumentRequest is the request body for replacing document content.
type UpdateDocumentRequest struct {
	Content string `json:"content" validate:"required"`
}

// RenameDocumentRequest is the request body for renaming a document.
type RenameDocumentRequest struct {
	From string `json:"from" example:"draft.md" validate:"required"`
	To   string `json:"to" example:"final.md" validate:"required"`
}

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = workspace.DocumentDetail

// DocumentListItem is a lightweight item in a list response (aliased from the domain layer).
type DocumentListItem = workspace.DocumentListItem

// DocumentListResponse wraps document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// ValidationResponse wraps one document's validation outcome.
type ValidationResponse struct {
	Path   string          `json:"path" validate:"required"`
	Result validate.Result `json:"result" validate:"required"`
}

// EditorSnapshot is the editor state response (aliased from the controller).
type EditorSnapshot = syncctl.Snapshot

// OpenRequest selects the document to edit.
type OpenRequest struct {
	Path string `json:"path" example:"guides/setup.md" validate:"required"`
}

// EditTextRequest carries a raw-text edit of the open document.
type EditTextRequest struct {
	Text string `json:"text" validate:"required"`
}

// SetFieldRequest carries a structured-form field edit.
type SetFieldRequest struct {
	Value any `json:"value" validate:"required"`
}

// SetTypeRequest switches the open document's type.
type SetTypeRequest struct {
	Type string `json:"type" example:"content" validate:"required"`
}

// TagRequest carries a tag to add.
type TagRequest struct {
	Tag string `json:"tag" example:"golang" validate:"required"`
}
