package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/odden/ansuz/internal/workspace"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *workspace.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents CRUD.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Post("/documents/rename", h.RenameDocument)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.UpdateDocument)
	r.Delete("/documents/*", h.DeleteDocument)

	// Editor (open document).
	r.Get("/editor", h.EditorState)
	r.Post("/editor/open", h.OpenDocument)
	r.Post("/editor/close", h.CloseDocument)
	r.Post("/editor/save", h.SaveDocument)
	r.Put("/editor/text", h.EditText)
	r.Put("/editor/type", h.SetDocumentType)
	r.Put("/editor/fields/{name}", h.SetField)
	r.Delete("/editor/fields/{name}", h.ClearField)
	r.Post("/editor/tags", h.AddTag)
	r.Delete("/editor/tags/{tag}", h.RemoveTag)

	// Validation and preview.
	r.Get("/validate", h.ValidateAll)
	r.Get("/validate/*", h.ValidateDocument)
	r.Get("/preview/*", h.Preview)

	// Search.
	r.Get("/search", h.Search)

	// Snapshot export/import.
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
