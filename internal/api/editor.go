package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/odden/ansuz/internal/apperr"
)

// Editor endpoints drive the sync controller for the open document. Mutations
// respond with the editor snapshot so clients see the post-edit state.

// editorError maps controller/form errors onto HTTP statuses.
func (h *Handler) editorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNoDocument):
		writeJSON(w, http.StatusConflict, errorBody("no document open"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	}
}

func (h *Handler) editorSnapshot(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, h.svc.Controller().Snapshot())
}

// EditorState handles GET /api/editor.
//
//	@Summary	Get the editor state for the open document
//	@Tags		editor
//	@Produce	json
//	@Success	200	{object}	EditorSnapshot
//	@Security	BearerAuth
//	@Router		/editor [get]
func (h *Handler) EditorState(w http.ResponseWriter, _ *http.Request) {
	h.editorSnapshot(w)
}

// OpenDocument handles POST /api/editor/open.
//
//	@Summary	Open a document for editing
//	@Tags		editor
//	@Accept		json
//	@Produce	json
//	@Param		body	body		OpenRequest	true	"Document to open"
//	@Success	200		{object}	EditorSnapshot
//	@Failure	404		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/editor/open [post]
func (h *Handler) OpenDocument(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.OpenDocument(r.Context(), req.Path); err != nil {
		h.editorError(w, err)
		return
	}
	h.editorSnapshot(w)
}

// CloseDocument handles POST /api/editor/close.
//
//	@Summary	Close the open document
//	@Tags		editor
//	@Success	204	"Closed"
//	@Security	BearerAuth
//	@Router		/editor/close [post]
func (h *Handler) CloseDocument(w http.ResponseWriter, _ *http.Request) {
	h.svc.Controller().Close()
	w.WriteHeader(http.StatusNoContent)
}

// EditText handles PUT /api/editor/text.
//
//	@Summary	Replace the raw text of the open document
//	@Tags		editor
//	@Accept		json
//	@Produce	json
//	@Param		body	body		EditTextRequest	true	"New text"
//	@Success	200		{object}	EditorSnapshot
//	@Security	BearerAuth
//	@Router		/editor/text [put]
func (h *Handler) EditText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req EditTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.svc.Controller().EditText(req.Text); err != nil {
		h.editorError(w, err)
		return
	}
	h.editorSnapshot(w)
}

// SetField handles PUT /api/editor/fields/{name}.
//
//	@Summary	Set a header field on the open document
//	@Tags		editor
//	@Accept		json
//	@Produce	json
//	@Param		name	path		string			true	"Field name"
//	@Param		body	body		SetFieldRequest	true	"New value"
//	@Success	200		{object}	EditorSnapshot
//	@Failure	422		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/editor/fields/{name} [put]
func (h *Handler) SetField(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req SetFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	// JSON numbers decode as float64; integral ones mean int fields.
	if f, ok := req.Value.(float64); ok && f == float64(int(f)) {
		req.Value = int(f)
	}
	if err := h.svc.Controller().SetField(name, req.Value); err != nil {
		h.editorError(w, err)
		return
	}
	h.editorSnapshot(w)
}

// ClearField handles DELETE /api/editor/fields/{name}.
//
//	@Summary	Clear a header field on the open document
//	@Tags		editor
//	@Produce	json
//	@Param		name	path		string	true	"Field name"
//	@Success	200		{object}	EditorSnapshot
//	@Security	BearerAuth
//	@Router		/editor/fields/{name} [delete]
func (h *Handler) ClearField(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Controller().ClearField(chi.URLParam(r, "name")); err != nil {
		h.editorError(w, err)
		return
	}
	h.editorSnapshot(w)
}

// SetDocumentType handles PUT /api/editor/type.
//
//	@Summary	Switch the open document's type
//	@Tags		editor
//	@Accept		json
//	@Produce	json
//	@Param		body	body		SetTypeRequest	true	"New type"
//	@Success	200		{object}	EditorSnapshot
//	@Security	BearerAuth
//	@Router		/editor/type [put]
func (h *Handler) SetDocumentType(w http.ResponseWriter, r *http.Request) {
	var req SetTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Type == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("type is required"))
		return
	}
	if err := h.svc.Controller().SetDocumentType(req.Type); err != nil {
		h.editorError(w, err)
		return
	}
	h.editorSnapshot(w)
}

// AddTag handles POST /api/editor/tags.
//
//	@Summary	Add a tag to the open document
//	@Tags		editor
//	@Accept		json
//	@Produce	json
//	@Param		body	body		TagRequest	true	"Tag to add"
//	@Success	200		{object}	EditorSnapshot
//	@Failure	422		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/editor/tags [post]
func (h *Handler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tag == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("tag is required"))
		return
	}
	if err := h.svc.Controller().AddTag(req.Tag); err != nil {
		h.editorError(w, err)
		return
	}
	h.editorSnapshot(w)
}

// RemoveTag handles DELETE /api/editor/tags/{tag}.
//
//	@Summary	Remove a tag from the open document
//	@Tags		editor
//	@Produce	json
//	@Param		tag	path		string	true	"Tag to remove"
//	@Success	200	{object}	EditorSnapshot
//	@Security	BearerAuth
//	@Router		/editor/tags/{tag} [delete]
func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Controller().RemoveTag(chi.URLParam(r, "tag")); err != nil {
		h.editorError(w, err)
		return
	}
	h.editorSnapshot(w)
}

// SaveDocument handles POST /api/editor/save.
//
//	@Summary	Save the open document back to the store
//	@Tags		editor
//	@Produce	json
//	@Success	200	{object}	EditorSnapshot
//	@Failure	409	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/editor/save [post]
func (h *Handler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Controller().Save(); err != nil {
		h.editorError(w, err)
		return
	}
	h.editorSnapshot(w)
}
