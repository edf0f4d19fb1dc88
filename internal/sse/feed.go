package sse

import (
	"github.com/odden/ansuz/internal/docstore"
	"github.com/odden/ansuz/internal/syncctl"
)

// FollowStore forwards store mutation events to SSE clients. Returns the
// unsubscribe function.
func FollowStore(b *Broker, store *docstore.Store) func() {
	return store.Subscribe(func(ev docstore.Event) {
		b.PublishDocumentEvent(ev.Kind, ev.Path, ev.OldPath)
	})
}

// FollowController forwards validation and preview refreshes of the open
// document to SSE clients. Returns the unsubscribe function.
func FollowController(b *Broker, ctrl *syncctl.Controller) func() {
	return ctrl.OnUpdate(func(u syncctl.Update) {
		b.Publish(Event{Type: "validation.updated", Data: map[string]any{
			"path":   u.Path,
			"result": u.Validation,
		}})
		b.Publish(Event{Type: "preview.updated", Data: map[string]any{
			"path": u.Path,
			"html": u.HTML,
		}})
	})
}
