// Package textview is the raw-text editable surface for one document's
// full content.
package textview

type listener struct {
	id int
	fn func(string)
}

// View holds the raw text and fans change notifications out to
// subscribers. Every write emits a change; callers that write and do not
// want to react to their own echo must track that themselves.
type View struct {
	content   string
	listeners []listener
	nextID    int
}

// New creates an empty text view.
func New() *View {
	return &View{}
}

// Subscribe registers a change listener, notified synchronously in
// registration order with the new content. The returned function
// unregisters.
func (v *View) Subscribe(fn func(string)) func() {
	id := v.nextID
	v.nextID++
	v.listeners = append(v.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range v.listeners {
			if l.id == id {
				v.listeners = append(v.listeners[:i], v.listeners[i+1:]...)
				return
			}
		}
	}
}

// SetContent replaces the text and notifies subscribers.
func (v *View) SetContent(content string) {
	v.content = content
	for _, l := range v.listeners {
		l.fn(content)
	}
}

// Content returns the current raw text.
func (v *View) Content() string {
	return v.content
}

// Clear empties the view.
func (v *View) Clear() {
	v.SetContent("")
}
