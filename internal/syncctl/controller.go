// Package syncctl keeps the raw-text view and the structured-form view of
// the open document consistent as either one is edited, without update
// loops, and drives validation and preview rendering on every accepted
// text mutation.
package syncctl

import (
	"fmt"
	"time"

	"github.com/odden/ansuz/internal/apperr"
	"github.com/odden/ansuz/internal/docstore"
	"github.com/odden/ansuz/internal/form"
	"github.com/odden/ansuz/internal/header"
	"github.com/odden/ansuz/internal/models"
	"github.com/odden/ansuz/internal/preview"
	"github.com/odden/ansuz/internal/sched"
	"github.com/odden/ansuz/internal/schema"
	"github.com/odden/ansuz/internal/textview"
	"github.com/odden/ansuz/internal/validate"
)

// Sync states of the open document.
const (
	StateIdle     = "idle"
	StatePending  = "text-to-form-pending"
	StateApplying = "form-to-text-applying"
)

const (
	// DebounceDelay coalesces rapid text edits into one form reload.
	DebounceDelay = 500 * time.Millisecond
	// EchoDelay is how long the text view's echo of a form-driven write is
	// absorbed before text edits propagate to the form again.
	EchoDelay = 500 * time.Millisecond
)

// Update is published after every accepted text mutation, carrying derived
// state computed from the latest raw text.
type Update struct {
	Path       string          `json:"path"`
	Validation validate.Result `json:"validation"`
	HTML       string          `json:"html"`
}

// Snapshot is a consistent read of the controller's visible state.
type Snapshot struct {
	Path       string          `json:"path"`
	Text       string          `json:"text"`
	Fields     header.Fields   `json:"fields"`
	DocType    string          `json:"doc_type"`
	Tags       []string        `json:"tags"`
	State      string          `json:"state"`
	Dirty      bool            `json:"dirty"`
	Validation validate.Result `json:"validation"`
	HTML       string          `json:"html"`
}

type updateListener struct {
	id int
	fn func(Update)
}

// Controller orchestrates one text view and one structured view bound to
// the store's current document.
//
// Concurrency model: a single internal event loop owns all mutable state,
// including both views. Public methods run closures on that loop and wait
// for completion, so handlers never overlap and no locks are needed.
// Timers deliver back into the loop tagged with the generation of the
// document they were armed for; a firing that outlives its document is a
// no-op.
type Controller struct {
	store     *docstore.Store
	text      *textview.View
	form      *form.View
	validator *validate.Adapter
	renderer  *preview.Renderer
	table     *schema.Table
	clock     sched.Scheduler

	// Loop-owned state.
	path       string
	generation int
	applying   bool
	dirty      bool
	debounce   sched.Timer
	echo       sched.Timer
	lastResult validate.Result
	lastHTML   string

	listeners []updateListener
	nextID    int

	cmds    chan func()
	stopCh  chan struct{}
	stopped chan struct{}
}

// New creates a controller and starts its event loop. clock may be nil for
// real timers.
func New(store *docstore.Store, table *schema.Table, validator *validate.Adapter, renderer *preview.Renderer, clock sched.Scheduler) *Controller {
	if clock == nil {
		clock = sched.Wall{}
	}
	c := &Controller{
		store:     store,
		text:      textview.New(),
		validator: validator,
		renderer:  renderer,
		table:     table,
		clock:     clock,
		cmds:      make(chan func()),
		stopCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	// The form's own settle timer must mutate form state on the event loop,
	// so its scheduler funnels callbacks through do.
	c.form = form.New(table, loopScheduler{c: c, inner: clock})
	c.text.Subscribe(c.handleTextChange)
	c.form.Subscribe(c.handleFormChange)
	go c.run()
	return c
}

// loopScheduler wraps a Scheduler so scheduled callbacks execute on the
// controller's event loop.
type loopScheduler struct {
	c     *Controller
	inner sched.Scheduler
}

func (s loopScheduler) AfterFunc(d time.Duration, fn func()) sched.Timer {
	return s.inner.AfterFunc(d, func() { s.c.do(fn) })
}

func (c *Controller) run() {
	defer close(c.stopped)
	for {
		select {
		case <-c.stopCh:
			return
		case fn := <-c.cmds:
			fn()
		}
	}
}

// Stop terminates the event loop.
func (c *Controller) Stop() {
	select {
	case <-c.stopped:
		return
	default:
	}
	close(c.stopCh)
	<-c.stopped
}

// do runs fn on the event loop and waits for it to finish.
func (c *Controller) do(fn func()) {
	done := make(chan struct{})
	select {
	case c.cmds <- func() { fn(); close(done) }:
		<-done
	case <-c.stopped:
	}
}

// OnUpdate registers a listener for derived-state updates. Listeners are
// called synchronously from the event loop and must not block.
func (c *Controller) OnUpdate(fn func(Update)) func() {
	var id int
	c.do(func() {
		id = c.nextID
		c.nextID++
		c.listeners = append(c.listeners, updateListener{id: id, fn: fn})
	})
	return func() {
		c.do(func() {
			for i, l := range c.listeners {
				if l.id == id {
					c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Open binds the controller to the document at path. Any pending timers
// for the previously open document are invalidated; both views load from
// the stored content with echo suppression active.
func (c *Controller) Open(path string) error {
	var err error
	c.do(func() {
		doc, ok := c.store.Get(path)
		if !ok {
			err = apperr.ErrNotFound
			return
		}
		c.resetFor(path)
		c.store.SetCurrent(path)

		c.applying = true
		c.text.SetContent(doc.Content)
		c.form.LoadFromFields(header.Decode(doc.Content).Fields)
		c.applying = false
		c.dirty = false
	})
	return err
}

// Close unbinds the controller from the open document: the text view
// clears and pending timers become no-ops. Derived state is dropped so no
// stale validation or preview remains visible.
func (c *Controller) Close() {
	c.do(func() {
		c.resetFor("")
		c.applying = true
		c.text.Clear()
		c.form.LoadFromFields(nil)
		c.applying = false
		c.lastResult = validate.Result{}
		c.lastHTML = ""
		c.publish()
	})
}

// resetFor cancels in-flight timers and resets sync state for a new
// document identity.
func (c *Controller) resetFor(path string) {
	c.generation++
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	if c.echo != nil {
		c.echo.Stop()
		c.echo = nil
	}
	c.applying = false
	c.dirty = false
	c.path = path
}

// EditText applies a user edit to the raw-text view.
func (c *Controller) EditText(raw string) error {
	var err error
	c.do(func() {
		if c.path == "" {
			err = apperr.ErrNoDocument
			return
		}
		c.dirty = true
		c.text.SetContent(raw)
	})
	return err
}

// handleTextChange reacts to every text view write, user-driven or
// controller-driven. It runs on the event loop via the view subscription.
func (c *Controller) handleTextChange(raw string) {
	// Render and validate synchronously and unconditionally on the latest
	// raw text.
	c.refreshDerived(raw)

	if c.applying {
		// This write is our own splice (or an initial load); propagating it
		// back to the form would loop.
		return
	}

	// (Re)arm the debounce: only the latest edit within the window survives.
	if c.debounce != nil {
		c.debounce.Stop()
	}
	gen := c.generation
	c.debounce = c.clock.AfterFunc(DebounceDelay, func() {
		c.do(func() { c.debounceFired(gen) })
	})
}

func (c *Controller) debounceFired(gen int) {
	if gen != c.generation {
		// Belongs to a document that has since been closed or switched.
		return
	}
	c.debounce = nil
	c.form.LoadFromFields(header.Decode(c.text.Content()).Fields)
}

// handleFormChange reacts to a structured-view change: it serializes the
// fields, splices the new header onto the existing body, and writes the
// result into the text view immediately, holding the echo-suppression
// window open so the write's own echo does not bounce back into the form.
func (c *Controller) handleFormChange(fields header.Fields) {
	if c.path == "" {
		return
	}
	c.applying = true
	if c.echo != nil {
		c.echo.Stop()
	}
	gen := c.generation
	c.echo = c.clock.AfterFunc(EchoDelay, func() {
		c.do(func() { c.echoExpired(gen) })
	})

	c.dirty = true
	c.text.SetContent(header.Splice(c.text.Content(), fields, c.table.FieldOrder()))
}

func (c *Controller) echoExpired(gen int) {
	if gen != c.generation {
		return
	}
	c.echo = nil
	c.applying = false
}

// refreshDerived recomputes validation and preview from raw text and
// publishes the result. Collaborator faults degrade to labeled results
// rather than escaping the event path.
func (c *Controller) refreshDerived(raw string) {
	if c.validator != nil {
		c.lastResult = c.validator.Validate(raw)
	} else {
		c.lastResult = validate.Result{Valid: false, Errors: []validate.Error{{Message: "Validator not initialized"}}}
	}
	if c.renderer != nil {
		c.lastHTML = c.renderer.RenderDocument(raw)
	} else {
		c.lastHTML = "<p>Preview not ready</p>"
	}
	c.publish()
}

func (c *Controller) publish() {
	u := Update{Path: c.path, Validation: c.lastResult, HTML: c.lastHTML}
	for _, l := range c.listeners {
		l.fn(u)
	}
}

// SetField applies a user edit to one structured field.
func (c *Controller) SetField(name string, value any) error {
	var err error
	c.do(func() {
		if c.path == "" {
			err = apperr.ErrNoDocument
			return
		}
		err = c.form.SetField(name, value)
	})
	return err
}

// ClearField removes a structured field; the encoder drops the key.
func (c *Controller) ClearField(name string) error {
	var err error
	c.do(func() {
		if c.path == "" {
			err = apperr.ErrNoDocument
			return
		}
		c.form.ClearField(name)
	})
	return err
}

// SetDocumentType switches the structured view's active document type.
func (c *Controller) SetDocumentType(docType string) error {
	var err error
	c.do(func() {
		if c.path == "" {
			err = apperr.ErrNoDocument
			return
		}
		c.form.SetDocumentType(docType)
	})
	return err
}

// AddTag adds a tag through the structured view's normalization and cap.
func (c *Controller) AddTag(raw string) error {
	var err error
	c.do(func() {
		if c.path == "" {
			err = apperr.ErrNoDocument
			return
		}
		err = c.form.AddTag(raw)
	})
	return err
}

// RemoveTag removes a tag from the structured view.
func (c *Controller) RemoveTag(tag string) error {
	var err error
	c.do(func() {
		if c.path == "" {
			err = apperr.ErrNoDocument
			return
		}
		c.form.RemoveTag(tag)
	})
	return err
}

// Save writes the current text back to the store.
func (c *Controller) Save() (models.Document, error) {
	var doc models.Document
	var err error
	c.do(func() {
		if c.path == "" {
			err = apperr.ErrNoDocument
			return
		}
		var ok bool
		doc, ok = c.store.Update(c.path, c.text.Content())
		if !ok {
			err = fmt.Errorf("syncctl: save %s: %w", c.path, apperr.ErrNotFound)
			return
		}
		c.dirty = false
	})
	return doc, err
}

// Snapshot returns a consistent view of the controller state.
func (c *Controller) Snapshot() Snapshot {
	var s Snapshot
	c.do(func() {
		s = Snapshot{
			Path:       c.path,
			Text:       c.text.Content(),
			Fields:     c.form.ReadFields(),
			DocType:    c.form.DocumentType(),
			Tags:       c.form.Tags(),
			State:      c.stateName(),
			Dirty:      c.dirty,
			Validation: c.lastResult,
			HTML:       c.lastHTML,
		}
	})
	return s
}

func (c *Controller) stateName() string {
	switch {
	case c.applying:
		return StateApplying
	case c.debounce != nil:
		return StatePending
	default:
		return StateIdle
	}
}
