package syncctl

import (
	"strings"
	"sync"
	"testing"

	"github.com/odden/ansuz/internal/docstore"
	"github.com/odden/ansuz/internal/form"
	"github.com/odden/ansuz/internal/preview"
	"github.com/odden/ansuz/internal/sched"
	"github.com/odden/ansuz/internal/schema"
	"github.com/odden/ansuz/internal/validate"
)

const sampleDoc = "---\nlayout: content\ntitle: Sample\ncategory: docs\ntags: [\"go\"]\n---\n# Sample\nbody text\n"

func newFixture(t *testing.T) (*Controller, *docstore.Store, *sched.Manual) {
	t.Helper()
	store := docstore.New(nil, nil)
	store.Add("sample.md", sampleDoc)

	v, err := validate.New([]byte(schema.DefaultSchemaJSON))
	if err != nil {
		t.Fatal(err)
	}
	clock := sched.NewManual()
	c := New(store, schema.Default(), v, preview.New(), clock)
	t.Cleanup(c.Stop)
	return c, store, clock
}

// counter collects published updates thread-safely.
type counter struct {
	mu      sync.Mutex
	updates []Update
}

func (ct *counter) add(u Update) {
	ct.mu.Lock()
	ct.updates = append(ct.updates, u)
	ct.mu.Unlock()
}

func (ct *counter) count() int {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return len(ct.updates)
}

func openSettled(t *testing.T, c *Controller, clock *sched.Manual, path string) {
	t.Helper()
	if err := c.Open(path); err != nil {
		t.Fatal(err)
	}
	// Let the form's post-load settle window pass.
	clock.Advance(form.SettleDelay)
}

func TestOpen_LoadsBothViews(t *testing.T) {
	c, _, clock := newFixture(t)
	openSettled(t, c, clock, "sample.md")

	s := c.Snapshot()
	if s.Text != sampleDoc {
		t.Errorf("text = %q", s.Text)
	}
	if s.Fields["title"] != "Sample" || s.DocType != "content" {
		t.Errorf("fields = %v, type = %q", s.Fields, s.DocType)
	}
	if s.State != StateIdle {
		t.Errorf("state = %q, want idle", s.State)
	}
	if !s.Validation.Valid {
		t.Errorf("validation = %+v", s.Validation)
	}
	if !strings.Contains(s.HTML, "<h1") {
		t.Error("preview not rendered on open")
	}
}

func TestOpen_AbsentPath(t *testing.T) {
	c, _, _ := newFixture(t)
	if err := c.Open("missing.md"); err == nil {
		t.Error("expected error for absent document")
	}
}

func TestTextEdit_DebouncedPropagation(t *testing.T) {
	c, _, clock := newFixture(t)
	openSettled(t, c, clock, "sample.md")

	edited := "---\nlayout: content\ntitle: Renamed\ncategory: docs\n---\nbody\n"
	if err := c.EditText(edited); err != nil {
		t.Fatal(err)
	}

	// Before the debounce window expires the form still holds the old title.
	s := c.Snapshot()
	if s.State != StatePending {
		t.Errorf("state = %q, want pending", s.State)
	}
	if s.Fields["title"] != "Sample" {
		t.Errorf("form updated early: %v", s.Fields["title"])
	}

	clock.Advance(DebounceDelay)
	s = c.Snapshot()
	if s.Fields["title"] != "Renamed" {
		t.Errorf("form title = %v, want Renamed", s.Fields["title"])
	}
	if s.State != StateIdle {
		t.Errorf("state = %q after debounce", s.State)
	}
}

func TestTextEdits_Coalesce(t *testing.T) {
	c, _, clock := newFixture(t)
	openSettled(t, c, clock, "sample.md")

	_ = c.EditText("---\nlayout: content\ntitle: One\n---\nb\n")
	clock.Advance(DebounceDelay / 2)
	_ = c.EditText("---\nlayout: content\ntitle: Two\n---\nb\n")
	clock.Advance(DebounceDelay / 2)

	// First timer was re-armed; half the window after the second edit the
	// form must still be untouched.
	if got := c.Snapshot().Fields["title"]; got != "Sample" {
		t.Fatalf("form reloaded early: %v", got)
	}

	clock.Advance(DebounceDelay / 2)
	if got := c.Snapshot().Fields["title"]; got != "Two" {
		t.Errorf("form title = %v, want only the final edit", got)
	}
}

func TestTextEdit_TriggersValidationAndPreview(t *testing.T) {
	c, _, clock := newFixture(t)
	openSettled(t, c, clock, "sample.md")

	var ct counter
	unsub := c.OnUpdate(ct.add)
	defer unsub()

	_ = c.EditText("no header anymore\n")
	if ct.count() != 1 {
		t.Fatalf("updates = %d, want 1", ct.count())
	}
	s := c.Snapshot()
	if s.Validation.Valid || len(s.Validation.Errors) != 1 {
		t.Errorf("validation = %+v, want single no-frontmatter error", s.Validation)
	}
	if !strings.Contains(s.HTML, "no header anymore") {
		t.Error("preview must reflect latest text")
	}
}

func TestFormEdit_ImmediateSpliceAndEchoSuppression(t *testing.T) {
	c, _, clock := newFixture(t)
	openSettled(t, c, clock, "sample.md")

	var ct counter
	unsub := c.OnUpdate(ct.add)
	defer unsub()

	if err := c.SetField("title", "From Form"); err != nil {
		t.Fatal(err)
	}

	// Exactly one text write and one derived-state cycle.
	if ct.count() != 1 {
		t.Fatalf("updates = %d, want 1", ct.count())
	}
	s := c.Snapshot()
	if !strings.Contains(s.Text, "title: From Form") {
		t.Errorf("text = %q", s.Text)
	}
	if !strings.Contains(s.Text, "# Sample\nbody text\n") {
		t.Error("body must be preserved by the splice")
	}
	if s.State != StateApplying {
		t.Errorf("state = %q, want applying", s.State)
	}

	// After the echo window the machine returns to idle without a second
	// validation/render cycle for the same write.
	clock.Advance(EchoDelay)
	if got := c.Snapshot().State; got != StateIdle {
		t.Errorf("state after echo window = %q", got)
	}
	if ct.count() != 1 {
		t.Errorf("updates after echo window = %d, want still 1", ct.count())
	}
}

func TestFormEdit_NoDriftAfterFullLoop(t *testing.T) {
	c, _, clock := newFixture(t)
	openSettled(t, c, clock, "sample.md")

	if err := c.SetField("description", "short summary"); err != nil {
		t.Fatal(err)
	}
	before := c.Snapshot().Fields

	// Let every window expire, then re-read: one full loop must not change
	// the field set.
	clock.Advance(EchoDelay + DebounceDelay)
	after := c.Snapshot().Fields
	if len(before) != len(after) {
		t.Fatalf("drift: before %v, after %v", before, after)
	}
	for k, v := range before {
		got := after[k]
		switch val := v.(type) {
		case []string:
			gl, ok := got.([]string)
			if !ok || len(gl) != len(val) {
				t.Errorf("drift on %s: %v vs %v", k, v, got)
			}
		default:
			if got != v {
				t.Errorf("drift on %s: %v vs %v", k, v, got)
			}
		}
	}
}

func TestFormEdit_CreatesHeaderWhenNoneExists(t *testing.T) {
	c, store, clock := newFixture(t)
	store.Add("bare.md", "just a body\n")
	openSettled(t, c, clock, "bare.md")

	if err := c.SetField("title", "Created"); err != nil {
		t.Fatal(err)
	}
	s := c.Snapshot()
	if !strings.HasPrefix(s.Text, "---\nlayout: content\ntitle: Created\n---\n") {
		t.Errorf("text = %q", s.Text)
	}
	if !strings.HasSuffix(s.Text, "just a body\n") {
		t.Error("body lost while creating header")
	}
}

func TestClearedFieldDropsKey(t *testing.T) {
	c, _, clock := newFixture(t)
	openSettled(t, c, clock, "sample.md")

	if err := c.ClearField("category"); err != nil {
		t.Fatal(err)
	}
	s := c.Snapshot()
	if strings.Contains(s.Text, "category") {
		t.Errorf("cleared key must be dropped entirely, text = %q", s.Text)
	}
}

func TestDocumentSwitch_InvalidatesPendingTimers(t *testing.T) {
	c, store, clock := newFixture(t)
	store.Add("other.md", "---\nlayout: base\ntitle: Other\n---\nother body\n")
	openSettled(t, c, clock, "sample.md")

	_ = c.EditText("---\nlayout: content\ntitle: Stale Edit\n---\nb\n")
	openSettled(t, c, clock, "other.md")

	// The old document's debounce fires late and must be a no-op.
	clock.Advance(DebounceDelay)
	s := c.Snapshot()
	if s.Fields["title"] != "Other" {
		t.Errorf("late timer leaked into new document: %v", s.Fields["title"])
	}
	if s.DocType != "base" {
		t.Errorf("doc type = %q", s.DocType)
	}
}

func TestClose_ClearsEverything(t *testing.T) {
	c, store, clock := newFixture(t)
	openSettled(t, c, clock, "sample.md")

	store.Delete("sample.md")
	c.Close()

	s := c.Snapshot()
	if s.Text != "" || s.Path != "" {
		t.Errorf("text/path not cleared: %q %q", s.Text, s.Path)
	}
	if s.HTML != "" || s.Validation.Valid || len(s.Validation.Errors) != 0 {
		t.Errorf("stale derived state: %+v", s)
	}
	if err := c.EditText("x"); err == nil {
		t.Error("edits must fail with no document open")
	}
	if _, err := c.Save(); err == nil {
		t.Error("save must fail with no document open")
	}
}

func TestTagOperations(t *testing.T) {
	c, _, clock := newFixture(t)
	openSettled(t, c, clock, "sample.md")

	if err := c.AddTag("New Tag"); err != nil {
		t.Fatal(err)
	}
	s := c.Snapshot()
	if !strings.Contains(s.Text, `tags: ["go", "new-tag"]`) {
		t.Errorf("text = %q", s.Text)
	}

	clock.Advance(EchoDelay)
	if err := c.RemoveTag("go"); err != nil {
		t.Fatal(err)
	}
	if got := c.Snapshot().Tags; len(got) != 1 || got[0] != "new-tag" {
		t.Errorf("tags = %v", got)
	}
}

func TestSave_PersistsLatestText(t *testing.T) {
	c, store, clock := newFixture(t)
	openSettled(t, c, clock, "sample.md")

	if c.Snapshot().Dirty {
		t.Error("freshly opened document must not be dirty")
	}
	_ = c.EditText("---\nlayout: content\ntitle: Saved\n---\nb\n")
	if !c.Snapshot().Dirty {
		t.Error("edit must mark dirty")
	}

	doc, err := c.Save()
	if err != nil {
		t.Fatal(err)
	}
	if doc.Content != "---\nlayout: content\ntitle: Saved\n---\nb\n" {
		t.Errorf("saved content = %q", doc.Content)
	}
	if c.Snapshot().Dirty {
		t.Error("save must clear dirty")
	}
	stored, _ := store.Get("sample.md")
	if stored.Content != doc.Content {
		t.Error("store content mismatch")
	}
}
