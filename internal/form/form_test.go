package form

import (
	"reflect"
	"testing"

	"github.com/odden/ansuz/internal/header"
	"github.com/odden/ansuz/internal/sched"
	"github.com/odden/ansuz/internal/schema"
)

func newView(t *testing.T) (*View, *sched.Manual) {
	t.Helper()
	clock := sched.NewManual()
	return New(schema.Default(), clock), clock
}

func TestReadFields_AbsentNotEmpty(t *testing.T) {
	v, _ := newView(t)
	if err := v.SetField("title", "Hello"); err != nil {
		t.Fatal(err)
	}
	fields := v.ReadFields()
	if fields["title"] != "Hello" {
		t.Errorf("title = %v", fields["title"])
	}
	if _, ok := fields["description"]; ok {
		t.Error("empty control must contribute no key")
	}

	// Clearing a set field drops the key entirely.
	if err := v.SetField("title", ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := v.ReadFields()["title"]; ok {
		t.Error("cleared field must be absent, not empty string")
	}
}

func TestSetDocumentType_HidesFields(t *testing.T) {
	v, _ := newView(t)
	if err := v.SetField("category", "docs"); err != nil {
		t.Fatal(err)
	}
	v.SetDocumentType("base")
	if _, ok := v.ReadFields()["category"]; ok {
		t.Error("category must be excluded for base type despite retained value")
	}
	// Switching back restores the retained value.
	v.SetDocumentType("content")
	if v.ReadFields()["category"] != "docs" {
		t.Error("category should reappear for content type")
	}
}

func TestTagNormalizationAndDedup(t *testing.T) {
	v, _ := newView(t)
	if err := v.AddTag("Front Matter"); err != nil {
		t.Fatal(err)
	}
	if err := v.AddTag("front-matter"); err != nil {
		t.Fatal(err)
	}
	got := v.Tags()
	if !reflect.DeepEqual(got, []string{"front-matter"}) {
		t.Errorf("tags = %v", got)
	}
}

func TestTagCap(t *testing.T) {
	v, _ := newView(t)
	tags := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	for _, tag := range tags {
		if err := v.AddTag(tag); err != nil {
			t.Fatal(err)
		}
	}
	if err := v.AddTag("k"); err == nil {
		t.Fatal("11th tag must be rejected with an error")
	}
	if !reflect.DeepEqual(v.Tags(), tags) {
		t.Errorf("prior tags changed: %v", v.Tags())
	}
	// Duplicate of an existing tag is a silent no-op even at the cap.
	if err := v.AddTag("a"); err != nil {
		t.Errorf("duplicate add returned error: %v", err)
	}
}

func TestLoadFromFields_SuppressesNotifications(t *testing.T) {
	v, clock := newView(t)
	var events int
	v.Subscribe(func(header.Fields) { events++ })

	v.LoadFromFields(header.Fields{
		"layout": "content",
		"title":  "Loaded",
		"tags":   []string{"A", "a", "b"},
	})
	if events != 0 {
		t.Fatalf("load emitted %d notifications, want 0", events)
	}

	// Mutations inside the settling window stay suppressed.
	_ = v.SetField("title", "During settle")
	if events != 0 {
		t.Fatalf("settling window leak: %d notifications", events)
	}

	clock.Advance(SettleDelay)
	if err := v.SetField("title", "After settle"); err != nil {
		t.Fatal(err)
	}
	if events != 1 {
		t.Errorf("events = %d, want 1", events)
	}
}

func TestLoadFromFields_CaseFoldsTags(t *testing.T) {
	v, _ := newView(t)
	v.LoadFromFields(header.Fields{"layout": "content", "tags": []string{"a", "A", "a"}})
	if got := v.Tags(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("tags = %v, want [a]", got)
	}
}

func TestLoadFromFields_LenientDrops(t *testing.T) {
	v, _ := newView(t)
	v.LoadFromFields(header.Fields{
		"layout":   "content",
		"category": "not-an-option",
		"order":    "not-an-int",
		"audience": []string{"developers", "aliens"},
	})
	fields := v.ReadFields()
	if _, ok := fields["category"]; ok {
		t.Error("invalid choice must be dropped on load")
	}
	if _, ok := fields["order"]; ok {
		t.Error("non-int order must be dropped on load")
	}
	if got := fields["audience"]; !reflect.DeepEqual(got, []string{"developers"}) {
		t.Errorf("audience = %v", got)
	}
}

func TestSetField_Strictness(t *testing.T) {
	v, _ := newView(t)
	if err := v.SetField("status", "bogus"); err == nil {
		t.Error("out-of-catalog choice must be rejected")
	}
	if err := v.SetField("dateAdded", "01/02/2026"); err == nil {
		t.Error("non-ISO date must be rejected")
	}
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}
	if err := v.SetField("title", string(long)); err == nil {
		t.Error("over-limit title must be rejected")
	}
	if err := v.SetField("order", 3); err != nil {
		t.Errorf("int field: %v", err)
	}
}

func TestChangeCarriesFreshFields(t *testing.T) {
	v, clock := newView(t)
	var last header.Fields
	v.Subscribe(func(f header.Fields) { last = f })
	clock.Advance(SettleDelay)

	if err := v.SetField("title", "Fresh"); err != nil {
		t.Fatal(err)
	}
	if last == nil || last["title"] != "Fresh" || last["layout"] != "content" {
		t.Errorf("notification fields = %v", last)
	}
}

func TestTypeChangeEmitsOneNotification(t *testing.T) {
	v, _ := newView(t)
	var events int
	v.Subscribe(func(header.Fields) { events++ })
	v.SetDocumentType("section")
	if events != 1 {
		t.Errorf("events = %d, want 1", events)
	}
	v.SetDocumentType("section") // no-op
	if events != 1 {
		t.Errorf("repeat type set emitted extra notification")
	}
}
