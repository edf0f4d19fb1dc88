package validate

import (
	"strings"
	"testing"

	"github.com/odden/ansuz/internal/schema"
)

func newAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := New([]byte(schema.DefaultSchemaJSON))
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestValidate_ValidDocument(t *testing.T) {
	a := newAdapter(t)
	raw := "---\nlayout: content\ntitle: Guide\ncategory: docs\ntags: [\"go\", \"intro\"]\ndateAdded: 2026-02-01\nstatus: published\n---\nbody\n"
	res := a.Validate(raw)
	if !res.Valid {
		t.Fatalf("expected valid, got errors: %+v", res.Errors)
	}
	if len(res.Errors) != 0 {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestValidate_NoHeader(t *testing.T) {
	a := newAdapter(t)
	res := a.Validate("# No header here\n")
	if res.Valid {
		t.Fatal("expected invalid")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %+v, want exactly one", res.Errors)
	}
	if !strings.Contains(res.Errors[0].Message, "frontmatter") {
		t.Errorf("message = %q", res.Errors[0].Message)
	}
}

func TestValidate_NotInitialized(t *testing.T) {
	a := NewUninitialized()
	res := a.Validate("---\ntitle: X\n---\nbody")
	if res.Valid || len(res.Errors) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Errors[0].Message, "not initialized") {
		t.Errorf("message = %q", res.Errors[0].Message)
	}
	if a.Ready() {
		t.Error("Ready must be false before a schema is compiled")
	}
}

func TestValidate_ReportsFieldPath(t *testing.T) {
	a := newAdapter(t)
	raw := "---\nlayout: content\ntitle: Guide\nstatus: bogus\n---\nbody\n"
	res := a.Validate(raw)
	if res.Valid {
		t.Fatal("expected invalid")
	}
	found := false
	for _, e := range res.Errors {
		if e.Path == "/status" {
			found = true
			if e.Message == "" {
				t.Error("error message must not be empty")
			}
		}
	}
	if !found {
		t.Errorf("no error for /status in %+v", res.Errors)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	a := newAdapter(t)
	res := a.Validate("---\nlayout: content\n---\nbody\n")
	if res.Valid {
		t.Fatal("expected invalid: title is required")
	}
	if len(res.Errors) == 0 {
		t.Fatal("expected at least one error")
	}
}

func TestValidate_BadSchemaRejected(t *testing.T) {
	if _, err := New([]byte("{")); err == nil {
		t.Error("expected error for unparseable schema")
	}
	if _, err := New([]byte(`{"type": "nonsense"}`)); err == nil {
		t.Error("expected error for invalid schema")
	}
}

func TestReload_SwapsSchema(t *testing.T) {
	a, err := New([]byte(`{"type": "object", "required": ["alpha"]}`))
	if err != nil {
		t.Fatal(err)
	}
	raw := "---\nbeta: 1\n---\nbody"
	if res := a.Validate(raw); res.Valid {
		t.Fatal("expected invalid under first schema")
	}
	if err := a.Reload([]byte(`{"type": "object", "required": ["beta"]}`)); err != nil {
		t.Fatal(err)
	}
	if res := a.Validate(raw); !res.Valid {
		t.Fatalf("expected valid under reloaded schema: %+v", res.Errors)
	}
}
