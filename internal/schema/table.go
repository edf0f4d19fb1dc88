// Package schema supplies the document-type field table and the JSON
// Schema used for header validation. Both are configuration, loaded from
// files that may change independently of the core.
package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field kinds understood by the structured form.
const (
	KindText        = "text"
	KindLongText    = "longtext"
	KindChoice      = "choice"
	KindMultiChoice = "multichoice"
	KindTags        = "tags"
	KindDate        = "date"
	KindInt         = "int"
	KindURL         = "url"
)

// FieldSpec describes one structured field.
type FieldSpec struct {
	Name     string   `yaml:"name"`
	Label    string   `yaml:"label"`
	Kind     string   `yaml:"kind"`
	Required bool     `yaml:"required"`
	MaxLen   int      `yaml:"max_len"`
	Options  []string `yaml:"options"`
}

// Table is the full field catalog: the fixed field order, per-field specs,
// and the per-document-type visibility lists.
type Table struct {
	TypeField   string              `yaml:"type_field"`
	DefaultType string              `yaml:"default_type"`
	Fields      []FieldSpec         `yaml:"fields"`
	Types       map[string][]string `yaml:"types"`
}

// FieldOrder returns field names in catalog order. This is the canonical
// header serialization order.
func (t *Table) FieldOrder() []string {
	out := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = f.Name
	}
	return out
}

// Spec returns the spec for a field name.
func (t *Table) Spec(name string) (FieldSpec, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Visible returns the set of field names visible for the given document
// type. An unknown type sees only the type field itself.
func (t *Table) Visible(docType string) map[string]bool {
	vis := map[string]bool{t.TypeField: true}
	for _, name := range t.Types[docType] {
		vis[name] = true
	}
	return vis
}

// Validate checks internal consistency of a loaded table.
func (t *Table) Validate() error {
	if t.TypeField == "" {
		return fmt.Errorf("schema: type_field is required")
	}
	if _, ok := t.Spec(t.TypeField); !ok {
		return fmt.Errorf("schema: type_field %q is not in the field catalog", t.TypeField)
	}
	if _, ok := t.Types[t.DefaultType]; !ok {
		return fmt.Errorf("schema: default_type %q has no visibility entry", t.DefaultType)
	}
	for typ, names := range t.Types {
		for _, name := range names {
			if _, ok := t.Spec(name); !ok {
				return fmt.Errorf("schema: type %q lists unknown field %q", typ, name)
			}
		}
	}
	return nil
}

// Load reads a field table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read table: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("schema: parse table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Default returns the built-in field table used when no table file is
// configured.
func Default() *Table {
	return &Table{
		TypeField:   "layout",
		DefaultType: "content",
		Fields: []FieldSpec{
			{Name: "layout", Label: "Layout", Kind: KindChoice, Required: true,
				Options: []string{"content", "base", "section", "workspace"}},
			{Name: "title", Label: "Title", Kind: KindText, Required: true, MaxLen: 200},
			{Name: "category", Label: "Category", Kind: KindChoice, Required: true,
				Options: []string{"workspace", "docs", "examples", "api", "about"}},
			{Name: "description", Label: "Description", Kind: KindLongText, MaxLen: 160},
			{Name: "tags", Label: "Tags", Kind: KindTags},
			{Name: "audience", Label: "Audience", Kind: KindMultiChoice,
				Options: []string{"developers", "designers", "managers", "students"}},
			{Name: "dateAdded", Label: "Date Added", Kind: KindDate},
			{Name: "lastReviewed", Label: "Last Reviewed", Kind: KindDate},
			{Name: "reviewDue", Label: "Review Due", Kind: KindDate},
			{Name: "status", Label: "Status", Kind: KindChoice,
				Options: []string{"published", "draft", "archived"}},
			{Name: "order", Label: "Order", Kind: KindInt},
			{Name: "parent", Label: "Parent", Kind: KindText},
			{Name: "source", Label: "Source", Kind: KindText},
			{Name: "sourceUrl", Label: "Source URL", Kind: KindURL},
		},
		Types: map[string][]string{
			"content": {"layout", "title", "category", "description", "tags", "audience",
				"dateAdded", "lastReviewed", "reviewDue", "status", "order", "parent",
				"source", "sourceUrl"},
			"base":      {"layout", "title", "description", "tags"},
			"section":   {"layout", "title", "description"},
			"workspace": {"layout", "title", "description"},
		},
	}
}

// DefaultSchemaJSON is the built-in header schema used when no schema file
// is configured. It mirrors the default field table.
const DefaultSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["layout", "title"],
  "properties": {
    "layout": {"type": "string", "enum": ["content", "base", "section", "workspace"]},
    "title": {"type": "string", "minLength": 1, "maxLength": 200},
    "category": {"type": "string", "enum": ["workspace", "docs", "examples", "api", "about"]},
    "description": {"type": "string", "maxLength": 160},
    "tags": {"type": "array", "items": {"type": "string"}, "maxItems": 10},
    "audience": {"type": "array", "items": {"type": "string", "enum": ["developers", "designers", "managers", "students"]}},
    "dateAdded": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "lastReviewed": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "reviewDue": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "status": {"type": "string", "enum": ["published", "draft", "archived"]},
    "order": {"type": "integer", "minimum": 0},
    "parent": {"type": "string"},
    "source": {"type": "string"},
    "sourceUrl": {"type": "string"}
  },
  "additionalProperties": false
}`
