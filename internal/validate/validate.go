// Package validate checks a document's header fields against the
// workspace JSON Schema and normalizes the validator's report.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odden/ansuz/internal/header"
)

// Error is one normalized validation finding. Path, Keyword, and Params
// are reported verbatim from the schema validator.
type Error struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Keyword string `json:"keyword,omitempty"`
	Params  any    `json:"params,omitempty"`
}

// Result is the outcome of validating one document.
type Result struct {
	Valid  bool    `json:"valid"`
	Errors []Error `json:"errors"`
}

var printer = message.NewPrinter(language.English)

// Adapter wraps the external schema validator. The compiled schema can be
// swapped at runtime when the schema source changes.
type Adapter struct {
	mu  sync.RWMutex
	sch *jsonschema.Schema
}

// New compiles schemaJSON and returns a ready adapter.
func New(schemaJSON []byte) (*Adapter, error) {
	a := &Adapter{}
	if err := a.Reload(schemaJSON); err != nil {
		return nil, err
	}
	return a, nil
}

// NewUninitialized returns an adapter with no compiled schema. Validate
// degrades to a labeled "not initialized" result until Reload succeeds.
func NewUninitialized() *Adapter {
	return &Adapter{}
}

// Reload compiles and swaps in a new schema. On failure the previous
// schema, if any, stays active.
func (a *Adapter) Reload(schemaJSON []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("validate: parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("workspace://header.schema.json", doc); err != nil {
		return fmt.Errorf("validate: add schema resource: %w", err)
	}
	sch, err := c.Compile("workspace://header.schema.json")
	if err != nil {
		return fmt.Errorf("validate: compile schema: %w", err)
	}

	a.mu.Lock()
	a.sch = sch
	a.mu.Unlock()
	return nil
}

// Ready reports whether a schema is compiled.
func (a *Adapter) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sch != nil
}

// Validate decodes the header from raw text and validates the field set.
// It never returns an error: missing header and missing validator both
// degrade to a single synthetic finding.
func (a *Adapter) Validate(raw string) Result {
	a.mu.RLock()
	sch := a.sch
	a.mu.RUnlock()

	if sch == nil {
		return Result{Valid: false, Errors: []Error{{Message: "Validator not initialized"}}}
	}

	d := header.Decode(raw)
	if !d.HasHeader() {
		return Result{Valid: false, Errors: []Error{{Message: "No frontmatter found"}}}
	}

	inst, err := toInstance(d.Fields)
	if err != nil {
		return Result{Valid: false, Errors: []Error{{Message: err.Error()}}}
	}

	err = sch.Validate(inst)
	if err == nil {
		return Result{Valid: true, Errors: []Error{}}
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return Result{Valid: false, Errors: []Error{{Message: err.Error()}}}
	}
	return Result{Valid: false, Errors: collect(ve, nil)}
}

// toInstance converts decoded fields into the JSON value shape the
// validator expects.
func toInstance(fields header.Fields) (any, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("validate: encode fields: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("validate: decode fields: %w", err)
	}
	return inst, nil
}

// collect flattens the validator's cause tree depth-first, preserving its
// native first-encountered-first ordering.
func collect(ve *jsonschema.ValidationError, out []Error) []Error {
	if len(ve.Causes) == 0 {
		keyword := ""
		if kp := ve.ErrorKind.KeywordPath(); len(kp) > 0 {
			keyword = kp[len(kp)-1]
		}
		return append(out, Error{
			Path:    pointer(ve.InstanceLocation),
			Message: ve.ErrorKind.LocalizedString(printer),
			Keyword: keyword,
			Params:  ve.ErrorKind,
		})
	}
	for _, cause := range ve.Causes {
		out = collect(cause, out)
	}
	return out
}

func pointer(loc []string) string {
	if len(loc) == 0 {
		return ""
	}
	return "/" + strings.Join(loc, "/")
}
