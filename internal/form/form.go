// Package form is the structured, form-like projection of one document's
// header fields, with visibility rules keyed by document type and tag
// editing affordances.
package form

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/odden/ansuz/internal/header"
	"github.com/odden/ansuz/internal/sched"
	"github.com/odden/ansuz/internal/schema"
)

// MaxTags is the hard cap on tag-set size. Enforced at the point of entry,
// never silently truncated elsewhere.
const MaxTags = 10

// SettleDelay is how long change notifications stay suppressed after a
// programmatic load, letting dependent controls settle.
const SettleDelay = 100 * time.Millisecond

var whitespaceRe = regexp.MustCompile(`\s+`)

type listener struct {
	id int
	fn func(header.Fields)
}

// View is the editable structured projection of the open document's header.
// It is not safe for concurrent use; the synchronization controller is its
// only caller.
type View struct {
	table   *schema.Table
	sched   sched.Scheduler
	docType string
	values  map[string]any

	suppressed bool
	release    sched.Timer

	listeners []listener
	nextID    int
}

// New creates a View over the given field table. Scheduler may be nil, in
// which case real timers are used.
func New(table *schema.Table, scheduler sched.Scheduler) *View {
	if scheduler == nil {
		scheduler = sched.Wall{}
	}
	v := &View{
		table:  table,
		sched:  scheduler,
		values: make(map[string]any),
	}
	v.setType(table.DefaultType)
	return v
}

// Subscribe registers a change listener. Each user-driven mutation emits a
// single notification carrying the freshly computed ReadFields result.
// Notification is synchronous and ordered by registration; the returned
// function unregisters.
func (v *View) Subscribe(fn func(header.Fields)) func() {
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

func (v *View) notifyChange() {
	if v.suppressed {
		return
	}
	fields := v.ReadFields()
	for _, l := range v.listeners {
		l.fn(fields)
	}
}

// DocumentType returns the active document type.
func (v *View) DocumentType() string { return v.docType }

// VisibleFields returns the specs of the fields visible for the active
// type, in catalog order.
func (v *View) VisibleFields() []schema.FieldSpec {
	vis := v.table.Visible(v.docType)
	var out []schema.FieldSpec
	for _, spec := range v.table.Fields {
		if vis[spec.Name] {
			out = append(out, spec)
		}
	}
	return out
}

// LoadFromFields populates the form from decoded header fields, suppressing
// change notifications for the load and a short settling window afterwards.
// Loading is lenient: values that no control could hold are dropped rather
// than rejected.
func (v *View) LoadFromFields(fields header.Fields) {
	v.suppressed = true
	if v.release != nil {
		v.release.Stop()
	}

	if t, ok := fields[v.table.TypeField].(string); ok && t != "" {
		v.setType(t)
	} else {
		v.setType(v.table.DefaultType)
	}

	for _, spec := range v.table.Fields {
		if spec.Name == v.table.TypeField {
			continue
		}
		raw, ok := fields[spec.Name]
		if !ok {
			delete(v.values, spec.Name)
			continue
		}
		v.loadValue(spec, raw)
	}

	v.release = v.sched.AfterFunc(SettleDelay, func() { v.suppressed = false })
}

func (v *View) loadValue(spec schema.FieldSpec, raw any) {
	switch spec.Kind {
	case schema.KindTags:
		list, ok := toStringSlice(raw)
		if !ok {
			delete(v.values, spec.Name)
			return
		}
		v.values[spec.Name] = normalizeTags(list)
	case schema.KindMultiChoice:
		list, ok := toStringSlice(raw)
		if !ok {
			delete(v.values, spec.Name)
			return
		}
		var kept []string
		for _, e := range list {
			if contains(spec.Options, e) {
				kept = append(kept, e)
			}
		}
		v.values[spec.Name] = kept
	case schema.KindChoice:
		s, ok := raw.(string)
		if !ok || !contains(spec.Options, s) {
			delete(v.values, spec.Name)
			return
		}
		v.values[spec.Name] = s
	case schema.KindInt:
		n, ok := raw.(int)
		if !ok {
			delete(v.values, spec.Name)
			return
		}
		v.values[spec.Name] = n
	default:
		// Text-like controls coerce scalars to their display string.
		switch s := raw.(type) {
		case string:
			v.values[spec.Name] = s
		case int, bool:
			v.values[spec.Name] = fmt.Sprint(s)
		default:
			delete(v.values, spec.Name)
		}
	}
}

// ReadFields reconstructs the field set strictly from visible, populated
// controls. An empty control contributes no key: absence, not an empty
// string.
func (v *View) ReadFields() header.Fields {
	vis := v.table.Visible(v.docType)
	fields := header.Fields{v.table.TypeField: v.docType}
	for _, spec := range v.table.Fields {
		if spec.Name == v.table.TypeField || !vis[spec.Name] {
			continue
		}
		raw, ok := v.values[spec.Name]
		if !ok {
			continue
		}
		switch val := raw.(type) {
		case string:
			if val != "" {
				fields[spec.Name] = val
			}
		case []string:
			if len(val) > 0 {
				fields[spec.Name] = append([]string(nil), val...)
			}
		case int:
			fields[spec.Name] = val
		}
	}
	return fields
}

// SetDocumentType switches the active type, recomputing field visibility.
// Hidden fields retain their values but are excluded from ReadFields.
func (v *View) SetDocumentType(docType string) {
	if docType == v.docType {
		return
	}
	v.setType(docType)
	v.notifyChange()
}

func (v *View) setType(docType string) {
	v.docType = docType
	v.values[v.table.TypeField] = docType
}

// SetField applies a user edit to a scalar or multi-choice field. Unlike
// loading, user entry is strict: unknown fields, wrong kinds, over-limit
// text, and out-of-catalog choices are rejected.
func (v *View) SetField(name string, value any) error {
	spec, ok := v.table.Spec(name)
	if !ok {
		return fmt.Errorf("form: unknown field %q", name)
	}
	if name == v.table.TypeField {
		s, ok := value.(string)
		if !ok || !contains(spec.Options, s) {
			return fmt.Errorf("form: %s: invalid document type %v", name, value)
		}
		v.SetDocumentType(s)
		return nil
	}

	switch spec.Kind {
	case schema.KindTags:
		return fmt.Errorf("form: %s: use AddTag/RemoveTag", name)
	case schema.KindChoice:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("form: %s: want string, got %T", name, value)
		}
		if s != "" && !contains(spec.Options, s) {
			return fmt.Errorf("form: %s: %q is not an option", name, s)
		}
		v.setOrClear(name, s)
	case schema.KindMultiChoice:
		list, ok := toStringSlice(value)
		if !ok {
			return fmt.Errorf("form: %s: want []string, got %T", name, value)
		}
		for _, e := range list {
			if !contains(spec.Options, e) {
				return fmt.Errorf("form: %s: %q is not an option", name, e)
			}
		}
		v.values[name] = list
	case schema.KindInt:
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("form: %s: want int, got %T", name, value)
		}
		v.values[name] = n
	case schema.KindDate:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("form: %s: want string, got %T", name, value)
		}
		if s != "" {
			if _, err := time.Parse("2006-01-02", s); err != nil {
				return fmt.Errorf("form: %s: want YYYY-MM-DD, got %q", name, s)
			}
		}
		v.setOrClear(name, s)
	default:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("form: %s: want string, got %T", name, value)
		}
		if spec.MaxLen > 0 && len(s) > spec.MaxLen {
			return fmt.Errorf("form: %s: exceeds %d characters", name, spec.MaxLen)
		}
		v.setOrClear(name, s)
	}
	v.notifyChange()
	return nil
}

func (v *View) setOrClear(name, s string) {
	if s == "" {
		delete(v.values, name)
	} else {
		v.values[name] = s
	}
}

// ClearField removes a field's value. The encoder will then drop the key
// entirely rather than emitting an empty value.
func (v *View) ClearField(name string) {
	if _, ok := v.values[name]; !ok {
		return
	}
	delete(v.values, name)
	v.notifyChange()
}

// Tags returns the current tag set of the first tags-kind field.
func (v *View) Tags() []string {
	for _, spec := range v.table.Fields {
		if spec.Kind == schema.KindTags {
			if list, ok := v.values[spec.Name].([]string); ok {
				return append([]string(nil), list...)
			}
			return nil
		}
	}
	return nil
}

// AddTag normalizes raw (lowercase, whitespace to hyphens) and appends it
// to the tag set. Duplicates are rejected silently; the 11th tag is
// rejected with a visible error and the existing set is left unchanged.
func (v *View) AddTag(raw string) error {
	tag := NormalizeTag(raw)
	if tag == "" {
		return nil
	}
	name := v.tagsFieldName()
	if name == "" {
		return fmt.Errorf("form: no tags field in catalog")
	}
	current, _ := v.values[name].([]string)
	if contains(current, tag) {
		return nil
	}
	if len(current) >= MaxTags {
		return fmt.Errorf("form: maximum %d tags allowed", MaxTags)
	}
	v.values[name] = append(current, tag)
	v.notifyChange()
	return nil
}

// RemoveTag deletes a tag from the set. Removing an absent tag is a no-op.
func (v *View) RemoveTag(tag string) {
	name := v.tagsFieldName()
	if name == "" {
		return
	}
	current, _ := v.values[name].([]string)
	for i, t := range current {
		if t == tag {
			v.values[name] = append(current[:i:i], current[i+1:]...)
			v.notifyChange()
			return
		}
	}
}

func (v *View) tagsFieldName() string {
	for _, spec := range v.table.Fields {
		if spec.Kind == schema.KindTags {
			return spec.Name
		}
	}
	return ""
}

// NormalizeTag lowercases and hyphen-joins a raw tag.
func NormalizeTag(raw string) string {
	tag := strings.ToLower(strings.TrimSpace(raw))
	return whitespaceRe.ReplaceAllString(tag, "-")
}

// normalizeTags applies NormalizeTag to a loaded list, de-duplicating and
// honouring the cap.
func normalizeTags(list []string) []string {
	var out []string
	for _, raw := range list {
		tag := NormalizeTag(raw)
		if tag == "" || contains(out, tag) {
			continue
		}
		if len(out) >= MaxTags {
			break
		}
		out = append(out, tag)
	}
	return out
}

func toStringSlice(v any) ([]string, bool) {
	switch val := v.(type) {
	case []string:
		return val, true
	case string:
		if val == "" {
			return nil, true
		}
		return []string{val}, true
	default:
		return nil, false
	}
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
