// Package header is the single two-way mapping between a document's
// frontmatter header block and its structured field set. No other code
// may encode or decode a header.
package header

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// headerRe matches a leading frontmatter block: an opening --- fence on the
// first line, the key/value lines, a closing --- fence, then the body.
var headerRe = regexp.MustCompile(`(?s)^---[ \t]*\n(.*?)\n---[ \t]*\n(.*)$`)

// Fields is a decoded header: field name to string, int, bool, or []string.
type Fields map[string]any

// Result holds the output of decoding a document's raw text.
// Fields is nil when no well-formed header block is present.
type Result struct {
	Fields Fields
	Body   string
}

// HasHeader reports whether a header block was found during decode.
func (r Result) HasHeader() bool {
	return r.Fields != nil
}

// Decode splits raw text into header fields and body. Absence of a
// well-formed header block is not an error: the whole text becomes the
// body and Fields is nil. Malformed lines inside the block are skipped,
// and undecodable values are kept as literal strings.
func Decode(raw string) Result {
	m := headerRe.FindStringSubmatch(raw)
	if m == nil {
		return Result{Body: raw}
	}

	fields := Fields{}
	for _, line := range strings.Split(m[1], "\n") {
		idx := strings.Index(line, ":")
		if idx <= 0 {
			// No colon, or empty key. Never fatal.
			continue
		}
		key := strings.TrimSpace(line[:idx])
		if key == "" {
			continue
		}
		fields[key] = decodeValue(strings.TrimSpace(line[idx+1:]))
	}
	return Result{Fields: fields, Body: m[2]}
}

// decodeValue best-effort types a raw header value: bracketed sequences,
// quoted strings, integers, booleans, else the literal string.
func decodeValue(v string) any {
	if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
		return decodeSequence(v[1 : len(v)-1])
	}
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	if n, err := strconv.Atoi(v); err == nil && isDigits(v) {
		return n
	}
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

func decodeSequence(inner string) []string {
	if strings.TrimSpace(inner) == "" {
		return []string{}
	}
	parts := strings.Split(inner, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, unquote(strings.TrimSpace(p)))
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Encode serializes fields into header block text (without the --- fences),
// one "key: value" line per field present in order whose value is non-empty.
// The fixed order keeps output deterministic and diff-friendly. Sequences
// render as bracketed, comma-separated, quoted elements.
func Encode(fields Fields, order []string) string {
	var lines []string
	for _, key := range order {
		v, ok := fields[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if val == "" {
				continue
			}
			lines = append(lines, key+": "+val)
		case []string:
			if len(val) == 0 {
				continue
			}
			quoted := make([]string, len(val))
			for i, e := range val {
				quoted[i] = `"` + e + `"`
			}
			lines = append(lines, key+": ["+strings.Join(quoted, ", ")+"]")
		case int:
			lines = append(lines, fmt.Sprintf("%s: %d", key, val))
		case bool:
			lines = append(lines, fmt.Sprintf("%s: %t", key, val))
		default:
			lines = append(lines, fmt.Sprintf("%s: %v", key, val))
		}
	}
	return strings.Join(lines, "\n")
}

// Splice replaces the header block of raw with a new one built from fields.
// The body is whatever followed the previous header, or the whole text when
// none existed; a body line that itself looks like a closing fence can
// shift the split point (first-match splice).
func Splice(raw string, fields Fields, order []string) string {
	body := Decode(raw).Body
	return "---\n" + Encode(fields, order) + "\n---\n" + body
}
