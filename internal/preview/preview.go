// Package preview renders a document's Markdown body to HTML for the live
// preview pane.
package preview

import (
	"bytes"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"github.com/odden/ansuz/internal/header"
)

// Renderer converts Markdown to HTML. Rendering never fails: malformed
// input degrades to an escaped literal block.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a renderer with linkification, typography, and hard wraps.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Linkify,
				extension.Typographer,
				extension.Table,
				extension.Strikethrough,
			),
			goldmark.WithRendererOptions(
				htmlrenderer.WithHardWraps(),
			),
		),
	}
}

// Render converts Markdown body text to an HTML fragment.
func (r *Renderer) Render(body string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "<pre>" + html.EscapeString(body) + "</pre>"
	}
	return buf.String()
}

// RenderDocument renders a full document: a header summary table when a
// header block is present, followed by the rendered body.
func (r *Renderer) RenderDocument(raw string) string {
	d := header.Decode(raw)

	var out strings.Builder
	if d.HasHeader() {
		out.WriteString(`<div class="preview-frontmatter"><table><tbody>`)
		keys := make([]string, 0, len(d.Fields))
		for k := range d.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out.WriteString("<tr><td>")
			out.WriteString(html.EscapeString(k))
			out.WriteString("</td><td>")
			out.WriteString(html.EscapeString(displayValue(d.Fields[k])))
			out.WriteString("</td></tr>")
		}
		out.WriteString(`</tbody></table></div>`)
	}
	out.WriteString(`<div class="preview-body">`)
	out.WriteString(r.Render(d.Body))
	out.WriteString(`</div>`)
	return out.String()
}

func displayValue(v any) string {
	if list, ok := v.([]string); ok {
		return strings.Join(list, ", ")
	}
	return fmt.Sprint(v)
}
