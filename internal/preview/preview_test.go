package preview

import (
	"strings"
	"testing"
)

func TestRender_Basic(t *testing.T) {
	r := New()
	got := r.Render("# Heading\n\nSome *emphasis*.")
	if !strings.Contains(got, "<h1") || !strings.Contains(got, "<em>emphasis</em>") {
		t.Errorf("render = %q", got)
	}
}

func TestRender_NeverEmptyOnGarbage(t *testing.T) {
	r := New()
	inputs := []string{"", "[[[]]](((", "<div>raw html</div>", "| broken | table\n|---"}
	for _, in := range inputs {
		got := r.Render(in)
		if got == "" && in != "" {
			t.Errorf("render(%q) returned empty", in)
		}
	}
}

func TestRenderDocument_WithHeader(t *testing.T) {
	r := New()
	raw := "---\ntitle: Demo\ntags: [\"a\", \"b\"]\n---\n# Body heading\n"
	got := r.RenderDocument(raw)
	if !strings.Contains(got, "preview-frontmatter") {
		t.Error("missing frontmatter table")
	}
	if !strings.Contains(got, "<td>title</td><td>Demo</td>") {
		t.Errorf("missing title row in %q", got)
	}
	if !strings.Contains(got, "a, b") {
		t.Error("sequence should display comma-joined")
	}
	if !strings.Contains(got, "<h1") {
		t.Error("body not rendered")
	}
}

func TestRenderDocument_NoHeader(t *testing.T) {
	r := New()
	got := r.RenderDocument("plain body\n")
	if strings.Contains(got, "preview-frontmatter") {
		t.Error("no header table expected")
	}
	if !strings.Contains(got, "plain body") {
		t.Errorf("body missing: %q", got)
	}
}

func TestRenderDocument_EscapesHeaderValues(t *testing.T) {
	r := New()
	got := r.RenderDocument("---\ntitle: <script>alert(1)</script>\n---\nx")
	if strings.Contains(got, "<script>") {
		t.Error("header values must be escaped")
	}
}
