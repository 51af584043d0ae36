package templater

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"templates/layouts/index.html": &fstest.MapFile{Data: []byte(
			`<title>{{.Title}}</title><main>{{template "content" .}}</main>`)},
		"templates/page.html": &fstest.MapFile{Data: []byte(
			`{{define "content"}}<a href="{{pageURL .Path}}">{{capitalize .Name}}</a>{{end}}`)},
		"templates/error.html": &fstest.MapFile{Data: []byte(
			`{{define "content"}}{{statusText .Code}}{{end}}`)},
	}
}

func TestLoadAndRender(t *testing.T) {
	tmpl := New()
	if err := tmpl.Load(testFS(), "templates/layouts/*.html", "templates/*.html"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !tmpl.Has("page.html") || !tmpl.Has("error.html") {
		t.Fatal("expected page.html and error.html to be loaded")
	}

	var buf bytes.Buffer
	err := tmpl.RenderTemplate(&buf, "page.html", "index.html", map[string]any{
		"Title": "A <b> title",
		"Path":  "services/seo audit",
		"Name":  "seo",
	})
	if err != nil {
		t.Fatalf("RenderTemplate failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<title>A &lt;b&gt; title</title>") {
		t.Errorf("expected escaped title, got %s", out)
	}
	if !strings.Contains(out, `href="/services/seo%20audit"`) {
		t.Errorf("expected escaped page URL, got %s", out)
	}
	if !strings.Contains(out, ">Seo</a>") {
		t.Errorf("expected capitalized name, got %s", out)
	}

	buf.Reset()
	if err := tmpl.RenderTemplate(&buf, "error.html", "index.html", map[string]any{"Code": 404}); err != nil {
		t.Fatalf("RenderTemplate failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Not Found") {
		t.Errorf("expected status text, got %s", buf.String())
	}
}

func TestRenderTemplate_Missing(t *testing.T) {
	tmpl := New()
	if err := tmpl.Load(testFS(), "templates/layouts/*.html", "templates/*.html"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	var buf bytes.Buffer
	if err := tmpl.RenderTemplate(&buf, "nope.html", "index.html", nil); err == nil {
		t.Error("expected error for unknown content template")
	}
	if err := tmpl.RenderTemplate(&buf, "page.html", "nope.html", nil); err == nil {
		t.Error("expected error for unknown base template")
	}
}

func TestLoad_NoLayouts(t *testing.T) {
	if err := New().Load(fstest.MapFS{}, "templates/layouts/*.html"); err == nil {
		t.Error("expected error when no layouts match")
	}
}

func TestURLHelpers(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{pageURL(""), "/"},
		{pageURL("/about/"), "/about"},
		{pageURL("services/seo"), "/services/seo"},
		{absURL("https://example.com/", "services/seo"), "https://example.com/services/seo"},
		{absURL("https://example.com", ""), "https://example.com/"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
