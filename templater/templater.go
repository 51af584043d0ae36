package templater

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Templater ecapsulates the map to prevent direct access. See RenderTemplate
type Templater struct {
	templates map[string]*template.Template
	funcs     template.FuncMap
}

func New() *Templater {
	return &Templater{}
}

// Load loads or reloads templates from fsys. baseGlob matches the base
// templates (layouts with the document head and chrome) and mainGlobs the
// templates that fill them. Each main template is parsed together with
// every base template and stored under its file name.
func (t *Templater) Load(fsys fs.FS, baseGlob string, mainGlobs ...string) error {
	base, err := fs.Glob(fsys, baseGlob)
	if err != nil {
		return err
	}
	if len(base) == 0 {
		return fmt.Errorf("no base templates match %s", baseGlob)
	}

	var mains []string
	for _, glob := range mainGlobs {
		matches, err := fs.Glob(fsys, glob)
		if err != nil {
			return err
		}
		mains = append(mains, matches...)
	}

	titler := cases.Title(language.English)

	t.funcs = template.FuncMap{
		"title":       titler.String,
		"capitalize":  capitalize,
		"pathEscape":  url.PathEscape,
		"queryEscape": url.QueryEscape,
		"statusText":  http.StatusText,
		"pageURL":     pageURL,
		"absURL":      absURL,
		"isoDate":     isoDate,
	}

	templates := make(map[string]*template.Template, len(mains))
	for _, main := range mains {
		name := path.Base(main)
		files := append(append([]string{}, base...), main)
		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(fsys, files...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", main, err)
		}
		templates[name] = tmpl
	}
	t.templates = templates
	return nil
}

// Has reports whether a content template was loaded under name.
func (t *Templater) Has(name string) bool {
	_, ok := t.templates[name]
	return ok
}

// RenderTemplate makes sure templates exist and renders them. Don't mix up name and base!
func (t *Templater) RenderTemplate(w io.Writer, name string, base string, data map[string]any) error {
	tmpl, ok := t.templates[name]
	if !ok {
		return fmt.Errorf("content template %s does not exist", name)
	}
	if tmpl.Lookup(base) == nil {
		return fmt.Errorf("base template %s does not exist", base)
	}
	return tmpl.ExecuteTemplate(w, base, data)
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToTitle(r)) + s[size:]
}
