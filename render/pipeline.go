package render

import (
	"html/template"
	"regexp"
	"strings"

	"github.com/danielledeleo/seocms/cms"
)

// customMarkup detects content that brings its own styling, which is
// rendered without the default prose wrapper.
var customMarkup = regexp.MustCompile(`(?i)<[a-z][a-z0-9]*[^>]*class=`)

// HasCustomMarkup reports whether content carries class attributes.
func HasCustomMarkup(content string) bool {
	return customMarkup.MatchString(content)
}

// RenderedSection is one template section ready for output.
type RenderedSection struct {
	SectionID string
	Type      cms.SectionType
	Label     string
	HTML      string
	Custom    bool
	Words     int
}

// SafeHTML marks the sanitized section markup as trusted for html/template.
func (s RenderedSection) SafeHTML() template.HTML {
	return template.HTML(s.HTML)
}

// RenderedPage is the output of the pipeline for one page.
type RenderedPage struct {
	Page *cms.Page

	// Sections is set for template pages, Body for free-form pages.
	Sections   []RenderedSection
	Body       string
	BodyCustom bool

	WordCount  int
	Violations cms.ValidationErrors
}

// SafeBody marks the sanitized free-form body as trusted for html/template.
func (r *RenderedPage) SafeBody() template.HTML {
	return template.HTML(r.Body)
}

// UsesSections reports whether the page rendered through its template.
func (r *RenderedPage) UsesSections() bool {
	return r.Sections != nil
}

// HTML returns the complete body markup, sections joined in order.
func (r *RenderedPage) HTML() string {
	if !r.UsesSections() {
		return r.Body
	}
	var b strings.Builder
	for _, s := range r.Sections {
		b.WriteString(s.HTML)
	}
	return b.String()
}

// LinkContext is what the pipeline needs to insert internal links.
type LinkContext struct {
	Rules   []*cms.LinkRule
	BaseURL string
	// Targets maps page keys to link paths, see ApplyInternalLinks.
	Targets map[string]string
}

// Pipeline turns stored page content into safe, interlinked markup.
// Internal links are applied first; the sanitizer then runs over the
// result so inserted anchors are subject to the same rules as authored ones.
type Pipeline struct {
	sanitizer Sanitizer
}

// NewPipeline creates a pipeline using the given sanitizer strategy.
func NewPipeline(sanitizer Sanitizer) *Pipeline {
	return &Pipeline{sanitizer: sanitizer}
}

// Sanitizer returns the pipeline's sanitizer.
func (p *Pipeline) Sanitizer() Sanitizer {
	return p.sanitizer
}

// Process links and sanitizes one fragment.
func (p *Pipeline) Process(content string, links LinkContext) string {
	withLinks := ApplyInternalLinks(content, links.Rules, links.BaseURL, links.Targets)
	return p.sanitizer.Sanitize(withLinks)
}

// RenderPage renders page. tmpl is the page's template, or nil when the page
// has none or it could not be found. A template with no sections falls back
// to the page's free-form content.
func (p *Pipeline) RenderPage(page *cms.Page, tmpl *cms.Template, links LinkContext) *RenderedPage {
	out := &RenderedPage{Page: page}

	if page.UsesTemplate() && tmpl != nil && len(tmpl.Sections) > 0 {
		processed := make(map[string]string)
		out.Sections = []RenderedSection{}

		for _, section := range tmpl.Ordered() {
			sc, ok := page.SectionContent(section.ID)
			if !ok || strings.TrimSpace(sc.Content) == "" {
				continue
			}
			html := p.Process(sc.Content, links)
			processed[section.ID] = html
			words := cms.CountWords(html)
			out.WordCount += words
			out.Sections = append(out.Sections, RenderedSection{
				SectionID: section.ID,
				Type:      section.Type,
				Label:     section.Label,
				HTML:      html,
				Custom:    HasCustomMarkup(sc.Content),
				Words:     words,
			})
		}

		out.Violations = cms.ValidateSections(tmpl, page, func(sc cms.SectionContent) string {
			return processed[sc.SectionID]
		})
		return out
	}

	if strings.TrimSpace(page.Content) != "" {
		out.Body = p.Process(page.Content, links)
		out.BodyCustom = HasCustomMarkup(page.Content)
		out.WordCount = cms.CountWords(out.Body)
	}
	return out
}

// Validate runs the publish gate over sanitized section content. Pages
// without a template always pass.
func (p *Pipeline) Validate(page *cms.Page, tmpl *cms.Template) cms.ValidationErrors {
	if !page.UsesTemplate() || tmpl == nil {
		return nil
	}
	return cms.ValidateSections(tmpl, page, func(sc cms.SectionContent) string {
		return p.sanitizer.Sanitize(sc.Content)
	})
}
