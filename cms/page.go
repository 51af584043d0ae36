package cms

import (
	"strings"
	"time"
)

// SchemaType is the Schema.org type a page is published as.
type SchemaType string

const (
	SchemaWebPage     SchemaType = "WebPage"
	SchemaArticle     SchemaType = "Article"
	SchemaBlogPosting SchemaType = "BlogPosting"
	SchemaProduct     SchemaType = "Product"
	SchemaService     SchemaType = "Service"
	SchemaFAQPage     SchemaType = "FAQPage"
)

// SchemaTypes lists every supported schema type in display order.
var SchemaTypes = []SchemaType{
	SchemaWebPage, SchemaArticle, SchemaBlogPosting,
	SchemaProduct, SchemaService, SchemaFAQPage,
}

// Valid reports whether t is one of the supported schema types.
func (t SchemaType) Valid() bool {
	for _, known := range SchemaTypes {
		if t == known {
			return true
		}
	}
	return false
}

// SchemaOptions carries the free-form structured data attached to a page,
// e.g. product price, brand, or service area. Keys follow Schema.org names.
type SchemaOptions map[string]any

// String returns the option value for key when it is a non-empty string.
func (o SchemaOptions) String(key string) string {
	if o == nil {
		return ""
	}
	s, _ := o[key].(string)
	return strings.TrimSpace(s)
}

// Page is a publishable unit of content.
type Page struct {
	ID              int64
	PageKey         string
	Slug            string
	Title           string
	MetaDescription string
	Keywords        []string
	CanonicalURL    string
	SchemaType      SchemaType
	SchemaOptions   SchemaOptions
	H1              string
	H2              string

	// Exactly one of Content or TemplateID/Sections is meaningful.
	// TemplateID wins when set.
	Content    string
	TemplateID string
	Sections   []SectionContent

	Status             Status
	IsPublic           bool
	ExcludeFromSitemap bool
	ParentPageKey      string

	ScheduledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
}

// NewPage returns a draft page with the defaults a freshly created page has.
func NewPage(pageKey, title string) *Page {
	return &Page{
		PageKey:    pageKey,
		Title:      title,
		SchemaType: SchemaWebPage,
		Status:     StatusDraft,
		IsPublic:   true,
	}
}

// UsesTemplate reports whether the page body is made of template sections.
func (p *Page) UsesTemplate() bool {
	return p.TemplateID != ""
}

// SectionContent returns the content stored for sectionID, if any.
func (p *Page) SectionContent(sectionID string) (SectionContent, bool) {
	for _, sc := range p.Sections {
		if sc.SectionID == sectionID {
			return sc, true
		}
	}
	return SectionContent{}, false
}

// SetSectionContent stores content for a section, replacing any previous
// entry so there is at most one per section id.
func (p *Page) SetSectionContent(sc SectionContent) {
	for i := range p.Sections {
		if p.Sections[i].SectionID == sc.SectionID {
			p.Sections[i] = sc
			return
		}
	}
	p.Sections = append(p.Sections, sc)
}

// IsVisible reports whether visitors may be served this page.
func (p *Page) IsVisible() bool {
	return p.Status == StatusPublished && p.IsPublic
}

// InSitemap reports whether the page belongs in sitemap.xml.
func (p *Page) InSitemap() bool {
	return p.IsVisible() && !p.ExcludeFromSitemap
}

// PageRef returns the hierarchy view of the page.
func (p *Page) PageRef() PageRef {
	return PageRef{PageKey: p.PageKey, Slug: p.Slug, ParentPageKey: p.ParentPageKey}
}
