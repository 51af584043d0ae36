package cms

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SectionType is the kind of content slot a template section holds.
type SectionType string

const (
	SectionHero         SectionType = "hero"
	SectionRichText     SectionType = "rich_text"
	SectionImageText    SectionType = "image_text"
	SectionCTA          SectionType = "cta"
	SectionFAQ          SectionType = "faq"
	SectionTestimonials SectionType = "testimonials"
	SectionGallery      SectionType = "gallery"
	SectionFeatures     SectionType = "features"
	SectionStats        SectionType = "stats"
	SectionContact      SectionType = "contact"
)

// SectionInfo describes a section type in the template editor's catalog.
type SectionInfo struct {
	Type        SectionType
	Label       string
	Description string
}

// SectionCatalog lists every section type in catalog order.
var SectionCatalog = []SectionInfo{
	{SectionHero, "Hero", "Main heading block with a tagline"},
	{SectionRichText, "Rich text", "Formatted text block"},
	{SectionImageText, "Image + text", "Image paired with text"},
	{SectionCTA, "Call to action", "Action button with supporting text"},
	{SectionFAQ, "FAQ", "Questions and answers"},
	{SectionTestimonials, "Testimonials", "Customer reviews and quotes"},
	{SectionGallery, "Gallery", "Grid of images or media"},
	{SectionFeatures, "Features", "List of features"},
	{SectionStats, "Stats", "Key figures"},
	{SectionContact, "Contact", "Contact form or details"},
}

// Default word bounds for sections added from the catalog.
const (
	DefaultSectionMinWords = 0
	DefaultSectionMaxWords = 5000
)

// Info returns the catalog entry for t.
func (t SectionType) Info() (SectionInfo, bool) {
	for _, info := range SectionCatalog {
		if info.Type == t {
			return info, true
		}
	}
	return SectionInfo{}, false
}

// Valid reports whether t is a known section type.
func (t SectionType) Valid() bool {
	_, ok := t.Info()
	return ok
}

// TemplateSection is a named, typed content slot within a template.
type TemplateSection struct {
	ID       string      `json:"id"`
	Type     SectionType `json:"type"`
	Label    string      `json:"label"`
	Required bool        `json:"required"`
	MinWords int         `json:"min_words"`
	MaxWords int         `json:"max_words"`
	Order    int         `json:"order"`
}

// Validate checks the section definition itself, not any content.
func (s TemplateSection) Validate() error {
	switch {
	case s.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidSection)
	case !s.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidSection, s.Type)
	case strings.TrimSpace(s.Label) == "":
		return fmt.Errorf("%w: section %s has no label", ErrInvalidSection, s.ID)
	case s.MinWords < 0 || s.MaxWords < 0:
		return fmt.Errorf("%w: %s: word bounds cannot be negative", ErrInvalidSection, s.Label)
	case s.MinWords > 0 && s.MaxWords > 0 && s.MinWords > s.MaxWords:
		return fmt.Errorf("%w: %s: min_words %d exceeds max_words %d", ErrInvalidSection, s.Label, s.MinWords, s.MaxWords)
	}
	return nil
}

// SectionContent is the HTML an author wrote for one template slot.
type SectionContent struct {
	SectionID string      `json:"section_id"`
	Type      SectionType `json:"type"`
	Content   string      `json:"content"`
}

// Template is an ordered collection of sections defining a page structure.
type Template struct {
	ID          string
	Name        string
	Description string
	Sections    []TemplateSection
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTemplate returns an empty template with a fresh id.
func NewTemplate(name string) *Template {
	return &Template{ID: uuid.NewString(), Name: name}
}

// Ordered returns the sections sorted by Order. The template is not modified.
func (t *Template) Ordered() []TemplateSection {
	sorted := make([]TemplateSection, len(t.Sections))
	copy(sorted, t.Sections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// Normalize sorts the sections by Order and renumbers them 0..n-1.
func (t *Template) Normalize() {
	t.Sections = t.Ordered()
	for i := range t.Sections {
		t.Sections[i].Order = i
	}
}

// Section returns the section with the given id.
func (t *Template) Section(id string) (TemplateSection, bool) {
	for _, s := range t.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return TemplateSection{}, false
}

// AddSection appends a section of type typ with catalog defaults and returns it.
func (t *Template) AddSection(typ SectionType) (TemplateSection, error) {
	info, ok := typ.Info()
	if !ok {
		return TemplateSection{}, fmt.Errorf("%w: unknown type %q", ErrInvalidSection, typ)
	}
	t.Normalize()
	s := TemplateSection{
		ID:       uuid.NewString(),
		Type:     typ,
		Label:    info.Label,
		Required: true,
		MinWords: DefaultSectionMinWords,
		MaxWords: DefaultSectionMaxWords,
		Order:    len(t.Sections),
	}
	t.Sections = append(t.Sections, s)
	return s, nil
}

// RemoveSection deletes the section with the given id and renumbers the rest.
func (t *Template) RemoveSection(id string) error {
	t.Normalize()
	for i, s := range t.Sections {
		if s.ID == id {
			t.Sections = append(t.Sections[:i], t.Sections[i+1:]...)
			t.Normalize()
			return nil
		}
	}
	return ErrGenericNotFound
}

// MoveSection moves the section with the given id to position index.
// Out-of-range indexes are clamped.
func (t *Template) MoveSection(id string, index int) error {
	t.Normalize()
	from := -1
	for i, s := range t.Sections {
		if s.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return ErrGenericNotFound
	}
	if index < 0 {
		index = 0
	}
	if index >= len(t.Sections) {
		index = len(t.Sections) - 1
	}

	s := t.Sections[from]
	rest := append(t.Sections[:from:from], t.Sections[from+1:]...)
	moved := make([]TemplateSection, 0, len(t.Sections))
	moved = append(moved, rest[:index]...)
	moved = append(moved, s)
	moved = append(moved, rest[index:]...)
	t.Sections = moved

	for i := range t.Sections {
		t.Sections[i].Order = i
	}
	return nil
}

// Validate checks every section and that ids are unique.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: template name", ErrMissingField)
	}
	seen := make(map[string]bool, len(t.Sections))
	for _, s := range t.Sections {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidSection, s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}
