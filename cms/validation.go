package cms

import (
	"fmt"
	"strings"
)

// ViolationKind names the rule a section broke.
type ViolationKind string

const (
	ViolationRequired ViolationKind = "required"
	ViolationMinWords ViolationKind = "min_words"
	ViolationMaxWords ViolationKind = "max_words"
)

// Violation is one section failing the publish gate.
type Violation struct {
	SectionID string        `json:"section_id"`
	Label     string        `json:"label"`
	Kind      ViolationKind `json:"kind"`
	Count     int           `json:"count"`
	Bound     int           `json:"bound,omitempty"`
}

func (v Violation) String() string {
	switch v.Kind {
	case ViolationRequired:
		return fmt.Sprintf("%s: section is required", v.Label)
	case ViolationMinWords:
		return fmt.Sprintf("%s: %d words, minimum is %d", v.Label, v.Count, v.Bound)
	case ViolationMaxWords:
		return fmt.Sprintf("%s: %d words, maximum is %d", v.Label, v.Count, v.Bound)
	}
	return v.Label
}

// ValidationErrors is the list of violations blocking a transition.
// It matches ErrValidationFailed under errors.Is.
type ValidationErrors []Violation

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, v := range ve {
		msgs[i] = v.String()
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(msgs, "; ")
}

func (ve ValidationErrors) Is(target error) bool {
	return target == ErrValidationFailed
}

// ContentFunc returns the HTML whose words are counted for a section.
// The rendering pipeline passes sanitized content here.
type ContentFunc func(SectionContent) string

// RawContent counts words on the content exactly as stored.
func RawContent(sc SectionContent) string {
	return sc.Content
}

// ValidateSections checks page content against the template's section
// constraints. Sections are checked in template order. A nil result means
// the page may be published.
func ValidateSections(tmpl *Template, page *Page, content ContentFunc) ValidationErrors {
	if content == nil {
		content = RawContent
	}
	var violations ValidationErrors

	for _, section := range tmpl.Ordered() {
		sc, _ := page.SectionContent(section.ID)
		if strings.TrimSpace(sc.Content) == "" {
			if section.Required {
				violations = append(violations, Violation{
					SectionID: section.ID,
					Label:     section.Label,
					Kind:      ViolationRequired,
				})
			}
			continue
		}

		count := CountWords(content(sc))
		if section.MinWords > 0 && count < section.MinWords {
			violations = append(violations, Violation{
				SectionID: section.ID,
				Label:     section.Label,
				Kind:      ViolationMinWords,
				Count:     count,
				Bound:     section.MinWords,
			})
		}
		if section.MaxWords > 0 && count > section.MaxWords {
			violations = append(violations, Violation{
				SectionID: section.ID,
				Label:     section.Label,
				Kind:      ViolationMaxWords,
				Count:     count,
				Bound:     section.MaxWords,
			})
		}
	}
	return violations
}

// Recommended lengths for search result snippets.
const (
	MaxTitleLength           = 60
	MaxMetaDescriptionLength = 160
)

// ValidateFields checks the fields every saved page needs.
func (p *Page) ValidateFields() error {
	missing := []string{}
	if strings.TrimSpace(p.PageKey) == "" {
		missing = append(missing, "page_key")
	}
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(p.MetaDescription) == "" {
		missing = append(missing, "meta_description")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	if !ValidSlug(p.Slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, p.Slug)
	}
	if !p.SchemaType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSchemaType, p.SchemaType)
	}
	return nil
}

// Warnings returns advisory SEO notices that never block a save.
func (p *Page) Warnings() []string {
	var warnings []string
	if n := len([]rune(p.Title)); n > MaxTitleLength {
		warnings = append(warnings, fmt.Sprintf("title is %d characters, recommended maximum is %d", n, MaxTitleLength))
	}
	if n := len([]rune(p.MetaDescription)); n > MaxMetaDescriptionLength {
		warnings = append(warnings, fmt.Sprintf("meta description is %d characters, recommended maximum is %d", n, MaxMetaDescriptionLength))
	}
	return warnings
}
