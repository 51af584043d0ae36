package service

import (
	"errors"
	"html"
	"strings"
	"time"

	"github.com/danielledeleo/seocms/cms"
	"github.com/danielledeleo/seocms/cms/repository"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// TemplateService defines the interface for page template operations.
type TemplateService interface {
	GetTemplate(id string) (*cms.Template, error)
	ListTemplates() ([]*cms.Template, error)

	// SaveTemplate validates and stores a template, creating it when its
	// id is empty or unknown. Sections are renumbered 0..n-1.
	SaveTemplate(tmpl *cms.Template) error

	AddSection(templateID string, typ cms.SectionType) (cms.TemplateSection, error)
	RemoveSection(templateID, sectionID string) error
	MoveSection(templateID, sectionID string, index int) error
}

type templateService struct {
	repo  repository.TemplateRepository
	strip *bluemonday.Policy
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(repo repository.TemplateRepository) TemplateService {
	return &templateService{
		repo:  repo,
		strip: bluemonday.StrictPolicy(),
	}
}

func (s *templateService) GetTemplate(id string) (*cms.Template, error) {
	tmpl, err := s.repo.SelectTemplate(id)
	if err = notFound(err); errors.Is(err, cms.ErrGenericNotFound) {
		return nil, cms.ErrTemplateNotFound
	}
	return tmpl, err
}

func (s *templateService) ListTemplates() ([]*cms.Template, error) {
	return s.repo.SelectTemplates()
}

func (s *templateService) SaveTemplate(tmpl *cms.Template) error {
	tmpl.Name = s.plainText(tmpl.Name)
	tmpl.Description = s.plainText(tmpl.Description)
	for i := range tmpl.Sections {
		tmpl.Sections[i].Label = s.plainText(tmpl.Sections[i].Label)
	}
	tmpl.Normalize()
	if err := tmpl.Validate(); err != nil {
		return err
	}

	now := time.Now()
	tmpl.UpdatedAt = now

	if tmpl.ID != "" {
		existing, err := s.repo.SelectTemplate(tmpl.ID)
		if err == nil {
			tmpl.CreatedAt = existing.CreatedAt
			return notFound(s.repo.UpdateTemplate(tmpl))
		}
		if !errors.Is(notFound(err), cms.ErrGenericNotFound) {
			return err
		}
	} else {
		tmpl.ID = uuid.NewString()
	}

	tmpl.CreatedAt = now
	return s.repo.InsertTemplate(tmpl)
}

func (s *templateService) plainText(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.strip.Sanitize(v)))
}

// edit loads a template, applies fn and stores the result.
func (s *templateService) edit(id string, fn func(*cms.Template) error) error {
	tmpl, err := s.GetTemplate(id)
	if err != nil {
		return err
	}
	if err := fn(tmpl); err != nil {
		return err
	}
	return s.SaveTemplate(tmpl)
}

func (s *templateService) AddSection(templateID string, typ cms.SectionType) (cms.TemplateSection, error) {
	var added cms.TemplateSection
	err := s.edit(templateID, func(tmpl *cms.Template) error {
		var err error
		added, err = tmpl.AddSection(typ)
		return err
	})
	return added, err
}

func (s *templateService) RemoveSection(templateID, sectionID string) error {
	return s.edit(templateID, func(tmpl *cms.Template) error {
		return tmpl.RemoveSection(sectionID)
	})
}

func (s *templateService) MoveSection(templateID, sectionID string, index int) error {
	return s.edit(templateID, func(tmpl *cms.Template) error {
		return tmpl.MoveSection(sectionID, index)
	})
}
