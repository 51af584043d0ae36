package repository

import "github.com/danielledeleo/seocms/cms"

// TemplateRepository defines the interface for template persistence.
type TemplateRepository interface {
	SelectTemplate(id string) (*cms.Template, error)
	SelectTemplates() ([]*cms.Template, error)
	InsertTemplate(tmpl *cms.Template) error
	UpdateTemplate(tmpl *cms.Template) error
}
