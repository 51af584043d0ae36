package storage

import (
	"time"

	"github.com/danielledeleo/seocms/cms"
	"github.com/pkg/errors"
)

const templateColumns = `id, name, description, sections, created_at, updated_at`

type templateRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Sections    string    `db:"sections"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *templateRow) toTemplate() (*cms.Template, error) {
	t := &cms.Template{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if err := unmarshalColumn(r.Sections, &t.Sections); err != nil {
		return nil, errors.Wrapf(err, "template %s: sections", r.ID)
	}
	return t, nil
}

func newTemplateRow(t *cms.Template) (*templateRow, error) {
	sections, err := marshalColumn(t.Sections, "[]")
	if err != nil {
		return nil, err
	}
	return &templateRow{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Sections:    sections,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}, nil
}

func (db *Store) SelectTemplate(id string) (*cms.Template, error) {
	row := &templateRow{}
	if err := db.SelectTemplateStmt.Get(row, id); err != nil {
		return nil, errors.Wrapf(err, "select template %s", id)
	}
	return row.toTemplate()
}

func (db *Store) SelectTemplates() ([]*cms.Template, error) {
	rows := []templateRow{}
	if err := db.conn.Select(&rows, `SELECT `+templateColumns+` FROM PageTemplate ORDER BY name, id`); err != nil {
		return nil, errors.Wrap(err, "select templates")
	}
	templates := make([]*cms.Template, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toTemplate()
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func (db *Store) InsertTemplate(tmpl *cms.Template) error {
	row, err := newTemplateRow(tmpl)
	if err != nil {
		return err
	}
	_, err = db.conn.NamedExec(`INSERT INTO PageTemplate (id, name, description, sections, created_at, updated_at)
		VALUES (:id, :name, :description, :sections, :created_at, :updated_at)`, row)
	return errors.Wrapf(err, "insert template %s", tmpl.ID)
}

func (db *Store) UpdateTemplate(tmpl *cms.Template) error {
	row, err := newTemplateRow(tmpl)
	if err != nil {
		return err
	}
	result, err := db.conn.NamedExec(`UPDATE PageTemplate
		SET name = :name, description = :description, sections = :sections, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return errors.Wrapf(err, "update template %s", tmpl.ID)
	}
	return expectOneRow(result, "update template "+tmpl.ID)
}
