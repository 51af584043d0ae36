package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/danielledeleo/seocms/cms"
	"github.com/pkg/errors"
)

// Page repository methods for Store

const pageColumns = `id, page_key, slug, title, meta_description, keywords, canonical_url,
	schema_type, schema_options, h1, h2, content, template_id, sections_content, status,
	is_public, exclude_from_sitemap, parent_page_key, scheduled_at, created_at, updated_at, published_at`

// pageRow is a Page as stored. List-valued fields are JSON text.
type pageRow struct {
	ID                 int64          `db:"id"`
	PageKey            string         `db:"page_key"`
	Slug               string         `db:"slug"`
	Title              string         `db:"title"`
	MetaDescription    string         `db:"meta_description"`
	Keywords           string         `db:"keywords"`
	CanonicalURL       string         `db:"canonical_url"`
	SchemaType         string         `db:"schema_type"`
	SchemaOptions      string         `db:"schema_options"`
	H1                 string         `db:"h1"`
	H2                 string         `db:"h2"`
	Content            string         `db:"content"`
	TemplateID         sql.NullString `db:"template_id"`
	SectionsContent    string         `db:"sections_content"`
	Status             string         `db:"status"`
	IsPublic           bool           `db:"is_public"`
	ExcludeFromSitemap bool           `db:"exclude_from_sitemap"`
	ParentPageKey      sql.NullString `db:"parent_page_key"`
	ScheduledAt        sql.NullTime   `db:"scheduled_at"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
	PublishedAt        sql.NullTime   `db:"published_at"`
}

func (r *pageRow) toPage() (*cms.Page, error) {
	p := &cms.Page{
		ID:                 r.ID,
		PageKey:            r.PageKey,
		Slug:               r.Slug,
		Title:              r.Title,
		MetaDescription:    r.MetaDescription,
		CanonicalURL:       r.CanonicalURL,
		SchemaType:         cms.SchemaType(r.SchemaType),
		H1:                 r.H1,
		H2:                 r.H2,
		Content:            r.Content,
		TemplateID:         r.TemplateID.String,
		Status:             cms.Status(r.Status),
		IsPublic:           r.IsPublic,
		ExcludeFromSitemap: r.ExcludeFromSitemap,
		ParentPageKey:      r.ParentPageKey.String,
		ScheduledAt:        fromNullTime(r.ScheduledAt),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		PublishedAt:        fromNullTime(r.PublishedAt),
	}
	if err := unmarshalColumn(r.Keywords, &p.Keywords); err != nil {
		return nil, errors.Wrapf(err, "page %s: keywords", r.PageKey)
	}
	if err := unmarshalColumn(r.SchemaOptions, &p.SchemaOptions); err != nil {
		return nil, errors.Wrapf(err, "page %s: schema_options", r.PageKey)
	}
	if err := unmarshalColumn(r.SectionsContent, &p.Sections); err != nil {
		return nil, errors.Wrapf(err, "page %s: sections_content", r.PageKey)
	}
	return p, nil
}

func newPageRow(p *cms.Page) (*pageRow, error) {
	r := &pageRow{
		ID:                 p.ID,
		PageKey:            p.PageKey,
		Slug:               p.Slug,
		Title:              p.Title,
		MetaDescription:    p.MetaDescription,
		CanonicalURL:       p.CanonicalURL,
		SchemaType:         string(p.SchemaType),
		H1:                 p.H1,
		H2:                 p.H2,
		Content:            p.Content,
		TemplateID:         nullString(p.TemplateID),
		Status:             string(p.Status),
		IsPublic:           p.IsPublic,
		ExcludeFromSitemap: p.ExcludeFromSitemap,
		ParentPageKey:      nullString(p.ParentPageKey),
		ScheduledAt:        toNullTime(p.ScheduledAt),
		CreatedAt:          p.CreatedAt.UTC(),
		UpdatedAt:          p.UpdatedAt.UTC(),
		PublishedAt:        toNullTime(p.PublishedAt),
	}
	var err error
	if r.Keywords, err = marshalColumn(p.Keywords, "[]"); err != nil {
		return nil, err
	}
	if r.SchemaOptions, err = marshalColumn(p.SchemaOptions, "{}"); err != nil {
		return nil, err
	}
	if r.SectionsContent, err = marshalColumn(p.Sections, "[]"); err != nil {
		return nil, err
	}
	return r, nil
}

func (db *Store) SelectPage(pageKey string) (*cms.Page, error) {
	row := &pageRow{}
	if err := db.SelectPageStmt.Get(row, pageKey); err != nil {
		return nil, errors.Wrapf(err, "select page %s", pageKey)
	}
	return row.toPage()
}

func (db *Store) InsertPage(page *cms.Page) error {
	row, err := newPageRow(page)
	if err != nil {
		return err
	}
	result, err := db.conn.NamedExec(`INSERT INTO Page (
			page_key, slug, title, meta_description, keywords, canonical_url, schema_type,
			schema_options, h1, h2, content, template_id, sections_content, status, is_public,
			exclude_from_sitemap, parent_page_key, scheduled_at, created_at, updated_at, published_at)
		VALUES (
			:page_key, :slug, :title, :meta_description, :keywords, :canonical_url, :schema_type,
			:schema_options, :h1, :h2, :content, :template_id, :sections_content, :status, :is_public,
			:exclude_from_sitemap, :parent_page_key, :scheduled_at, :created_at, :updated_at, :published_at)`, row)
	if err != nil {
		return errors.Wrapf(err, "insert page %s", page.PageKey)
	}
	page.ID, err = result.LastInsertId()
	return err
}

func (db *Store) UpdatePage(page *cms.Page) error {
	row, err := newPageRow(page)
	if err != nil {
		return err
	}
	result, err := db.conn.NamedExec(`UPDATE Page SET
			slug = :slug, title = :title, meta_description = :meta_description, keywords = :keywords,
			canonical_url = :canonical_url, schema_type = :schema_type, schema_options = :schema_options,
			h1 = :h1, h2 = :h2, content = :content, template_id = :template_id,
			sections_content = :sections_content, status = :status, is_public = :is_public,
			exclude_from_sitemap = :exclude_from_sitemap, parent_page_key = :parent_page_key,
			scheduled_at = :scheduled_at, updated_at = :updated_at, published_at = :published_at
		WHERE page_key = :page_key`, row)
	if err != nil {
		return errors.Wrapf(err, "update page %s", page.PageKey)
	}
	return expectOneRow(result, "update page "+page.PageKey)
}

func (db *Store) UpdatePageStatus(page *cms.Page) error {
	result, err := db.conn.Exec(`UPDATE Page SET status = ?, updated_at = ?, published_at = ? WHERE page_key = ?`,
		string(page.Status), page.UpdatedAt.UTC(), toNullTime(page.PublishedAt), page.PageKey)
	if err != nil {
		return errors.Wrapf(err, "update status of page %s", page.PageKey)
	}
	return expectOneRow(result, "update status of page "+page.PageKey)
}

func (db *Store) UpdatePageParent(pageKey string, parentPageKey string) error {
	result, err := db.conn.Exec(`UPDATE Page SET parent_page_key = ?, updated_at = ? WHERE page_key = ?`,
		nullString(parentPageKey), time.Now().UTC(), pageKey)
	if err != nil {
		return errors.Wrapf(err, "update parent of page %s", pageKey)
	}
	return expectOneRow(result, "update parent of page "+pageKey)
}

func (db *Store) SelectPageRefs() ([]cms.PageRef, error) {
	refs := []cms.PageRef{}
	if err := db.SelectPageRefsStmt.Select(&refs); err != nil {
		return nil, errors.Wrap(err, "select page refs")
	}
	return refs, nil
}

func (db *Store) SelectPublishedPageRefs() ([]cms.PageRef, error) {
	refs := []cms.PageRef{}
	err := db.conn.Select(&refs, `
		SELECT page_key, slug, COALESCE(parent_page_key, '') AS parent_page_key
		FROM Page WHERE status = ? ORDER BY id`, string(cms.StatusPublished))
	if err != nil {
		return nil, errors.Wrap(err, "select published page refs")
	}
	return refs, nil
}

func (db *Store) SelectSitemapPages() ([]*cms.Page, error) {
	return db.selectPages(`SELECT `+pageColumns+` FROM Page
		WHERE status = ? AND is_public = 1 AND exclude_from_sitemap = 0
		ORDER BY id`, string(cms.StatusPublished))
}

func (db *Store) SelectPendingPages(limit int) ([]*cms.Page, error) {
	return db.selectPages(`SELECT `+pageColumns+` FROM Page
		WHERE status = ?
		ORDER BY scheduled_at IS NULL, scheduled_at, created_at, id
		LIMIT ?`, string(cms.StatusPending), limit)
}

func (db *Store) selectPages(query string, args ...any) ([]*cms.Page, error) {
	rows := []pageRow{}
	if err := db.conn.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select pages")
	}
	pages := make([]*cms.Page, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toPage()
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

func expectOneRow(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, what)
	}
	if n == 0 {
		return errors.Wrap(sql.ErrNoRows, what)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func marshalColumn(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

func unmarshalColumn(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}
