package storage

import (
	"time"

	"github.com/danielledeleo/seocms/cms"
	"github.com/pkg/errors"
)

const redirectColumns = `id, source_path, destination_path, redirect_type, is_active, hit_count, created_at`

type redirectRow struct {
	ID              int64     `db:"id"`
	SourcePath      string    `db:"source_path"`
	DestinationPath string    `db:"destination_path"`
	RedirectType    int       `db:"redirect_type"`
	IsActive        bool      `db:"is_active"`
	HitCount        int64     `db:"hit_count"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r *redirectRow) toRedirect() *cms.Redirect {
	return &cms.Redirect{
		ID:              r.ID,
		SourcePath:      r.SourcePath,
		DestinationPath: r.DestinationPath,
		RedirectType:    r.RedirectType,
		IsActive:        r.IsActive,
		HitCount:        r.HitCount,
		CreatedAt:       r.CreatedAt,
	}
}

func (db *Store) SelectActiveRedirect(sourcePath string) (*cms.Redirect, error) {
	row := &redirectRow{}
	if err := db.SelectActiveRedirectStmt.Get(row, sourcePath); err != nil {
		return nil, errors.Wrapf(err, "select redirect %s", sourcePath)
	}
	return row.toRedirect(), nil
}

func (db *Store) SelectRedirects() ([]*cms.Redirect, error) {
	rows := []redirectRow{}
	if err := db.conn.Select(&rows, `SELECT `+redirectColumns+` FROM Redirect ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "select redirects")
	}
	redirects := make([]*cms.Redirect, len(rows))
	for i := range rows {
		redirects[i] = rows[i].toRedirect()
	}
	return redirects, nil
}

func (db *Store) InsertRedirect(r *cms.Redirect) error {
	result, err := db.conn.Exec(`INSERT INTO Redirect
			(source_path, destination_path, redirect_type, is_active, hit_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.SourcePath, r.DestinationPath, r.RedirectType, r.IsActive, r.HitCount, r.CreatedAt.UTC())
	if err != nil {
		return errors.Wrapf(err, "insert redirect %s", r.SourcePath)
	}
	r.ID, err = result.LastInsertId()
	return err
}

func (db *Store) IncrementRedirectHits(id int64) error {
	result, err := db.conn.Exec(`UPDATE Redirect SET hit_count = hit_count + 1 WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "increment hits of redirect %d", id)
	}
	return expectOneRow(result, "increment hits of redirect")
}
