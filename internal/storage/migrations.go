package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"log/slog"
	"strconv"
	"strings"

	"github.com/danielledeleo/seocms/cms"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades the schema to version. Every step checks the current
// shape of the database first, so re-running one is harmless.
type migration struct {
	version int
	name    string
	apply   func(db *sqlx.DB) error
}

var migrations = []migration{
	{1, "initial schema", func(db *sqlx.DB) error {
		_, err := db.Exec(schemaSQL)
		return err
	}},
	{2, "page scheduling", func(db *sqlx.DB) error {
		return addColumn(db, "Page", "scheduled_at", "TIMESTAMP")
	}},
	{3, "redirect hit counter", func(db *sqlx.DB) error {
		return addColumn(db, "Redirect", "hit_count", "INTEGER NOT NULL DEFAULT 0")
	}},
	{4, "link rule occurrence check", migrateLinkRuleCheck},
}

var latestVersion = migrations[len(migrations)-1].version

// RunMigrations brings the database schema up to date. It is idempotent and
// safe to run on every start.
func RunMigrations(db *sqlx.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS Setting (
		key TEXT PRIMARY KEY NOT NULL,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return errors.Wrap(err, "create Setting table")
	}

	version, err := getSchemaVersion(db)
	if err != nil {
		return err
	}

	// Databases created before versions were recorded.
	if version == 0 && tableExists(db, "Page") {
		version, err = detectLegacyVersion(db)
		if err != nil {
			return err
		}
		slog.Info("detected unversioned schema", "category", "storage", "version", version)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		slog.Info("applying migration", "category", "storage", "version", m.version, "name", m.name)
		if err := m.apply(db); err != nil {
			return errors.Wrapf(err, "migration %d (%s)", m.version, m.name)
		}
		if err := setSchemaVersion(db, m.version); err != nil {
			return err
		}
		version = m.version
	}

	// Legacy databases may predate some tables entirely.
	if _, err := db.Exec(schemaSQL); err != nil {
		return errors.Wrap(err, "create missing tables")
	}
	return setSchemaVersion(db, version)
}

func getSchemaVersion(db *sqlx.DB) (int, error) {
	var value string
	err := db.Get(&value, `SELECT value FROM Setting WHERE key = ?`, cms.SettingSchemaVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrap(err, "read schema version")
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "parse schema version %q", value)
	}
	return v, nil
}

func setSchemaVersion(db *sqlx.DB, version int) error {
	return errors.Wrap(cms.UpdateSetting(db.DB, cms.SettingSchemaVersion, strconv.Itoa(version)), "write schema version")
}

// detectLegacyVersion infers the schema version of a database that has
// tables but no recorded version.
func detectLegacyVersion(db *sqlx.DB) (int, error) {
	version := 1
	if !columnExists(db, "Page", "scheduled_at") {
		return version, nil
	}
	version = 2
	if !tableExists(db, "Redirect") || !columnExists(db, "Redirect", "hit_count") {
		return version, nil
	}
	version = 3
	hasCheck, err := linkRuleHasCheck(db)
	if err != nil {
		return 0, err
	}
	if hasCheck {
		version = 4
	}
	return version, nil
}

func tableExists(db *sqlx.DB, table string) bool {
	var n int
	err := db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
	return err == nil && n > 0
}

func columnExists(db *sqlx.DB, table, column string) bool {
	var n int
	err := db.Get(&n, `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column)
	return err == nil && n > 0
}

func addColumn(db *sqlx.DB, table, column, decl string) error {
	if !tableExists(db, table) || columnExists(db, table, column) {
		return nil
	}
	_, err := db.Exec(`ALTER TABLE ` + table + ` ADD COLUMN ` + column + ` ` + decl)
	return err
}

func linkRuleHasCheck(db *sqlx.DB) (bool, error) {
	if !tableExists(db, "InternalLinkRule") {
		return true, nil
	}
	var ddl string
	if err := db.Get(&ddl, `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'InternalLinkRule'`); err != nil {
		return false, err
	}
	return strings.Contains(ddl, "max_occurrences >= 1"), nil
}

// migrateLinkRuleCheck rebuilds InternalLinkRule with a CHECK on
// max_occurrences. Rules stored with a cap below one are raised to one.
func migrateLinkRuleCheck(db *sqlx.DB) error {
	hasCheck, err := linkRuleHasCheck(db)
	if err != nil || hasCheck {
		return err
	}
	return recreateTable(db, "InternalLinkRule",
		`CREATE TABLE InternalLinkRule_new (
			id TEXT PRIMARY KEY NOT NULL,
			keyword TEXT NOT NULL,
			target_page_key TEXT NOT NULL,
			max_occurrences INTEGER NOT NULL DEFAULT 1 CHECK (max_occurrences >= 1),
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL
		)`,
		`INSERT INTO InternalLinkRule_new (id, keyword, target_page_key, max_occurrences, is_active, created_at)
			SELECT id, keyword, target_page_key, MAX(max_occurrences, 1), is_active, created_at
			FROM InternalLinkRule ORDER BY rowid`,
	)
}

// recreateTable replaces table with a new definition. createSQL must create
// <table>_new and copySQL fill it from table. Foreign key enforcement is
// switched off on a pinned connection for the duration and always restored.
func recreateTable(db *sqlx.DB, table, createSQL, copySQL string) (err error) {
	ctx := context.Background()
	conn, err := db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err = conn.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		return err
	}
	defer func() {
		if _, fkErr := conn.ExecContext(ctx, `PRAGMA foreign_keys = ON`); fkErr != nil && err == nil {
			err = fkErr
		}
	}()

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		createSQL,
		copySQL,
		`DROP TABLE ` + table,
		`ALTER TABLE ` + table + `_new RENAME TO ` + table,
	} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}
