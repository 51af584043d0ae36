package storage

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Open opens the SQLite database at path, creating it if needed, and brings
// its schema up to date.
func Open(path string) (*sqlx.DB, error) {
	conn, err := sqlx.Open(DriverName, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	// SQLite has a single writer, and every connection to ":memory:" is a
	// separate database.
	conn.SetMaxOpenConns(1)

	if err := RunMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// PreparedStatements holds the prepared SQL statements used on hot paths.
// This struct is exported to allow reuse in test utilities.
type PreparedStatements struct {
	SelectPageStmt            *sqlx.Stmt
	SelectPageRefsStmt        *sqlx.Stmt
	SelectActiveRedirectStmt  *sqlx.Stmt
	SelectActiveLinkRulesStmt *sqlx.Stmt
	SelectTemplateStmt        *sqlx.Stmt
}

// InitializeStatements prepares all the SQL statements needed for database operations.
func InitializeStatements(conn *sqlx.DB) (*PreparedStatements, error) {
	stmts := &PreparedStatements{}
	var err error

	stmts.SelectPageStmt, err = conn.Preparex(`SELECT ` + pageColumns + ` FROM Page WHERE page_key = ?`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare SelectPage")
	}

	stmts.SelectPageRefsStmt, err = conn.Preparex(`
		SELECT page_key, slug, COALESCE(parent_page_key, '') AS parent_page_key
		FROM Page ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare SelectPageRefs")
	}

	stmts.SelectActiveRedirectStmt, err = conn.Preparex(`SELECT ` + redirectColumns + `
		FROM Redirect WHERE source_path = ? AND is_active = 1`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare SelectActiveRedirect")
	}

	stmts.SelectActiveLinkRulesStmt, err = conn.Preparex(`SELECT ` + linkRuleColumns + `
		FROM InternalLinkRule WHERE is_active = 1 ORDER BY rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare SelectActiveLinkRules")
	}

	stmts.SelectTemplateStmt, err = conn.Preparex(`SELECT ` + templateColumns + ` FROM PageTemplate WHERE id = ?`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare SelectTemplate")
	}

	return stmts, nil
}

// Store implements every cms repository on top of SQLite.
// Methods are defined in separate files:
//   - page_repo.go: pages and the hierarchy view
//   - template_repo.go: page templates
//   - linkrule_repo.go: internal link rules
//   - redirect_repo.go: redirects
type Store struct {
	*PreparedStatements
	conn *sqlx.DB
}

// Init initializes the storage layer with an existing database connection.
// The database connection should already have migrations applied via RunMigrations.
func Init(db *sqlx.DB) (*Store, error) {
	stmts, err := InitializeStatements(db)
	if err != nil {
		return nil, err
	}
	return &Store{PreparedStatements: stmts, conn: db}, nil
}
