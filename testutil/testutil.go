// Package testutil provides test utilities for seocms service and HTTP tests.
package testutil

import (
	"testing"

	"github.com/danielledeleo/seocms/cms"
	"github.com/danielledeleo/seocms/cms/service"
	"github.com/danielledeleo/seocms/internal/storage"
	"github.com/danielledeleo/seocms/render"
	"github.com/jmoiron/sqlx"
)

// TestBaseURL is the site URL the test application links against.
const TestBaseURL = "https://example.com"

// TestDB wraps the in-memory database for testing.
type TestDB struct {
	*storage.Store
	Conn *sqlx.DB
}

// TestApp wraps the wired services for tests.
type TestApp struct {
	Pages       service.PageService
	Templates   service.TemplateService
	LinkRules   service.LinkRuleService
	Redirects   service.RedirectService
	Rendering   service.RenderingService
	Publication service.PublicationService
	Pipeline    *render.Pipeline
	Config      *cms.Config
	DB          *TestDB
}

// SetupTestDB creates an in-memory SQLite database with migrations applied.
func SetupTestDB(t *testing.T) (*TestDB, func()) {
	t.Helper()

	conn, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}

	store, err := storage.Init(conn)
	if err != nil {
		conn.Close()
		t.Fatalf("failed to initialize storage: %v", err)
	}

	cleanup := func() {
		conn.Close()
	}

	return &TestDB{Store: store, Conn: conn}, cleanup
}

// SetupTestApp creates every service on top of a fresh test database.
func SetupTestApp(t *testing.T) (*TestApp, func()) {
	t.Helper()

	db, cleanup := SetupTestDB(t)

	config := &cms.Config{
		DatabaseFile: ":memory:",
		Host:         "localhost:8080",
		BaseURL:      TestBaseURL,
		SiteName:     "Test Site",
		Sanitizer:    render.SanitizerText,
		PageCacheTTL: 300,
	}

	sanitizer, err := render.NewSanitizer(config.Sanitizer)
	if err != nil {
		cleanup()
		t.Fatalf("failed to create sanitizer: %v", err)
	}
	pipeline := render.NewPipeline(sanitizer)

	pages := service.NewPageService(db, db, pipeline)

	return &TestApp{
		Pages:       pages,
		Templates:   service.NewTemplateService(db),
		LinkRules:   service.NewLinkRuleService(db),
		Redirects:   service.NewRedirectService(db),
		Rendering:   service.NewRenderingService(db, db, db, pipeline, config.BaseURL),
		Publication: service.NewPublicationService(db.Conn.DB, db, pages),
		Pipeline:    pipeline,
		Config:      config,
		DB:          db,
	}, cleanup
}

// CreateTestPage saves a page with the given key, slug and content and
// returns the stored copy.
func CreateTestPage(t *testing.T, app *TestApp, pageKey, slug, content string) *cms.Page {
	t.Helper()

	page := cms.NewPage(pageKey, "Page "+pageKey)
	page.Slug = slug
	page.MetaDescription = "About " + pageKey
	page.Content = content

	if _, err := app.Pages.SavePage(page); err != nil {
		t.Fatalf("failed to create test page %s: %v", pageKey, err)
	}

	created, err := app.Pages.GetPage(pageKey)
	if err != nil {
		t.Fatalf("failed to fetch created page %s: %v", pageKey, err)
	}
	return created
}

// PublishTestPage moves a page through pending to published.
func PublishTestPage(t *testing.T, app *TestApp, pageKey string) *cms.Page {
	t.Helper()

	if _, err := app.Pages.Transition(pageKey, cms.StatusPending); err != nil {
		t.Fatalf("failed to queue %s: %v", pageKey, err)
	}
	page, err := app.Pages.Transition(pageKey, cms.StatusPublished)
	if err != nil {
		t.Fatalf("failed to publish %s: %v", pageKey, err)
	}
	return page
}
