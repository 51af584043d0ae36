package server

import (
	"log/slog"
	"os"

	"github.com/danielledeleo/seocms"
	"github.com/danielledeleo/seocms/cms/service"
	"github.com/danielledeleo/seocms/internal/config"
	"github.com/danielledeleo/seocms/internal/storage"
	"github.com/danielledeleo/seocms/render"
	"github.com/jmoiron/sqlx"
)

// Setup loads configuration, opens the database and builds the App. The
// returned connection and the App's render queue must be closed when the
// server stops.
func Setup() (*App, *sqlx.DB) {
	modelConf := config.SetupConfig()

	conn, err := storage.Open(modelConf.DatabaseFile)
	if err != nil {
		slog.Error("failed to open database", "file", modelConf.DatabaseFile, "error", err)
		os.Exit(1)
	}

	database, err := storage.Init(conn)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	sanitizer, err := render.NewSanitizer(modelConf.Sanitizer)
	if err != nil {
		slog.Error("invalid sanitizer", "sanitizer", modelConf.Sanitizer, "error", err)
		os.Exit(1)
	}
	pipeline := render.NewPipeline(sanitizer)
	slog.Info("rendering pipeline ready", "sanitizer", modelConf.Sanitizer)

	pageService := service.NewPageService(database, database, pipeline)

	services := Services{
		Pages:       pageService,
		Templates:   service.NewTemplateService(database),
		LinkRules:   service.NewLinkRuleService(database),
		Redirects:   service.NewRedirectService(database),
		Rendering:   service.NewRenderingService(database, database, database, pipeline, modelConf.BaseURL),
		Publication: service.NewPublicationService(conn.DB, database, pageService),
	}

	logContentOverrides()

	app, err := NewApp(services, seocms.ContentFS, modelConf, conn.DB)
	if err != nil {
		slog.Error("failed to set up application", "error", err)
		os.Exit(1)
	}

	return app, conn
}

func logContentOverrides() {
	files, err := seocms.ListContentFiles()
	if err != nil {
		slog.Warn("could not list content files", "error", err)
		return
	}
	for _, f := range seocms.Overrides(files) {
		slog.Info("serving content file from disk", "category", "content", "path", f.Path)
	}
}
