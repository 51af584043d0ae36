package server

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/danielledeleo/seocms/cms"
	"github.com/danielledeleo/seocms/cms/service"
	"github.com/danielledeleo/seocms/internal/renderqueue"
	"github.com/danielledeleo/seocms/render"
	"github.com/danielledeleo/seocms/special"
	"github.com/danielledeleo/seocms/templater"
	"github.com/prometheus/client_golang/prometheus"
)

// Services are the domain services the HTTP layer is built on.
type Services struct {
	Pages       service.PageService
	Templates   service.TemplateService
	LinkRules   service.LinkRuleService
	Redirects   service.RedirectService
	Rendering   service.RenderingService
	Publication service.PublicationService
}

// App holds all application dependencies and services.
type App struct {
	*templater.Templater
	Services
	SpecialPages *special.Registry
	Queue        *renderqueue.Queue
	Cache        *PageCache
	Metrics      *Metrics
	Config       *cms.Config
	DB           *sql.DB

	contentFS    fs.FS
	templateHash string
}

// NewApp wires an App around services. Templates are loaded from fsys and
// the render queue is started; the caller must shut it down.
func NewApp(services Services, fsys fs.FS, config *cms.Config, db *sql.DB) (*App, error) {
	t := templater.New()
	if err := t.Load(fsys, "templates/layouts/*.html", "templates/*.html"); err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	hash, err := render.HashTemplates(fsys, "templates")
	if err != nil {
		return nil, err
	}

	a := &App{
		Templater:    t,
		Services:     services,
		SpecialPages: special.NewRegistry(),
		Cache:        NewPageCache(time.Duration(config.PageCacheTTL) * time.Second),
		Metrics:      NewMetrics(),
		Config:       config,
		DB:           db,
		contentFS:    fsys,
		templateHash: hash,
	}

	a.SpecialPages.Register("sitemap.xml", special.NewSitemapPage(services.Pages, config.BaseURL))
	a.SpecialPages.Register("robots.txt", special.NewRobotsPage(config.BaseURL))

	workerCount := config.RenderWorkers
	if workerCount == 0 {
		workerCount = runtime.NumCPU()
	}
	a.Queue = renderqueue.New(workerCount, a.renderPage)
	a.Metrics.watchQueue(a.Queue)
	slog.Info("render queue initialized", "workers", workerCount)

	return a, nil
}

// renderPage is the queue's render function.
func (a *App) renderPage(page *cms.Page) (*render.RenderedPage, error) {
	timer := prometheus.NewTimer(a.Metrics.RenderDuration)
	defer timer.ObserveDuration()

	rendered, err := a.Rendering.RenderPage(page)
	if err != nil {
		return nil, err
	}
	a.Metrics.PagesRendered.Inc()
	return rendered, nil
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// SlogLoggingMiddleware logs HTTP requests using slog
func SlogLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		slog.Info("http request",
			"category", "http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"size", wrapped.size,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

func check(err error) {
	if err != nil {
		slog.Error("unexpected error", "error", err)
	}
}
