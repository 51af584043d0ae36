package server

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// NewRouter builds the site's HTTP handler: static assets, metrics, the
// root-level special files, the JSON API and the page tree.
func NewRouter(a *App) http.Handler {
	router := mux.NewRouter()

	static, err := fs.Sub(a.contentFS, "static")
	check(err)
	router.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", stableHandler(http.FileServer(http.FS(static)), time.Now())),
	).Methods("GET", "HEAD")

	router.Handle("/metrics", a.Metrics.Handler()).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/preview", noStore(a.PreviewHandler)).Methods("POST")
	api.HandleFunc("/fragment", noStore(a.FragmentHandler)).Methods("POST")
	api.HandleFunc("/publish", noStore(a.requireToken(a.PublishHandler))).Methods("POST")
	api.HandleFunc("/pages/{key}/validation", noStore(a.ValidationHandler)).Methods("GET")
	api.HandleFunc("/pages/{key}/parent", noStore(a.requireToken(a.ParentHandler))).Methods("POST")
	api.HandleFunc("/pages/{key}/status", noStore(a.requireToken(a.StatusHandler))).Methods("POST")
	api.NotFoundHandler = http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		writeError(rw, http.StatusNotFound, fmt.Errorf("no API endpoint at %s", req.URL.Path))
	})
	api.MethodNotAllowedHandler = http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		writeError(rw, http.StatusMethodNotAllowed, fmt.Errorf("%s is not allowed on %s", req.Method, req.URL.Path))
	})

	// Slugs cannot contain dots, so dotted root names never shadow a page.
	router.Handle(`/{page:[a-z0-9_-]+\.[a-z]+}`,
		cacheControlHandler(http.HandlerFunc(a.SpecialPageHandler), "public, no-cache")).Methods("GET", "HEAD")

	router.HandleFunc("/", a.HomeHandler).Methods("GET", "HEAD")
	router.HandleFunc("/{path:.+}", a.PageHandler).Methods("GET", "HEAD")

	router.NotFoundHandler = http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		a.ErrorHandler(http.StatusNotFound, rw, req)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		a.ErrorHandler(http.StatusMethodNotAllowed, rw, req)
	})

	var handler http.Handler = router
	handler = handlers.CompressHandler(handler)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(false),
	)(handler)
	return SlogLoggingMiddleware(handler)
}

// stableHandler serves assets with long-lived cache headers. Embedded files
// carry no modification time, so the process start stands in for one.
func stableHandler(h http.Handler, lastMod time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCacheStable(w, lastMod)
		if checkNotModified(w, r, "", lastMod) {
			return
		}
		h.ServeHTTP(w, r)
	})
}

// recoveryLogger reports handler panics through slog.
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	slog.Error("handler panic", "category", "http", "panic", fmt.Sprint(v...))
}
