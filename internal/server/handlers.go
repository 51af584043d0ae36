package server

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielledeleo/seocms/cms"
	"github.com/danielledeleo/seocms/internal/renderqueue"
	"github.com/danielledeleo/seocms/render"
	"github.com/gorilla/mux"
)

// pageMeta fills the document head: description, canonical link, Open Graph
// and robots tags.
type pageMeta struct {
	Description string
	Keywords    string
	Canonical   string
	OGTitle     string
	OGType      string
	Image       string
	Robots      string
}

func (a *App) HomeHandler(rw http.ResponseWriter, req *http.Request) {
	listings, err := a.Pages.ListSitemap()
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	rw.Header().Set("Cache-Control", "public, no-cache")
	a.writePage(rw, req, http.StatusOK, "home.html", map[string]any{
		"Title":    a.Config.SiteName,
		"SiteName": a.Config.SiteName,
		"Meta": &pageMeta{
			Canonical: a.Config.BaseURL + "/",
			OGTitle:   a.Config.SiteName,
			OGType:    "website",
		},
		"Pages": listings,
	})
}

// PageHandler serves a published page by its full path. Active redirects
// for the path win over pages.
func (a *App) PageHandler(rw http.ResponseWriter, req *http.Request) {
	path := "/" + mux.Vars(req)["path"]

	redirect, err := a.Redirects.Resolve(path)
	switch {
	case err == nil:
		a.Metrics.RedirectsServed.WithLabelValues(strconv.Itoa(redirect.RedirectType)).Inc()
		http.Redirect(rw, req, redirect.Location(), redirect.RedirectType)
		return
	case !errors.Is(err, cms.ErrGenericNotFound):
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	page, err := a.Pages.ResolvePath(path)
	if errors.Is(err, cms.ErrGenericNotFound) || (err == nil && !page.IsVisible()) {
		a.ErrorHandler(http.StatusNotFound, rw, req, fmt.Errorf("no page at %s", path))
		return
	}
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	trail, err := a.Pages.Trail(page)
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}
	crumbs := breadcrumbs(trail)
	fullPath := crumbs[len(crumbs)-1].URL

	rendered, err := a.rendered(req, page)
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	etag := render.Fingerprint(
		a.templateHash,
		a.Config.SiteName,
		page.UpdatedAt.UTC().Format(time.RFC3339Nano),
		crumbString(crumbs),
		rendered.HTML(),
	)
	setCacheConditional(rw, etag, page.UpdatedAt)
	if checkNotModified(rw, req, weakETag(etag), page.UpdatedAt) {
		return
	}

	canonical := page.CanonicalURL
	if canonical == "" {
		canonical = a.Config.BaseURL + fullPath
	}

	jsonld, err := a.jsonLD(page, rendered, canonical, crumbs)
	if err != nil {
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	a.writePage(rw, req, http.StatusOK, "page.html", map[string]any{
		"Title":       page.Title,
		"SiteName":    a.Config.SiteName,
		"Meta":        a.meta(page, canonical),
		"JSONLD":      jsonld,
		"Breadcrumbs": crumbs,
		"Page":        page,
		"Rendered":    rendered,
	})
}

// rendered returns the page's rendering from the cache or the render queue.
func (a *App) rendered(req *http.Request, page *cms.Page) (*render.RenderedPage, error) {
	if cached, ok := a.Cache.Get(page.PageKey); ok && cached.Page.UpdatedAt.Equal(page.UpdatedAt) {
		a.Metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	a.Metrics.CacheLookups.WithLabelValues("miss").Inc()

	generation := a.Cache.Generation()
	rendered, err := a.Queue.Render(req.Context(), page, renderqueue.TierInteractive)
	if err != nil {
		return nil, err
	}
	a.Cache.Put(page.PageKey, generation, rendered)
	return rendered, nil
}

func (a *App) meta(page *cms.Page, canonical string) *pageMeta {
	ogType := "website"
	if page.SchemaType == cms.SchemaArticle || page.SchemaType == cms.SchemaBlogPosting {
		ogType = "article"
	}
	return &pageMeta{
		Description: page.MetaDescription,
		Keywords:    strings.Join(page.Keywords, ", "),
		Canonical:   canonical,
		OGTitle:     page.Title,
		OGType:      ogType,
		Image:       page.SchemaOptions.String("image"),
	}
}

func (a *App) jsonLD(page *cms.Page, rendered *render.RenderedPage, canonical string, crumbs []render.Breadcrumb) (template.JS, error) {
	in := render.SchemaInput{
		Page:        page,
		PageURL:     canonical,
		BaseURL:     a.Config.BaseURL,
		Breadcrumbs: crumbs,
	}
	if page.SchemaType == cms.SchemaFAQPage {
		in.FAQ = render.ExtractFAQ(rendered.HTML())
	}

	out, err := render.MarshalJSONLD(render.BuildSchema(in))
	if err != nil {
		return "", err
	}
	// MarshalJSONLD escapes markup characters, so the output is safe
	// inside a script element.
	return template.JS(out), nil
}

// breadcrumbs turns a trail, root first, into crumbs with full paths.
func breadcrumbs(trail []*cms.Page) []render.Breadcrumb {
	crumbs := make([]render.Breadcrumb, len(trail))
	path := ""
	for i, p := range trail {
		path += "/" + p.Slug
		crumbs[i] = render.Breadcrumb{Name: p.Title, URL: path}
	}
	return crumbs
}

func crumbString(crumbs []render.Breadcrumb) string {
	var b strings.Builder
	for _, c := range crumbs {
		b.WriteString(c.URL)
		b.WriteByte('=')
		b.WriteString(c.Name)
		b.WriteByte('\n')
	}
	return b.String()
}

// writePage executes a page template into a buffer first, so a template
// failure still produces a clean error response.
func (a *App) writePage(rw http.ResponseWriter, req *http.Request, code int, name string, data map[string]any) {
	var buf bytes.Buffer
	if err := a.RenderTemplate(&buf, name, "index.html", data); err != nil {
		slog.Error("failed to render template", "category", "http", "template", name, "error", err)
		if name == "error.html" {
			http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		a.ErrorHandler(http.StatusInternalServerError, rw, req, err)
		return
	}

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(code)
	if req.Method == http.MethodHead {
		return
	}
	_, err := buf.WriteTo(rw)
	check(err)
}

func (a *App) ErrorHandler(responseCode int, rw http.ResponseWriter, req *http.Request, errors ...error) {
	if responseCode >= http.StatusInternalServerError {
		slog.Error("request failed", "category", "http", "path", req.URL.Path, "status", responseCode, "errors", errors)
	}

	rw.Header().Set("Cache-Control", "no-store")
	rw.Header().Del("ETag")
	errorTitle := fmt.Sprintf("%d: %s", responseCode, http.StatusText(responseCode))
	a.writePage(rw, req, responseCode, "error.html", map[string]any{
		"Title":    errorTitle,
		"SiteName": a.Config.SiteName,
		"Meta":     &pageMeta{OGTitle: errorTitle, OGType: "website", Robots: "noindex"},
		"Error": map[string]any{
			"Code":       responseCode,
			"CodeString": http.StatusText(responseCode),
			"Errors":     errors,
		},
	})
}

func (a *App) SpecialPageHandler(rw http.ResponseWriter, req *http.Request) {
	pageName := mux.Vars(req)["page"]

	handler, ok := a.SpecialPages.Get(pageName)
	if !ok {
		a.ErrorHandler(http.StatusNotFound, rw, req,
			fmt.Errorf("there is no %s on this site", pageName))
		return
	}

	handler.Handle(rw, req)
}
