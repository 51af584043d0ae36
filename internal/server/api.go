package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielledeleo/seocms/cms"
	"github.com/danielledeleo/seocms/internal/renderqueue"
	"github.com/gorilla/mux"
)

const maxRequestBody = 1 << 20

type errorResponse struct {
	Error      string               `json:"error"`
	Violations cms.ValidationErrors `json:"violations,omitempty"`
}

type previewRequest struct {
	Content string `json:"content"`
}

type fragmentRequest struct {
	Reply    string `json:"reply"`
	Markdown bool   `json:"markdown"`
}

type parentRequest struct {
	Parent string `json:"parent"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type pageResponse struct {
	PageKey string     `json:"page_key"`
	Path    string     `json:"path"`
	Status  cms.Status `json:"status"`
}

type validationResponse struct {
	Valid      bool                 `json:"valid"`
	Violations cms.ValidationErrors `json:"violations"`
}

func readJSON(rw http.ResponseWriter, req *http.Request, v any) error {
	req.Body = http.MaxBytesReader(rw, req.Body, maxRequestBody)
	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(rw http.ResponseWriter, code int, v any) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(code)
	check(json.NewEncoder(rw).Encode(v))
}

func writeError(rw http.ResponseWriter, code int, err error) {
	resp := errorResponse{Error: err.Error()}
	var violations cms.ValidationErrors
	if errors.As(err, &violations) {
		resp.Violations = violations
	}
	writeJSON(rw, code, resp)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, cms.ErrGenericNotFound):
		return http.StatusNotFound
	case errors.Is(err, cms.ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cms.ErrInvalidTransition),
		errors.Is(err, cms.ErrCircularParent),
		errors.Is(err, cms.ErrPathTaken):
		return http.StatusConflict
	case errors.Is(err, cms.ErrUnknownParent),
		errors.Is(err, cms.ErrInvalidStatus),
		errors.Is(err, cms.ErrMissingField),
		errors.Is(err, cms.ErrInvalidSlug):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (a *App) apiError(rw http.ResponseWriter, req *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("api request failed", "category", "api", "path", req.URL.Path, "error", err)
	}
	writeError(rw, code, err)
}

// PreviewHandler renders editor content without storing it.
func (a *App) PreviewHandler(rw http.ResponseWriter, req *http.Request) {
	var body previewRequest
	if err := readJSON(rw, req, &body); err != nil {
		writeError(rw, http.StatusBadRequest, err)
		return
	}

	preview, err := a.Rendering.Preview(body.Content)
	if err != nil {
		a.apiError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, preview)
}

// FragmentHandler extracts and previews the HTML in a content generator reply.
func (a *App) FragmentHandler(rw http.ResponseWriter, req *http.Request) {
	var body fragmentRequest
	if err := readJSON(rw, req, &body); err != nil {
		writeError(rw, http.StatusBadRequest, err)
		return
	}

	preview, err := a.Rendering.PreviewReply(body.Reply, body.Markdown)
	if err != nil {
		a.apiError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, preview)
}

// PublishHandler runs the publication batch. ?force=true ignores the
// interval since the previous run.
func (a *App) PublishHandler(rw http.ResponseWriter, req *http.Request) {
	force, _ := strconv.ParseBool(req.URL.Query().Get("force"))

	result, err := a.Publication.RunBatch(force)
	if err != nil {
		a.apiError(rw, req, err)
		return
	}

	if result.Skipped == "" {
		a.Metrics.PagesPublished.Add(float64(len(result.Published)))
		a.Metrics.PublishFailures.Add(float64(len(result.Failed)))
		a.Cache.Invalidate()
		a.warm(result.Published)
	}
	writeJSON(rw, http.StatusOK, result)
}

// warm renders freshly published pages in the background so the first
// visitor finds them cached.
func (a *App) warm(pageKeys []string) {
	for _, key := range pageKeys {
		page, err := a.Pages.GetPage(key)
		if err != nil {
			slog.Warn("cannot warm page", "category", "render", "page", key, "error", err)
			continue
		}
		generation := a.Cache.Generation()
		go func() {
			rendered, err := a.Queue.Render(context.Background(), page, renderqueue.TierBackground)
			if err != nil {
				slog.Debug("warm render failed", "category", "render", "page", page.PageKey, "error", err)
				return
			}
			a.Cache.Put(page.PageKey, generation, rendered)
		}()
	}
}

// ValidationHandler reports whether a page would pass the publish gate.
func (a *App) ValidationHandler(rw http.ResponseWriter, req *http.Request) {
	violations, err := a.Pages.Validate(mux.Vars(req)["key"])
	if err != nil {
		a.apiError(rw, req, err)
		return
	}
	if violations == nil {
		violations = cms.ValidationErrors{}
	}
	writeJSON(rw, http.StatusOK, validationResponse{
		Valid:      len(violations) == 0,
		Violations: violations,
	})
}

// ParentHandler moves a page under another one, or to the root when the
// parent is empty.
func (a *App) ParentHandler(rw http.ResponseWriter, req *http.Request) {
	key := mux.Vars(req)["key"]

	var body parentRequest
	if err := readJSON(rw, req, &body); err != nil {
		writeError(rw, http.StatusBadRequest, err)
		return
	}

	if err := a.Pages.SetParent(key, body.Parent); err != nil {
		a.apiError(rw, req, err)
		return
	}
	a.Cache.Invalidate()
	slog.Info("page moved", "category", "api", "page", key, "parent", body.Parent)

	a.writePageResponse(rw, req, key)
}

// StatusHandler moves a page to another status. Gate failures come back
// as 422 with the violations.
func (a *App) StatusHandler(rw http.ResponseWriter, req *http.Request) {
	key := mux.Vars(req)["key"]

	var body statusRequest
	if err := readJSON(rw, req, &body); err != nil {
		writeError(rw, http.StatusBadRequest, err)
		return
	}

	status, err := cms.ParseStatus(body.Status)
	if err != nil {
		a.apiError(rw, req, err)
		return
	}
	if _, err := a.Pages.Transition(key, status); err != nil {
		a.apiError(rw, req, err)
		return
	}
	a.Cache.Invalidate()
	slog.Info("page status changed", "category", "api", "page", key, "status", status)

	a.writePageResponse(rw, req, key)
}

func (a *App) writePageResponse(rw http.ResponseWriter, req *http.Request, key string) {
	page, err := a.Pages.GetPage(key)
	if err != nil {
		a.apiError(rw, req, err)
		return
	}
	path, err := a.Pages.FullPath(page)
	if err != nil {
		a.apiError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, pageResponse{
		PageKey: page.PageKey,
		Path:    path,
		Status:  page.Status,
	})
}
