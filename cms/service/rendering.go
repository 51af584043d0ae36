package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/danielledeleo/seocms/cms"
	"github.com/danielledeleo/seocms/cms/repository"
	"github.com/danielledeleo/seocms/render"
)

// Preview is a rendering of editor content that is not stored.
type Preview struct {
	// Fragment is the markup extracted from a generated reply, before
	// rendering. Empty for editor previews.
	Fragment  string   `json:"fragment,omitempty"`
	HTML      string   `json:"html"`
	WordCount int      `json:"word_count"`
	Removed   []string `json:"removed"`
}

// RenderingService defines the interface for turning pages into HTML.
type RenderingService interface {
	// RenderPage renders a stored page with the active link rules.
	RenderPage(page *cms.Page) (*render.RenderedPage, error)

	// Preview renders editor content with the DOM sanitizer and reports
	// what sanitization removed.
	Preview(content string) (*Preview, error)

	// PreviewReply extracts the fragment from a content generator reply
	// and previews it. With markdown set, tagless replies are converted.
	PreviewReply(reply string, markdown bool) (*Preview, error)

	// Links returns the link context for the current rules and pages.
	Links() (render.LinkContext, error)
}

type renderingService struct {
	pages     repository.PageRepository
	templates repository.TemplateRepository
	rules     repository.LinkRuleRepository
	pipeline  *render.Pipeline
	preview   *render.Pipeline
	text      render.Sanitizer
	markdown  *render.MarkdownRenderer
	baseURL   string
}

// NewRenderingService creates a new RenderingService. pipeline renders public
// pages; previews always use the DOM sanitizer.
func NewRenderingService(
	pages repository.PageRepository,
	templates repository.TemplateRepository,
	rules repository.LinkRuleRepository,
	pipeline *render.Pipeline,
	baseURL string,
) RenderingService {
	return &renderingService{
		pages:     pages,
		templates: templates,
		rules:     rules,
		pipeline:  pipeline,
		preview:   render.NewPipeline(render.NewDOMSanitizer()),
		text:      render.NewTextSanitizer(),
		markdown:  render.NewMarkdownRenderer(),
		baseURL:   baseURL,
	}
}

func (s *renderingService) Links() (render.LinkContext, error) {
	rules, err := s.rules.SelectActiveLinkRules()
	if err != nil {
		return render.LinkContext{}, err
	}
	all, err := s.pages.SelectPageRefs()
	if err != nil {
		return render.LinkContext{}, err
	}
	published, err := s.pages.SelectPublishedPageRefs()
	if err != nil {
		return render.LinkContext{}, err
	}
	return render.LinkContext{
		Rules:   rules,
		BaseURL: s.baseURL,
		Targets: cms.PathMap(published, all),
	}, nil
}

func (s *renderingService) RenderPage(page *cms.Page) (*render.RenderedPage, error) {
	start := time.Now()

	links, err := s.Links()
	if err != nil {
		return nil, err
	}

	var tmpl *cms.Template
	if page.UsesTemplate() {
		tmpl, err = s.templates.SelectTemplate(page.TemplateID)
		if err = notFound(err); errors.Is(err, cms.ErrGenericNotFound) {
			slog.Warn("page template missing, rendering free-form content",
				"category", "render", "page_key", page.PageKey, "template_id", page.TemplateID)
			tmpl = nil
		} else if err != nil {
			return nil, err
		}
	}

	rendered := s.pipeline.RenderPage(page, tmpl, links)
	slog.Debug("page rendered", "category", "render", "page_key", page.PageKey,
		"words", rendered.WordCount, "duration", time.Since(start))
	return rendered, nil
}

func (s *renderingService) Preview(content string) (*Preview, error) {
	links, err := s.Links()
	if err != nil {
		return nil, err
	}

	linked := render.ApplyInternalLinks(content, links.Rules, links.BaseURL, links.Targets)
	out := s.preview.Sanitizer().Sanitize(linked)

	// The DOM sanitizer normalizes markup, so the report diffs against the
	// byte-preserving text sanitizer instead.
	return &Preview{
		HTML:      out,
		WordCount: cms.CountWords(out),
		Removed:   render.RemovedFragments(linked, s.text.Sanitize(linked)),
	}, nil
}

func (s *renderingService) PreviewReply(reply string, markdown bool) (*Preview, error) {
	fragment, err := s.markdown.FragmentFromReply(reply, markdown)
	if err != nil {
		return nil, err
	}
	p, err := s.Preview(fragment)
	if err != nil {
		return nil, err
	}
	p.Fragment = fragment
	return p, nil
}
