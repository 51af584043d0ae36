package service

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/danielledeleo/seocms/cms"
	"github.com/danielledeleo/seocms/cms/repository"
	"github.com/danielledeleo/seocms/render"
	"github.com/microcosm-cc/bluemonday"
)

// PageService defines the interface for page operations.
type PageService interface {
	// GetPage retrieves a page by its page key.
	GetPage(pageKey string) (*cms.Page, error)

	// SavePage creates or updates a page. Status and publication timestamps
	// are left alone; use Transition for those. The returned warnings are
	// advisory and never block the save.
	SavePage(page *cms.Page) (warnings []string, err error)

	// SetParent makes parentKey the parent of pageKey. An empty parentKey
	// detaches the page.
	SetParent(pageKey, parentKey string) error

	// Transition moves a page to another status. Entering pending or
	// published runs the publish gate, whose failures come back as
	// cms.ValidationErrors.
	Transition(pageKey string, to cms.Status) (*cms.Page, error)

	// Validate runs the publish gate without changing anything.
	Validate(pageKey string) (cms.ValidationErrors, error)

	// ResolvePath finds the page at a full path such as "/services/seo".
	ResolvePath(path string) (*cms.Page, error)

	// FullPath returns the full path of page, with a leading slash.
	FullPath(page *cms.Page) (string, error)

	// Trail returns the ancestors of page, root first, followed by the page.
	Trail(page *cms.Page) ([]*cms.Page, error)

	// ListSitemap returns the pages that belong in the sitemap with their
	// full paths, ordered by path.
	ListSitemap() ([]Listing, error)
}

// Listing is a page together with its full path.
type Listing struct {
	Page *cms.Page
	Path string
}

type pageService struct {
	repo      repository.PageRepository
	templates repository.TemplateRepository
	pipeline  *render.Pipeline
	strip     *bluemonday.Policy
}

// NewPageService creates a new PageService. The pipeline's sanitizer is used
// for the word counts of the publish gate.
func NewPageService(repo repository.PageRepository, templates repository.TemplateRepository, pipeline *render.Pipeline) PageService {
	return &pageService{
		repo:      repo,
		templates: templates,
		pipeline:  pipeline,
		strip:     bluemonday.StrictPolicy(),
	}
}

func (s *pageService) GetPage(pageKey string) (*cms.Page, error) {
	page, err := s.repo.SelectPage(pageKey)
	if err != nil {
		return nil, notFound(err)
	}
	return page, nil
}

// plainText strips markup from a field that is shown as text. Entities the
// policy produces are decoded, since templates escape on output.
func (s *pageService) plainText(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.strip.Sanitize(v)))
}

func (s *pageService) SavePage(page *cms.Page) ([]string, error) {
	page.PageKey = strings.TrimSpace(page.PageKey)
	page.Title = s.plainText(page.Title)
	page.MetaDescription = s.plainText(page.MetaDescription)
	page.H1 = s.plainText(page.H1)
	page.H2 = s.plainText(page.H2)
	page.CanonicalURL = strings.TrimSpace(page.CanonicalURL)
	page.ParentPageKey = strings.TrimSpace(page.ParentPageKey)

	keywords := page.Keywords[:0]
	for _, k := range page.Keywords {
		if k = s.plainText(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	page.Keywords = keywords

	page.Slug = normalizeSlug(page.Slug)
	if page.Slug == "" {
		page.Slug = cms.Slugify(page.Title)
	}
	if page.SchemaType == "" {
		page.SchemaType = cms.SchemaWebPage
	}

	if err := page.ValidateFields(); err != nil {
		return nil, err
	}
	if err := s.checkTemplate(page); err != nil {
		return nil, err
	}

	refs, err := s.repo.SelectPageRefs()
	if err != nil {
		return nil, err
	}
	if page.ParentPageKey != "" {
		if err := checkParent(page.PageKey, page.ParentPageKey, refs); err != nil {
			return nil, err
		}
	}
	if err := checkPathFree(page.PageRef(), refs); err != nil {
		return nil, err
	}

	now := time.Now()
	existing, err := s.repo.SelectPage(page.PageKey)
	switch err = notFound(err); {
	case errors.Is(err, cms.ErrGenericNotFound):
		if page.Status == "" {
			page.Status = cms.StatusDraft
		}
		page.PublishedAt = nil
		page.CreatedAt = now
		page.UpdatedAt = now
		err = s.repo.InsertPage(page)
	case err != nil:
		return nil, err
	default:
		page.ID = existing.ID
		page.Status = existing.Status
		page.PublishedAt = existing.PublishedAt
		page.CreatedAt = existing.CreatedAt
		page.UpdatedAt = now
		err = s.repo.UpdatePage(page)
	}
	if err != nil {
		return nil, err
	}

	return page.Warnings(), nil
}

// normalizeSlug lowercases s and turns whitespace runs into single dashes.
func normalizeSlug(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "-"))
}

// checkTemplate makes sure a template page points at a template that exists
// and records the section type next to each piece of content. Content for
// sections the template no longer has is kept as is; rendering and the
// publish gate skip it.
func (s *pageService) checkTemplate(page *cms.Page) error {
	page.TemplateID = strings.TrimSpace(page.TemplateID)
	if !page.UsesTemplate() {
		return nil
	}
	tmpl, err := s.templates.SelectTemplate(page.TemplateID)
	if err != nil {
		if errors.Is(notFound(err), cms.ErrGenericNotFound) {
			return fmt.Errorf("%w: %s", cms.ErrTemplateNotFound, page.TemplateID)
		}
		return err
	}
	for i, sc := range page.Sections {
		if section, ok := tmpl.Section(sc.SectionID); ok {
			page.Sections[i].Type = section.Type
		}
	}
	return nil
}

func checkParent(pageKey, parentKey string, refs []cms.PageRef) error {
	if parentKey == pageKey || cms.WouldCreateCycle(pageKey, parentKey, refs) {
		return cms.ErrCircularParent
	}
	for _, r := range refs {
		if r.PageKey == parentKey {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", cms.ErrUnknownParent, parentKey)
}

// checkPathFree reports ErrPathTaken when another page already has the full
// path page would have.
func checkPathFree(page cms.PageRef, refs []cms.PageRef) error {
	updated := make([]cms.PageRef, 0, len(refs)+1)
	updated = append(updated, page)
	for _, r := range refs {
		if r.PageKey != page.PageKey {
			updated = append(updated, r)
		}
	}

	path := cms.BuildFullPath(page, updated)
	for _, r := range updated[1:] {
		if cms.BuildFullPath(r, updated) == path {
			return fmt.Errorf("%w: %s is used by %s", cms.ErrPathTaken, path, r.PageKey)
		}
	}
	return nil
}

func (s *pageService) SetParent(pageKey, parentKey string) error {
	parentKey = strings.TrimSpace(parentKey)

	page, err := s.GetPage(pageKey)
	if err != nil {
		return err
	}
	refs, err := s.repo.SelectPageRefs()
	if err != nil {
		return err
	}
	if parentKey != "" {
		if err := checkParent(pageKey, parentKey, refs); err != nil {
			return err
		}
	}

	ref := page.PageRef()
	ref.ParentPageKey = parentKey
	if err := checkPathFree(ref, refs); err != nil {
		return err
	}
	return notFound(s.repo.UpdatePageParent(pageKey, parentKey))
}

func (s *pageService) Transition(pageKey string, to cms.Status) (*cms.Page, error) {
	page, err := s.GetPage(pageKey)
	if err != nil {
		return nil, err
	}
	if page.Status == to {
		return page, nil
	}
	if !cms.CanTransition(page.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", cms.ErrInvalidTransition, page.Status, to)
	}

	if to.RequiresValidation() {
		violations, err := s.validate(page)
		if err != nil {
			return nil, err
		}
		if len(violations) > 0 {
			return nil, violations
		}
	}

	if err := page.Transition(to, time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePageStatus(page); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *pageService) Validate(pageKey string) (cms.ValidationErrors, error) {
	page, err := s.GetPage(pageKey)
	if err != nil {
		return nil, err
	}
	return s.validate(page)
}

// validate runs the publish gate. A page whose template has gone missing is
// rendered as free-form content and so passes.
func (s *pageService) validate(page *cms.Page) (cms.ValidationErrors, error) {
	if !page.UsesTemplate() {
		return nil, nil
	}
	tmpl, err := s.templates.SelectTemplate(page.TemplateID)
	if err = notFound(err); errors.Is(err, cms.ErrGenericNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return s.pipeline.Validate(page, tmpl), nil
}

func (s *pageService) ResolvePath(path string) (*cms.Page, error) {
	refs, err := s.repo.SelectPageRefs()
	if err != nil {
		return nil, err
	}
	ref, ok := cms.ResolvePageByPath(cms.SplitPath(path), refs)
	if !ok {
		return nil, cms.ErrGenericNotFound
	}
	return s.GetPage(ref.PageKey)
}

func (s *pageService) FullPath(page *cms.Page) (string, error) {
	refs, err := s.repo.SelectPageRefs()
	if err != nil {
		return "", err
	}
	return cms.BuildFullPath(page.PageRef(), refs), nil
}

func (s *pageService) Trail(page *cms.Page) ([]*cms.Page, error) {
	refs, err := s.repo.SelectPageRefs()
	if err != nil {
		return nil, err
	}
	chain := cms.Ancestors(page.PageRef(), refs)
	trail := make([]*cms.Page, 0, len(chain)+1)
	for _, ref := range chain {
		ancestor, err := s.GetPage(ref.PageKey)
		if err != nil {
			return nil, err
		}
		trail = append(trail, ancestor)
	}
	return append(trail, page), nil
}

func (s *pageService) ListSitemap() ([]Listing, error) {
	pages, err := s.repo.SelectSitemapPages()
	if err != nil {
		return nil, err
	}
	refs, err := s.repo.SelectPageRefs()
	if err != nil {
		return nil, err
	}

	listings := make([]Listing, len(pages))
	for i, page := range pages {
		listings[i] = Listing{Page: page, Path: cms.BuildFullPath(page.PageRef(), refs)}
	}
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].Path < listings[j].Path
	})
	return listings, nil
}
