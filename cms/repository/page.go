package repository

import "github.com/danielledeleo/seocms/cms"

// PageRepository defines the interface for page persistence operations.
type PageRepository interface {
	// SelectPage retrieves a page by its page key.
	SelectPage(pageKey string) (*cms.Page, error)

	// InsertPage stores a new page and sets its ID.
	InsertPage(page *cms.Page) error

	// UpdatePage overwrites every stored field of an existing page.
	UpdatePage(page *cms.Page) error

	// UpdatePageStatus persists a status change and the timestamps it touched.
	UpdatePageStatus(page *cms.Page) error

	// UpdatePageParent sets or clears the parent of a page.
	UpdatePageParent(pageKey string, parentPageKey string) error

	// SelectPageRefs returns the hierarchy view of every page.
	SelectPageRefs() ([]cms.PageRef, error)

	// SelectPublishedPageRefs returns the hierarchy view of published pages.
	SelectPublishedPageRefs() ([]cms.PageRef, error)

	// SelectSitemapPages returns published, public pages not excluded from the sitemap.
	SelectSitemapPages() ([]*cms.Page, error)

	// SelectPendingPages returns up to limit pending pages, oldest first.
	SelectPendingPages(limit int) ([]*cms.Page, error)
}
