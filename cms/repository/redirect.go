package repository

import "github.com/danielledeleo/seocms/cms"

// RedirectRepository defines the interface for redirect persistence.
type RedirectRepository interface {
	// SelectActiveRedirect returns the active redirect for a normalized source path.
	SelectActiveRedirect(sourcePath string) (*cms.Redirect, error)

	SelectRedirects() ([]*cms.Redirect, error)
	InsertRedirect(r *cms.Redirect) error

	// IncrementRedirectHits adds one to the hit count of a redirect.
	IncrementRedirectHits(id int64) error
}
