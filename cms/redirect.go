package cms

import (
	"fmt"
	"strings"
	"time"
)

// Redirect sends visitors of SourcePath to DestinationPath.
// Destinations are never resolved through further redirects.
type Redirect struct {
	ID              int64
	SourcePath      string
	DestinationPath string
	RedirectType    int
	IsActive        bool
	HitCount        int64
	CreatedAt       time.Time
}

// NormalizePath strips surrounding whitespace and slashes, so "/a/b/" and
// "a/b" name the same redirect source.
func NormalizePath(p string) string {
	return strings.Trim(strings.TrimSpace(p), "/")
}

// Validate checks the redirect and normalizes its source path.
func (r *Redirect) Validate() error {
	r.SourcePath = NormalizePath(r.SourcePath)
	if r.SourcePath == "" {
		return fmt.Errorf("%w: source path is empty", ErrInvalidRedirect)
	}
	if strings.TrimSpace(r.DestinationPath) == "" {
		return fmt.Errorf("%w: destination path is empty", ErrInvalidRedirect)
	}
	if r.RedirectType == 0 {
		r.RedirectType = 301
	}
	if r.RedirectType != 301 && r.RedirectType != 302 {
		return fmt.Errorf("%w: type must be 301 or 302, got %d", ErrInvalidRedirect, r.RedirectType)
	}
	return nil
}

// Location returns the Location header value for the redirect. Relative
// destinations are made absolute to the site root.
func (r *Redirect) Location() string {
	d := strings.TrimSpace(r.DestinationPath)
	if strings.Contains(d, "://") || strings.HasPrefix(d, "/") {
		return d
	}
	return "/" + d
}
