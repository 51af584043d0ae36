package templater

import (
	"net/url"
	"strings"
	"time"
)

// URL helper functions for templates.

// pageURL returns the site-relative URL for a full page path.
// Example: pageURL("services/seo audit") → "/services/seo%20audit"
func pageURL(fullPath string) string {
	segments := strings.Split(strings.Trim(fullPath, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(segments, "/")
}

// absURL joins the site base URL and a full page path.
// Example: absURL("https://example.com/", "/services") → "https://example.com/services"
func absURL(baseURL, fullPath string) string {
	return strings.TrimSuffix(baseURL, "/") + pageURL(fullPath)
}

// isoDate formats t as a calendar date, or "" for the zero time.
func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
