package cms

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalidRun = regexp.MustCompile(`[^a-z0-9]+`)
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify converts text into a URL path segment: accents are dropped, and
// every run of characters other than a-z and 0-9 becomes a single dash.
func Slugify(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}
	s := slugInvalidRun.ReplaceAllString(strings.ToLower(stripped), "-")
	return strings.Trim(s, "-")
}

// ValidSlug reports whether s is already in slug form.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}
