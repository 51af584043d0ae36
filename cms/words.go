package cms

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// CountWords removes every angle-bracket span from s and counts the
// remaining whitespace-delimited tokens. Tags are removed outright, so text
// split only by markup, as in "un<b>believ</b>able", is one word.
func CountWords(s string) int {
	return len(strings.Fields(tagPattern.ReplaceAllString(s, "")))
}
