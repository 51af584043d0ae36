package render

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/danielledeleo/seocms/cms"
)

// InternalLinkClass is set on every anchor the link rewriter inserts.
const InternalLinkClass = "internal-link"

// Elements whose text is never linked: browsers do not render markup inside
// them, so an inserted anchor would show up as literal text or break script.
var rawTextElements = map[string]bool{
	"script":   true,
	"style":    true,
	"textarea": true,
	"title":    true,
	"noscript": true,
}

// ApplyInternalLinks wraps occurrences of each active rule's keyword in an
// anchor to the rule's target page. Rules are applied in the order given, at
// most MaxOccurrences times each. Keywords inside tags, inside existing
// anchors, or inside raw-text elements are left alone, and anchors whose text
// already equals the keyword count against the cap, so applying the same
// rules twice inserts nothing new.
//
// targets maps page keys to the path a rule should link to. A rule whose
// target is missing from the map links to its raw page key.
func ApplyInternalLinks(content string, rules []*cms.LinkRule, baseURL string, targets map[string]string) string {
	if content == "" || len(rules) == 0 {
		return content
	}

	base := strings.TrimSuffix(baseURL, "/")
	result := content

	for _, rule := range rules {
		if rule == nil || !rule.IsActive || rule.MaxOccurrences < 1 {
			continue
		}
		matcher := newKeywordMatcher(rule.Keyword)
		if matcher == nil {
			continue
		}

		budget := rule.MaxOccurrences - countLinkedKeyword(result, matcher)
		if budget <= 0 {
			continue
		}

		target := targets[rule.TargetPageKey]
		if target == "" {
			target = rule.TargetPageKey
		}
		href := base + "/" + html.EscapeString(strings.TrimPrefix(target, "/"))

		result = linkKeyword(result, matcher, href, budget)
	}

	return result
}

// keywordMatcher finds whole-word, case-insensitive occurrences of a keyword.
type keywordMatcher struct {
	pattern *regexp.Regexp
	// Boundaries are only checked at edges that are word characters, so
	// keywords such as "C++" or ".NET" still match next to letters.
	leftBoundary  bool
	rightBoundary bool
}

// newKeywordMatcher builds a matcher for keyword, or returns nil if the
// keyword is blank. Words in a multi-word keyword may be separated by any
// run of whitespace.
func newKeywordMatcher(keyword string) *keywordMatcher {
	words := strings.Fields(keyword)
	if len(words) == 0 {
		return nil
	}

	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = wordPattern(w)
	}

	joined := strings.Join(words, " ")
	first, _ := utf8.DecodeRuneInString(joined)
	last, _ := utf8.DecodeLastRuneInString(joined)

	return &keywordMatcher{
		pattern:       regexp.MustCompile(`(?i)` + strings.Join(parts, `\s+`)),
		leftBoundary:  isWordRune(first),
		rightBoundary: isWordRune(last),
	}
}

// wordPattern matches w literally, either as written or with HTML special
// characters escaped, since text content may hold "R&amp;D" for "R&D".
func wordPattern(w string) string {
	literal := regexp.QuoteMeta(w)
	escaped := html.EscapeString(w)
	if escaped == w {
		return literal
	}
	return `(?:` + literal + `|` + regexp.QuoteMeta(escaped) + `)`
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// atWordBoundary reports whether the match s[start:end] is not glued to
// surrounding word characters on the edges that require a boundary.
func (m *keywordMatcher) atWordBoundary(s string, start, end int) bool {
	if m.leftBoundary && start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); isWordRune(r) {
			return false
		}
	}
	if m.rightBoundary && end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

// find returns the first whole-word match in s at or after offset.
func (m *keywordMatcher) find(s string, offset int) (start, end int, ok bool) {
	for offset <= len(s) {
		loc := m.pattern.FindStringIndex(s[offset:])
		if loc == nil {
			return 0, 0, false
		}
		start, end = offset+loc[0], offset+loc[1]
		if m.atWordBoundary(s, start, end) {
			return start, end, true
		}
		// Retry one rune past the rejected start.
		_, size := utf8.DecodeRuneInString(s[start:])
		if size == 0 {
			size = 1
		}
		offset = start + size
	}
	return 0, 0, false
}

// matchesWhole reports whether text, trimmed, is exactly the keyword.
func (m *keywordMatcher) matchesWhole(text string) bool {
	text = strings.TrimSpace(text)
	loc := m.pattern.FindStringIndex(text)
	return loc != nil && loc[0] == 0 && loc[1] == len(text)
}

// linkableText walks content and calls fn for every text run that may
// receive links. Runs passed to fn are replaced by fn's return value; all
// other markup is copied unchanged.
func linkableText(content string, fn func(text string) string) string {
	var b strings.Builder
	b.Grow(len(content))

	anchorDepth := 0
	rawText := ""

	scanMarkup(content, func(t token, _ string) int {
		switch {
		case t.kind != tagToken:
			if t.kind == textToken && anchorDepth == 0 && rawText == "" {
				b.WriteString(fn(t.raw))
			} else {
				b.WriteString(t.raw)
			}
			return 0
		case rawText != "":
			if t.closing && t.name == rawText {
				rawText = ""
			}
		case rawTextElements[t.name] && !t.closing:
			rawText = t.name
		case t.name == "a" && t.closing:
			if anchorDepth > 0 {
				anchorDepth--
			}
		case t.name == "a":
			anchorDepth++
		}
		b.WriteString(t.raw)
		return 0
	})

	return b.String()
}

// countLinkedKeyword counts anchors in content whose visible text is the keyword.
func countLinkedKeyword(content string, m *keywordMatcher) int {
	count := 0
	depth := 0
	var text strings.Builder

	scanMarkup(content, func(t token, _ string) int {
		switch {
		case t.kind == textToken && depth > 0:
			text.WriteString(t.raw)
		case t.kind == tagToken && t.name == "a" && !t.closing:
			if depth == 0 {
				text.Reset()
			}
			depth++
		case t.kind == tagToken && t.name == "a" && t.closing && depth > 0:
			depth--
			if depth == 0 && m.matchesWhole(text.String()) {
				count++
			}
		}
		return 0
	})

	return count
}

// linkKeyword wraps up to budget occurrences of the keyword in anchors to href.
func linkKeyword(content string, m *keywordMatcher, href string, budget int) string {
	return linkableText(content, func(text string) string {
		if budget <= 0 {
			return text
		}
		var b strings.Builder
		last := 0
		for budget > 0 {
			start, end, ok := m.find(text, last)
			if !ok {
				break
			}
			b.WriteString(text[last:start])
			b.WriteString(`<a href="`)
			b.WriteString(href)
			b.WriteString(`" class="` + InternalLinkClass + `">`)
			b.WriteString(text[start:end])
			b.WriteString(`</a>`)
			last = end
			budget--
		}
		if last == 0 {
			return text
		}
		b.WriteString(text[last:])
		return b.String()
	})
}
