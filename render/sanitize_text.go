package render

import (
	"regexp"
	"strings"
)

// TextSanitizer sanitizes HTML by pattern rewriting, without building a
// document tree. Text outside well-formed tags has its '<' escaped, so the
// only markup in the output is markup the sanitizer has inspected.
type TextSanitizer struct {
	closers map[string]*regexp.Regexp
}

// NewTextSanitizer returns a ready TextSanitizer.
func NewTextSanitizer() *TextSanitizer {
	closers := make(map[string]*regexp.Regexp, len(removedWithContent))
	for name := range removedWithContent {
		closers[name] = regexp.MustCompile(`(?i)</` + name + `[\s/>]`)
	}
	return &TextSanitizer{closers: closers}
}

// Sanitize implements Sanitizer.
func (s *TextSanitizer) Sanitize(dirty string) string {
	if dirty == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(dirty))
	closers := closerIndex{patterns: s.closers, input: dirty}

	scanMarkup(dirty, func(t token, rest string) int {
		switch t.kind {
		case textToken:
			b.WriteString(strings.ReplaceAll(t.raw, "<", "&lt;"))
		case tagToken:
			if t.closing || !removedWithContent[t.name] {
				b.WriteString(s.sanitizeTag(t))
				return 0
			}
			if selfClosing(t) && t.name != "script" && t.name != "noscript" {
				return 0
			}
			return closers.bodyLen(t.name, len(dirty)-len(rest))
		}
		// comments and declarations are dropped
		return 0
	})

	return b.String()
}

// closerIndex finds closing tags for removed elements within one input. It
// remembers the last search per element so a run of unclosed openers costs
// one scan instead of one per opener.
type closerIndex struct {
	patterns map[string]*regexp.Regexp
	input    string
	// last maps an element name to {search start, closer offset}; the closer
	// offset is -1 when nothing was found past the start.
	last map[string][2]int
}

// next returns the offset of the first closing tag for name at or after
// from, or -1.
func (c *closerIndex) next(name string, from int) int {
	if hit, ok := c.last[name]; ok && hit[0] <= from && (hit[1] < 0 || hit[1] >= from) {
		return hit[1]
	}
	at := -1
	if loc := c.patterns[name].FindStringIndex(c.input[from:]); loc != nil {
		at = from + loc[0]
	}
	if c.last == nil {
		c.last = make(map[string][2]int, len(c.patterns))
	}
	c.last[name] = [2]int{from, at}
	return at
}

// bodyLen returns how much of the input after offset belongs to the element
// named name, up to and including its closing tag. Script-like elements run
// to the end of input when unclosed. Objects and applets lose only their
// opening tag.
func (c *closerIndex) bodyLen(name string, offset int) int {
	rest := len(c.input) - offset
	at := c.next(name, offset)
	if at < 0 {
		if name == "script" || name == "noscript" {
			return rest
		}
		return 0
	}
	if end := strings.IndexByte(c.input[at:], '>'); end >= 0 {
		return at - offset + end + 1
	}
	return rest
}

func selfClosing(t token) bool {
	return strings.HasSuffix(strings.TrimRight(t.attrs, " \t\n\r\f"), "/")
}

// sanitizeTag rewrites one tag, or returns "" if the tag is removed.
func (s *TextSanitizer) sanitizeTag(t token) string {
	if removedElement(t.name, t.name == "meta" && hasAttr(t.attrs, "http-equiv")) {
		return ""
	}
	if t.attrs == "" {
		return t.raw
	}

	attrs, trailing := parseAttrs(t.attrs)
	var b strings.Builder
	b.Grow(len(t.raw))

	// raw is "<" + optional "/" + name + attrs + ">"
	b.WriteString(t.raw[:len(t.raw)-len(t.attrs)-1])
	dropped := false
	for _, a := range attrs {
		// An attribute written straight after a quoted value must not be
		// glued to whatever precedes the attribute that was dropped.
		if dropped && a.sep == "" {
			a.sep = " "
		}
		out := sanitizeAttr(a)
		dropped = out == ""
		b.WriteString(out)
	}
	b.WriteString(trailing)
	b.WriteByte('>')
	return b.String()
}

// sanitizeAttr returns the attribute as it should appear in the output.
func sanitizeAttr(a attribute) string {
	if isEventHandler(a.name) {
		return ""
	}
	if dangerousAttr(a.name, a.Unquoted()) {
		return a.sep + a.name + `=""`
	}
	if strings.Contains(a.value, "<") {
		a.value = strings.ReplaceAll(a.value, "<", "&lt;")
	}
	return a.String()
}
