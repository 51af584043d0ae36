package render

import (
	"regexp"
	"strings"
)

type tokenKind int

const (
	textToken tokenKind = iota
	tagToken
	// commentToken covers comments, doctypes, processing instructions and
	// other bogus markup the browser discards.
	commentToken
)

// token is one piece of an HTML fragment as seen by the string-only
// scanners. Tag tokens keep their raw text so unchanged tags round-trip.
type token struct {
	kind    tokenKind
	raw     string
	name    string // lowercased tag name
	closing bool
	attrs   string // everything between the tag name and the closing '>'
}

// Attribute grammar shared by tagPattern and attrPattern. A name follows
// whitespace or '/', or directly follows a quoted value as in
// <a href="x"class="y">. A value is double-quoted, single-quoted, or an
// unquoted run that does not start with a quote. '<' is never part of a name
// or an unquoted value, so text like "<a <script>" is not read as one tag.
const (
	attrSep     = `[\s/]+`
	attrName    = `[^\s/>"'<=][^\s/>"'<=]*`
	attrEq      = `\s*=\s*`
	attrQuoted  = `"[^"]*"|'[^']*'`
	attrValue   = attrQuoted + `|[^\s>"'<][^\s><]*`
	quotedAttr  = attrName + attrEq + `(?:` + attrQuoted + `)`
	anyAttr     = attrName + `(?:` + attrEq + `(?:` + attrValue + `))?`
	attrsRegion = `(?:` + attrSep + `(?:(?:` + quotedAttr + `[\s/]*|` + anyAttr + attrSep + `)*(?:` + anyAttr + `))?)?[\s/]*`
)

var (
	tagPattern = regexp.MustCompile(`^<(/?)([a-zA-Z][a-zA-Z0-9:_-]*)(` + attrsRegion + `)>`)

	// attrPattern is only applied to regions tagPattern accepted, where an
	// empty separator can only occur after a quoted value.
	attrPattern = regexp.MustCompile(`([\s/]*)(` + attrName + `)(?:(` + attrEq + `)(` + attrValue + `))?`)
)

// scanMarkup splits s into text, tag and comment tokens and calls fn for each
// in order. A '<' that does not open a well-formed tag stays in the text.
// fn returns how many bytes past the token to skip, which lets callers drop
// the body of elements such as script.
func scanMarkup(s string, fn func(t token, rest string) int) {
	textStart := 0
	i := 0

	flushText := func(end int) {
		if end > textStart {
			fn(token{kind: textToken, raw: s[textStart:end]}, "")
		}
	}

	for i < len(s) {
		lt := strings.IndexByte(s[i:], '<')
		if lt < 0 {
			break
		}
		i += lt

		tok, ok := readMarkup(s[i:])
		if !ok {
			i++
			continue
		}

		flushText(i)
		i += len(tok.raw)
		skip := fn(tok, s[i:])
		if skip > len(s)-i {
			skip = len(s) - i
		}
		i += skip
		textStart = i
	}
	flushText(len(s))
}

// readMarkup reads the markup construct at the start of s, which begins with '<'.
func readMarkup(s string) (token, bool) {
	switch {
	case strings.HasPrefix(s, "<!--"):
		return token{kind: commentToken, raw: s[:commentEnd(s)]}, true
	case strings.HasPrefix(s, "<!") || strings.HasPrefix(s, "<?"):
		return token{kind: commentToken, raw: s[:bogusCommentEnd(s)]}, true
	case strings.HasPrefix(s, "</") && len(s) > 2 && !isASCIILetter(s[2]):
		// "</>" is ignored, "</3...>" is a bogus comment.
		return token{kind: commentToken, raw: s[:bogusCommentEnd(s)]}, true
	}

	m := tagPattern.FindStringSubmatchIndex(s)
	if m == nil {
		return token{}, false
	}
	return token{
		kind:    tagToken,
		raw:     s[:m[1]],
		closing: m[3] > m[2],
		name:    strings.ToLower(s[m[4]:m[5]]),
		attrs:   s[m[6]:m[7]],
	}, true
}

// commentEnd returns the length of the comment at the start of s, or len(s)
// when the comment is never closed.
func commentEnd(s string) int {
	body := s[len("<!--"):]
	switch {
	case strings.HasPrefix(body, ">"):
		return len("<!-->")
	case strings.HasPrefix(body, "->"):
		return len("<!--->")
	}
	end := -1
	for _, closer := range []string{"-->", "--!>"} {
		if j := strings.Index(body, closer); j >= 0 && (end < 0 || j+len(closer) < end) {
			end = j + len(closer)
		}
	}
	if end < 0 {
		return len(s)
	}
	return len("<!--") + end
}

func bogusCommentEnd(s string) int {
	if j := strings.IndexByte(s, '>'); j >= 0 {
		return j + 1
	}
	return len(s)
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// attribute is one attribute inside a tag's attribute region.
type attribute struct {
	sep   string // leading whitespace or '/'
	name  string
	eq    string // "=" with any surrounding whitespace, empty for bare attributes
	value string // raw value including quotes
}

// Unquoted returns the attribute value without its quotes.
func (a attribute) Unquoted() string {
	v := a.value
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

func (a attribute) String() string {
	return a.sep + a.name + a.eq + a.value
}

// parseAttrs splits an attribute region into attributes. trailing holds any
// text after the last attribute, such as " /" in a self-closing tag.
func parseAttrs(region string) (attrs []attribute, trailing string) {
	last := 0
	for _, m := range attrPattern.FindAllStringSubmatchIndex(region, -1) {
		a := attribute{
			sep:  region[m[2]:m[3]],
			name: region[m[4]:m[5]],
		}
		if m[6] >= 0 {
			a.eq = region[m[6]:m[7]]
			a.value = region[m[8]:m[9]]
		}
		attrs = append(attrs, a)
		last = m[1]
	}
	return attrs, region[last:]
}

// hasAttr reports whether the attribute region contains an attribute named name.
func hasAttr(region, name string) bool {
	attrs, _ := parseAttrs(region)
	for _, a := range attrs {
		if strings.EqualFold(a.name, name) {
			return true
		}
	}
	return false
}
