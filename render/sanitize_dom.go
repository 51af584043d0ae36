package render

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// removedSelector matches every element the DOM sanitizer deletes.
const removedSelector = "script, noscript, object, embed, applet, base, meta[http-equiv]"

// DOMSanitizer parses the fragment into a node tree, prunes it and renders
// it back. Output is normalized by the parser, so it is used for previews
// where exact byte preservation does not matter.
//
// The rendered markup is passed through a TextSanitizer as well. Text inside
// raw-text elements such as style is written out verbatim, and a browser
// parsing the result in another context (for example under svg or math)
// may read it as tags.
type DOMSanitizer struct {
	text *TextSanitizer
}

// maxDOMDepth bounds the tag nesting handed to the parser, whose cost grows
// with the depth of its open-element stack. Deeper input goes through the
// TextSanitizer first.
const maxDOMDepth = 256

// voidElements never take a closing tag and do not add nesting.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// nestingDepth estimates the deepest element nesting in s from its open and
// close tags. Implicitly closed elements such as p count as still open, so
// the estimate is never below the parser's real depth.
func nestingDepth(s string) int {
	depth, deepest := 0, 0
	scanMarkup(s, func(t token, _ string) int {
		if t.kind != tagToken || voidElements[t.name] {
			return 0
		}
		if t.closing {
			if depth > 0 {
				depth--
			}
			return 0
		}
		depth++
		deepest = max(deepest, depth)
		return 0
	})
	return deepest
}

// NewDOMSanitizer returns a ready DOMSanitizer.
func NewDOMSanitizer() *DOMSanitizer {
	return &DOMSanitizer{text: NewTextSanitizer()}
}

// Sanitize implements Sanitizer.
func (s *DOMSanitizer) Sanitize(dirty string) string {
	if dirty == "" {
		return ""
	}
	if nestingDepth(dirty) > maxDOMDepth {
		// Removing script and object openers can bring the depth back
		// under the limit, in which case parsing continues on the result.
		dirty = s.text.Sanitize(dirty)
		if nestingDepth(dirty) > maxDOMDepth {
			return dirty
		}
	}

	fakeBody := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}

	nodes, err := html.ParseFragment(strings.NewReader(dirty), fakeBody)
	if err != nil {
		return s.text.Sanitize(dirty)
	}

	container := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	goquery.NewDocumentFromNode(container).Find(removedSelector).Remove()
	pruneNode(container)

	var buf bytes.Buffer
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return s.text.Sanitize(dirty)
		}
	}
	return s.text.Sanitize(buf.String())
}

// pruneNode drops comments and unsafe attributes below n.
func pruneNode(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.CommentNode, html.DoctypeNode:
			n.RemoveChild(c)
		case html.ElementNode:
			c.Attr = pruneAttrs(c.Attr)
			pruneNode(c)
		}
		c = next
	}
}

func pruneAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		if isEventHandler(a.Key) {
			continue
		}
		// The parser has decoded a.Val; dangerousAttr expects it as written.
		written := html.EscapeString(a.Val)
		if dangerousAttr(name, written) || dangerousAttr(a.Key, written) {
			a.Val = ""
		}
		kept = append(kept, a)
	}
	return kept
}
