package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// MarkdownRenderer converts markdown replies from the content generator
// into HTML and extracts fragments from them.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer creates a MarkdownRenderer with tables enabled and
// slug heading anchors. Raw HTML in the markdown is passed through; callers
// sanitize the result.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Table,
				&slugHeadingIDs{},
			),
			goldmark.WithRendererOptions(
				gmhtml.WithUnsafe(),
			),
		),
	}
}

// Render converts markdown to HTML.
func (r *MarkdownRenderer) Render(md string) (string, error) {
	buf := &bytes.Buffer{}
	if err := r.md.Convert([]byte(md), buf); err != nil {
		return "", fmt.Errorf("failed to Convert: %w", err)
	}
	return buf.String(), nil
}

// ExtractFragment returns the HTML fragment in a generated reply: the body
// of the first fenced code block labelled html or not labelled at all,
// otherwise the whole reply. The result is trimmed.
func (r *MarkdownRenderer) ExtractFragment(reply string) string {
	source := []byte(reply)
	doc := r.md.Parser().Parse(text.NewReader(source))

	var fragment string
	found := false
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || found {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lang := strings.ToLower(string(block.Language(source)))
		if lang != "" && lang != "html" {
			return ast.WalkSkipChildren, nil
		}

		var b strings.Builder
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(source))
		}
		fragment = b.String()
		found = true
		return ast.WalkStop, nil
	})

	if !found {
		return strings.TrimSpace(reply)
	}
	return strings.TrimSpace(fragment)
}

// FragmentFromReply extracts the fragment from a reply. With markdown set,
// a fragment containing no tags is treated as markdown and converted.
func (r *MarkdownRenderer) FragmentFromReply(reply string, markdown bool) (string, error) {
	fragment := r.ExtractFragment(reply)
	if !markdown || fragment == "" || tagPattern.MatchString(firstTag(fragment)) {
		return fragment, nil
	}
	out, err := r.Render(fragment)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// firstTag returns s from its first '<', or "" when it has none.
func firstTag(s string) string {
	if i := strings.IndexByte(s, '<'); i >= 0 {
		return s[i:]
	}
	return ""
}

// FAQItem is a question and answer pair found in page content.
type FAQItem struct {
	Question string
	Answer   string
}

// ExtractFAQ finds question and answer pairs in content. Definition lists
// (dt followed by dd) are used when present, otherwise h3 or h4 headings
// directly followed by a paragraph.
func ExtractFAQ(content string) []FAQItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil
	}

	var items []FAQItem
	collect := func(selector, answerTag string) {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			next := s.Next()
			if next.Length() == 0 || goquery.NodeName(next) != answerTag {
				return
			}
			q := strings.TrimSpace(textContent(s.Nodes[0]))
			a := strings.TrimSpace(textContent(next.Nodes[0]))
			if q != "" && a != "" {
				items = append(items, FAQItem{Question: q, Answer: a})
			}
		})
	}

	collect("dt", "dd")
	if len(items) == 0 {
		collect("h3, h4", "p")
	}
	return items
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
