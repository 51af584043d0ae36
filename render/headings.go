package render

import (
	"fmt"

	"github.com/danielledeleo/seocms/cms"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// slugHeadingIDs is a goldmark extension that gives headings the same
// slug form as page URLs, so "Über uns" gets the anchor "uber-uns".
type slugHeadingIDs struct{}

func (e *slugHeadingIDs) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithAutoHeadingID(),
		parser.WithASTTransformers(
			util.Prioritized(&slugHeadingTransformer{}, 500),
		),
	)
}

type slugHeadingTransformer struct{}

func (t *slugHeadingTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	used := map[string]bool{}

	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var raw []byte
		for i := 0; i < heading.Lines().Len(); i++ {
			line := heading.Lines().At(i)
			raw = append(raw, line.Value(reader.Source())...)
		}
		heading.SetAttribute([]byte("id"), []byte(headingID(string(raw), used)))

		return ast.WalkSkipChildren, nil
	})
}

// headingID slugifies heading text, numbering repeats: "faq", "faq-1", ...
func headingID(text string, used map[string]bool) string {
	slug := cms.Slugify(text)
	if slug == "" {
		slug = "section"
	}

	if !used[slug] {
		used[slug] = true
		return slug
	}
	for i := 1; ; i++ {
		deduped := fmt.Sprintf("%s-%d", slug, i)
		if !used[deduped] {
			used[deduped] = true
			return deduped
		}
	}
}
