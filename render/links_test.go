package render

import (
	"strings"
	"testing"

	"github.com/danielledeleo/seocms/cms"
)

const testBaseURL = "https://example.com"

func rule(keyword, target string, max int) *cms.LinkRule {
	return &cms.LinkRule{
		Keyword:        keyword,
		TargetPageKey:  target,
		MaxOccurrences: max,
		IsActive:       true,
	}
}

func link(href, text string) string {
	return `<a href="` + href + `" class="internal-link">` + text + `</a>`
}

func TestApplyInternalLinks(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		rules    []*cms.LinkRule
		targets  map[string]string
		expected string
	}{
		{
			name:     "single keyword",
			content:  `<p>Learn about CMS today.</p>`,
			rules:    []*cms.LinkRule{rule("CMS", "cms-info", 1)},
			expected: `<p>Learn about ` + link("https://example.com/cms-info", "CMS") + ` today.</p>`,
		},
		{
			name:     "case insensitive keeps original text",
			content:  `<p>our cms</p>`,
			rules:    []*cms.LinkRule{rule("CMS", "cms-info", 1)},
			expected: `<p>our ` + link("https://example.com/cms-info", "cms") + `</p>`,
		},
		{
			name:     "whole words only",
			content:  `CMSes and CMS`,
			rules:    []*cms.LinkRule{rule("CMS", "cms-info", 1)},
			expected: `CMSes and ` + link("https://example.com/cms-info", "CMS"),
		},
		{
			name:     "keyword in attribute untouched",
			content:  `<img alt="CMS logo" src="x.png"> CMS`,
			rules:    []*cms.LinkRule{rule("CMS", "cms-info", 2)},
			expected: `<img alt="CMS logo" src="x.png"> ` + link("https://example.com/cms-info", "CMS"),
		},
		{
			name:     "keyword in tag name or url untouched",
			content:  `<a href="/cms/x">docs</a> <span class="cms">CMS</span>`,
			rules:    []*cms.LinkRule{rule("cms", "cms-info", 5)},
			expected: `<a href="/cms/x">docs</a> <span class="cms">` + link("https://example.com/cms-info", "CMS") + `</span>`,
		},
		{
			name:     "keyword inside existing anchor untouched",
			content:  `<a href="/x">CMS guide</a> and CMS`,
			rules:    []*cms.LinkRule{rule("CMS", "cms-info", 2)},
			expected: `<a href="/x">CMS guide</a> and ` + link("https://example.com/cms-info", "CMS"),
		},
		{
			name:     "inactive rule skipped",
			content:  `<p>CMS</p>`,
			rules:    []*cms.LinkRule{{Keyword: "CMS", TargetPageKey: "x", MaxOccurrences: 1}},
			expected: `<p>CMS</p>`,
		},
		{
			name:     "no rules",
			content:  `<p>CMS</p>`,
			expected: `<p>CMS</p>`,
		},
		{
			name:     "empty content",
			content:  ``,
			rules:    []*cms.LinkRule{rule("CMS", "x", 1)},
			expected: ``,
		},
		{
			name:     "blank keyword skipped",
			content:  `a b`,
			rules:    []*cms.LinkRule{rule("  ", "x", 1)},
			expected: `a b`,
		},
		{
			name:     "metacharacters match literally",
			content:  `I write C++ and C, not a.b or axb.`,
			rules:    []*cms.LinkRule{rule("C++", "cpp", 5), rule("a.b", "ab", 5)},
			expected: `I write ` + link("https://example.com/cpp", "C++") + ` and C, not ` + link("https://example.com/ab", "a.b") + ` or axb.`,
		},
		{
			name:     "parentheses match literally",
			content:  `Search (SEO) matters`,
			rules:    []*cms.LinkRule{rule("(SEO)", "seo", 1)},
			expected: `Search ` + link("https://example.com/seo", "(SEO)") + ` matters`,
		},
		{
			name:     "multi-word phrase with punctuation",
			content:  `<p>Expert C++   development services. C++ is fun; development too.</p>`,
			rules:    []*cms.LinkRule{rule("C++ development", "cpp-dev", 3)},
			expected: `<p>Expert ` + link("https://example.com/cpp-dev", "C++   development") + ` services. C++ is fun; development too.</p>`,
		},
		{
			name:     "escaped ampersand in text",
			content:  `<p>Our R&amp;D team</p>`,
			rules:    []*cms.LinkRule{rule("R&D", "research", 1)},
			expected: `<p>Our ` + link("https://example.com/research", "R&amp;D") + ` team</p>`,
		},
		{
			name:     "unicode word boundary",
			content:  `cafés et café`,
			rules:    []*cms.LinkRule{rule("café", "cafe", 2)},
			expected: `cafés et ` + link("https://example.com/cafe", "café"),
		},
		{
			name:     "raw text elements untouched",
			content:  `<script>var CMS = 1 < 2;</script><style>.CMS{}</style><p>CMS</p>`,
			rules:    []*cms.LinkRule{rule("CMS", "cms-info", 3)},
			expected: `<script>var CMS = 1 < 2;</script><style>.CMS{}</style><p>` + link("https://example.com/cms-info", "CMS") + `</p>`,
		},
		{
			name:     "several rules in one pass",
			content:  `SEO and CMS`,
			rules:    []*cms.LinkRule{rule("SEO", "seo", 1), rule("CMS", "cms-info", 1)},
			expected: link("https://example.com/seo", "SEO") + ` and ` + link("https://example.com/cms-info", "CMS"),
		},
		{
			name:     "later rule skips earlier insertion",
			content:  `Our CMS platform and CMS.`,
			rules:    []*cms.LinkRule{rule("CMS platform", "platform", 1), rule("CMS", "cms-info", 1)},
			expected: `Our ` + link("https://example.com/platform", "CMS platform") + ` and ` + link("https://example.com/cms-info", "CMS") + `.`,
		},
		{
			name:     "target resolved through map",
			content:  `CMS`,
			rules:    []*cms.LinkRule{rule("CMS", "cms-info", 1)},
			targets:  map[string]string{"cms-info": "guides/cms"},
			expected: link("https://example.com/guides/cms", "CMS"),
		},
		{
			name:     "target missing from map falls back to key",
			content:  `CMS`,
			rules:    []*cms.LinkRule{rule("CMS", "cms-info", 1)},
			targets:  map[string]string{"other": "x"},
			expected: link("https://example.com/cms-info", "CMS"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyInternalLinks(tt.content, tt.rules, testBaseURL, tt.targets)
			if got != tt.expected {
				t.Errorf("ApplyInternalLinks()\n got: %s\nwant: %s", got, tt.expected)
			}
		})
	}
}

func TestApplyInternalLinksCap(t *testing.T) {
	content := `<p>seo tips: seo, SEO and more seo.</p>`
	rules := []*cms.LinkRule{rule("seo", "seo-guide", 2)}

	got := ApplyInternalLinks(content, rules, testBaseURL, nil)

	if n := strings.Count(got, `class="internal-link"`); n != 2 {
		t.Errorf("got %d links, want 2: %s", n, got)
	}
	if n := strings.Count(strings.ToLower(got), "seo"); n != 4+2 {
		// four keyword occurrences plus "seo" in the two hrefs
		t.Errorf("keyword occurrences changed: %s", got)
	}
}

func TestApplyInternalLinksIdempotent(t *testing.T) {
	content := `<div class="p-4"><p>CMS one, CMS two, CMS three.</p><p>SEO</p></div>`
	rules := []*cms.LinkRule{rule("CMS", "cms-info", 2), rule("seo", "seo", 1)}

	once := ApplyInternalLinks(content, rules, testBaseURL, nil)
	twice := ApplyInternalLinks(once, rules, testBaseURL, nil)

	if once != twice {
		t.Errorf("second pass changed output\n once: %s\ntwice: %s", once, twice)
	}
	if n := strings.Count(twice, `class="internal-link"`); n != 3 {
		t.Errorf("got %d links, want 3", n)
	}
}

func TestApplyInternalLinksExistingLinkCounts(t *testing.T) {
	content := `<a href="/elsewhere">CMS</a> and CMS`
	got := ApplyInternalLinks(content, []*cms.LinkRule{rule("CMS", "cms-info", 1)}, testBaseURL, nil)
	if got != content {
		t.Errorf("keyword already linked should use up the cap, got %s", got)
	}
}

func TestApplyInternalLinksTrailingSlashBase(t *testing.T) {
	got := ApplyInternalLinks("CMS", []*cms.LinkRule{rule("CMS", "/cms-info", 1)}, "https://example.com/", nil)
	want := link("https://example.com/cms-info", "CMS")
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestKeywordMatcherBoundaries(t *testing.T) {
	tests := []struct {
		keyword string
		text    string
		found   string
	}{
		{"seo", "SEO!", "SEO"},
		{"seo", "seotools", ""},
		{"seo", "my_seo", ""},
		{"seo", "pre-seo", "seo"},
		{".NET", "ASP.NET core", ".NET"},
		{".NET", "love .NET", ".NET"},
		{"web design", "web\n\tdesign", "web\n\tdesign"},
		{"web design", "webdesign", ""},
	}

	for _, tt := range tests {
		t.Run(tt.keyword+"/"+tt.text, func(t *testing.T) {
			m := newKeywordMatcher(tt.keyword)
			start, end, ok := m.find(tt.text, 0)
			got := ""
			if ok {
				got = tt.text[start:end]
			}
			if got != tt.found {
				t.Errorf("find(%q) = %q, want %q", tt.text, got, tt.found)
			}
		})
	}
}
