package render

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	r := NewMarkdownRenderer()

	tests := []struct {
		name     string
		input    string
		contains []string
	}{
		{"heading ids", "# Hello World", []string{`<h1 id="hello-world">Hello World</h1>`}},
		{"folded heading ids", "## Über uns", []string{`<h2 id="uber-uns">Über uns</h2>`}},
		{"repeated headings", "## FAQ\n\n## FAQ", []string{`<h2 id="faq">`, `<h2 id="faq-1">`}},
		{"emphasis", "Some **bold** text", []string{"<strong>bold</strong>"}},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |", []string{"<table>", "<td>1</td>"}},
		{"raw html kept", `<div class="x">y</div>`, []string{`<div class="x">y</div>`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Render(tt.input)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Render(%q) = %q, want it to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

func TestHeadingID(t *testing.T) {
	used := map[string]bool{}
	for _, want := range []string{"pricing", "pricing-1", "pricing-2"} {
		if got := headingID("Pricing!", used); got != want {
			t.Errorf("headingID() = %q, want %q", got, want)
		}
	}
	if got := headingID("???", used); got != "section" {
		t.Errorf("headingID(punctuation) = %q, want %q", got, "section")
	}
}

func TestExtractFragment(t *testing.T) {
	r := NewMarkdownRenderer()

	tests := []struct {
		name     string
		reply    string
		expected string
	}{
		{
			name:     "html fence",
			reply:    "Here you go:\n\n```html\n<div class=\"hero\">Hi</div>\n```\n\nEnjoy!",
			expected: `<div class="hero">Hi</div>`,
		},
		{
			name:     "unlabelled fence",
			reply:    "```\n<p>plain</p>\n```",
			expected: `<p>plain</p>`,
		},
		{
			name:     "other languages skipped",
			reply:    "```css\n.x{}\n```\n\n```HTML\n<p>second</p>\n```",
			expected: `<p>second</p>`,
		},
		{
			name:     "tilde fence",
			reply:    "~~~html\n<section>s</section>\n~~~",
			expected: `<section>s</section>`,
		},
		{
			name:     "multi-line fragment",
			reply:    "```html\n<ul>\n  <li>a</li>\n</ul>\n```",
			expected: "<ul>\n  <li>a</li>\n</ul>",
		},
		{
			name:     "no fence",
			reply:    "  <p>just html</p>\n",
			expected: `<p>just html</p>`,
		},
		{
			name:     "only a css fence",
			reply:    "```css\n.x{}\n```",
			expected: "```css\n.x{}\n```",
		},
		{
			name:     "empty",
			reply:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ExtractFragment(tt.reply); got != tt.expected {
				t.Errorf("ExtractFragment() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFragmentFromReply(t *testing.T) {
	r := NewMarkdownRenderer()

	got, err := r.FragmentFromReply("## Our services\n\nWe build **fast** sites.", true)
	if err != nil {
		t.Fatal(err)
	}
	want := "<h2 id=\"our-services\">Our services</h2>\n<p>We build <strong>fast</strong> sites.</p>"
	if got != want {
		t.Errorf("markdown reply = %q, want %q", got, want)
	}

	got, err = r.FragmentFromReply("```html\n<p>**not markdown**</p>\n```", true)
	if err != nil {
		t.Fatal(err)
	}
	if got != "<p>**not markdown**</p>" {
		t.Errorf("html fragment was converted: %q", got)
	}

	got, err = r.FragmentFromReply("## Title", false)
	if err != nil {
		t.Fatal(err)
	}
	if got != "## Title" {
		t.Errorf("markdown disabled but got %q", got)
	}
}

func TestExtractFAQ(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []FAQItem
	}{
		{
			name:    "definition list",
			content: `<dl><dt>What is SEO?</dt><dd>Search engine <b>optimization</b>.</dd><dt>Cost?</dt><dd>It depends.</dd></dl>`,
			expected: []FAQItem{
				{"What is SEO?", "Search engine optimization."},
				{"Cost?", "It depends."},
			},
		},
		{
			name:    "headings",
			content: `<h3>Why us?</h3><p>Because.</p><h4>Where?</h4><p> Paris </p><h3>Orphan</h3><div>no</div>`,
			expected: []FAQItem{
				{"Why us?", "Because."},
				{"Where?", "Paris"},
			},
		},
		{
			name:    "definition list wins",
			content: `<h3>Q</h3><p>A</p><dl><dt>DQ</dt><dd>DA</dd></dl>`,
			expected: []FAQItem{
				{"DQ", "DA"},
			},
		},
		{
			name:     "nothing",
			content:  `<p>No questions here.</p>`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFAQ(tt.content)
			if len(got) != len(tt.expected) {
				t.Fatalf("ExtractFAQ() = %v, want %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("item %d = %+v, want %+v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}
