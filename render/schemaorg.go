package render

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/danielledeleo/seocms/cms"
)

const schemaContext = "https://schema.org"

// Breadcrumb is one step of a page's ancestor trail.
type Breadcrumb struct {
	Name string
	URL  string
}

// SchemaInput is everything needed to describe a page in JSON-LD.
type SchemaInput struct {
	Page        *cms.Page
	PageURL     string
	BaseURL     string
	Breadcrumbs []Breadcrumb
	// FAQ items for FAQPage pages, usually from ExtractFAQ.
	FAQ []FAQItem
}

// BuildSchema returns the JSON-LD objects for a page: one for its schema
// type, plus a BreadcrumbList when the page has ancestors.
func BuildSchema(in SchemaInput) []map[string]any {
	var schemas []map[string]any

	switch in.Page.SchemaType {
	case cms.SchemaArticle, cms.SchemaBlogPosting:
		schemas = append(schemas, articleSchema(in))
	case cms.SchemaProduct:
		schemas = append(schemas, productSchema(in))
	case cms.SchemaService:
		schemas = append(schemas, serviceSchema(in))
	case cms.SchemaFAQPage:
		if len(in.FAQ) > 0 {
			schemas = append(schemas, faqSchema(in))
		} else {
			schemas = append(schemas, webPageSchema(in))
		}
	default:
		schemas = append(schemas, webPageSchema(in))
	}

	if len(in.Breadcrumbs) > 1 {
		schemas = append(schemas, breadcrumbSchema(in))
	}
	return schemas
}

// MarshalJSONLD encodes schemas for a script element. The encoder escapes
// '<', '>' and '&', so the output cannot close the element early.
func MarshalJSONLD(schemas []map[string]any) (string, error) {
	var v any = schemas
	if len(schemas) == 1 {
		v = schemas[0]
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func webPageSchema(in SchemaInput) map[string]any {
	s := map[string]any{
		"@context":    schemaContext,
		"@type":       string(cms.SchemaWebPage),
		"name":        in.Page.Title,
		"description": in.Page.MetaDescription,
		"url":         in.PageURL,
	}
	addImage(s, in.Page)
	return s
}

func articleSchema(in SchemaInput) map[string]any {
	p := in.Page
	opts := p.SchemaOptions

	published := p.CreatedAt
	if p.PublishedAt != nil {
		published = *p.PublishedAt
	}

	author := opts.String("authorName")
	if author == "" {
		author = "Editorial team"
	}

	s := map[string]any{
		"@context":      schemaContext,
		"@type":         string(p.SchemaType),
		"headline":      p.Title,
		"description":   p.MetaDescription,
		"url":           in.PageURL,
		"datePublished": firstNonEmpty(opts.String("datePublished"), formatDate(published)),
		"dateModified":  firstNonEmpty(opts.String("dateModified"), formatDate(p.UpdatedAt)),
		"author": map[string]any{
			"@type": "Person",
			"name":  author,
		},
	}
	addImage(s, p)

	if org := opts.String("organizationName"); org != "" {
		publisher := map[string]any{
			"@type": "Organization",
			"name":  org,
		}
		if logo := opts.String("organizationLogo"); logo != "" {
			publisher["logo"] = map[string]any{
				"@type": "ImageObject",
				"url":   logo,
			}
		}
		s["publisher"] = publisher
	}
	return s
}

func productSchema(in SchemaInput) map[string]any {
	opts := in.Page.SchemaOptions
	s := map[string]any{
		"@context":    schemaContext,
		"@type":       string(cms.SchemaProduct),
		"name":        in.Page.Title,
		"description": in.Page.MetaDescription,
		"url":         in.PageURL,
	}
	addImage(s, in.Page)

	if price := optionText(opts, "price"); price != "" {
		s["offers"] = map[string]any{
			"@type":         "Offer",
			"price":         price,
			"priceCurrency": firstNonEmpty(opts.String("currency"), "EUR"),
			"availability":  schemaContext + "/" + firstNonEmpty(opts.String("availability"), "InStock"),
			"url":           in.PageURL,
		}
	}
	if rating := optionText(opts, "rating"); rating != "" {
		s["aggregateRating"] = map[string]any{
			"@type":       "AggregateRating",
			"ratingValue": rating,
			"reviewCount": firstNonEmpty(optionText(opts, "ratingCount"), "1"),
		}
	}
	return s
}

func serviceSchema(in SchemaInput) map[string]any {
	s := map[string]any{
		"@context":    schemaContext,
		"@type":       string(cms.SchemaService),
		"name":        in.Page.Title,
		"description": in.Page.MetaDescription,
		"url":         in.PageURL,
	}
	addImage(s, in.Page)
	if org := in.Page.SchemaOptions.String("organizationName"); org != "" {
		s["provider"] = map[string]any{
			"@type": "Organization",
			"name":  org,
		}
	}
	return s
}

func faqSchema(in SchemaInput) map[string]any {
	entities := make([]map[string]any, len(in.FAQ))
	for i, item := range in.FAQ {
		entities[i] = map[string]any{
			"@type": "Question",
			"name":  item.Question,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  item.Answer,
			},
		}
	}
	return map[string]any{
		"@context":   schemaContext,
		"@type":      string(cms.SchemaFAQPage),
		"mainEntity": entities,
	}
}

func breadcrumbSchema(in SchemaInput) map[string]any {
	base := strings.TrimSuffix(in.BaseURL, "/")
	items := make([]map[string]any, len(in.Breadcrumbs))
	for i, crumb := range in.Breadcrumbs {
		u := crumb.URL
		if !strings.HasPrefix(u, "http") {
			u = base + u
		}
		items[i] = map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     crumb.Name,
			"item":     u,
		}
	}
	return map[string]any{
		"@context":        schemaContext,
		"@type":           "BreadcrumbList",
		"itemListElement": items,
	}
}

func addImage(s map[string]any, p *cms.Page) {
	if img := p.SchemaOptions.String("image"); img != "" {
		s["image"] = img
	}
}

// optionText returns a string or numeric option as text.
func optionText(opts cms.SchemaOptions, key string) string {
	switch v := opts[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
