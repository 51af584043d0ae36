package special

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielledeleo/seocms/cms/service"
)

// Sitemap entry defaults for every listed page.
const (
	sitemapChangeFreq = "weekly"
	sitemapPriority   = "0.8"
)

// PageLister is the interface needed by SitemapPage.
type PageLister interface {
	ListSitemap() ([]service.Listing, error)
}

// SitemapPage serves sitemap.xml.
type SitemapPage struct {
	lister  PageLister
	baseURL string
}

// NewSitemapPage creates a new sitemap handler. Locations are baseURL
// followed by each page's full path.
func NewSitemapPage(lister PageLister, baseURL string) *SitemapPage {
	return &SitemapPage{
		lister:  lister,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// xmlURLSet represents the sitemap XML structure.
type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []xmlURL `xml:"url"`
}

// xmlURL represents a single URL entry in the sitemap.
type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Handle writes the sitemap of every published, public page.
func (p *SitemapPage) Handle(rw http.ResponseWriter, req *http.Request) {
	listings, err := p.lister.ListSitemap()
	if err != nil {
		slog.Error("failed to list pages for sitemap", "category", "special", "error", err)
		http.Error(rw, "Internal server error", http.StatusInternalServerError)
		return
	}

	urlset := xmlURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]xmlURL, len(listings)),
	}
	for i, l := range listings {
		entry := xmlURL{
			Loc:        p.baseURL + l.Path,
			ChangeFreq: sitemapChangeFreq,
			Priority:   sitemapPriority,
		}
		if !l.Page.UpdatedAt.IsZero() {
			entry.LastMod = l.Page.UpdatedAt.UTC().Format("2006-01-02")
		}
		urlset.URLs[i] = entry
	}

	rw.Header().Set("Content-Type", "application/xml; charset=utf-8")
	rw.Write([]byte(xml.Header))
	encoder := xml.NewEncoder(rw)
	encoder.Indent("", "  ")
	if err := encoder.Encode(urlset); err != nil {
		slog.Error("failed to encode sitemap XML", "category", "special", "error", err)
	}
}
