package special

import (
	"fmt"
	"net/http"
	"strings"
)

// RobotsPage serves robots.txt, allowing every crawler and pointing it at
// the sitemap.
type RobotsPage struct {
	baseURL string
}

// NewRobotsPage creates a new robots.txt handler.
func NewRobotsPage(baseURL string) *RobotsPage {
	return &RobotsPage{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Handle writes robots.txt.
func (p *RobotsPage) Handle(rw http.ResponseWriter, req *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(rw, "User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", p.baseURL)
}
