package render

import (
	"fmt"
	"html"
	"strings"
)

// Sanitizer strips markup capable of running script or navigating to unsafe
// URLs while keeping classes, inline styles and structural tags. Sanitize
// never fails and is idempotent.
type Sanitizer interface {
	Sanitize(dirty string) string
}

// Sanitizer kinds accepted by NewSanitizer.
const (
	SanitizerText = "text"
	SanitizerDOM  = "dom"
)

// NewSanitizer returns the sanitizer strategy named by kind.
func NewSanitizer(kind string) (Sanitizer, error) {
	switch strings.ToLower(kind) {
	case "", SanitizerText:
		return NewTextSanitizer(), nil
	case SanitizerDOM:
		return NewDOMSanitizer(), nil
	}
	return nil, fmt.Errorf("unknown sanitizer %q", kind)
}

// Elements removed together with everything they contain.
var removedWithContent = map[string]bool{
	"script":   true,
	"noscript": true,
	"object":   true,
	"applet":   true,
}

// removedElement reports whether an element named name is dropped. The
// hasHTTPEquiv flag only matters for meta.
func removedElement(name string, hasHTTPEquiv bool) bool {
	switch name {
	case "script", "noscript", "object", "embed", "applet", "base":
		return true
	case "meta":
		return hasHTTPEquiv
	}
	return false
}

// isEventHandler reports whether an attribute name is an inline event handler.
func isEventHandler(name string) bool {
	name = strings.ToLower(name)
	if len(name) < 3 || !strings.HasPrefix(name, "on") {
		return false
	}
	for _, r := range name[2:] {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// Attributes whose value is loaded or navigated to as a URL.
var urlAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"data":       true,
	"poster":     true,
	"xlink:href": true,
}

// Attributes where a data: URI is only allowed for images.
var dataURIAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
}

// SVG animation attributes can assign a URL to href after load.
var animationAttrs = map[string]bool{
	"to":     true,
	"from":   true,
	"values": true,
	"by":     true,
}

// normalizeURL decodes character references and drops whitespace and
// control characters, which browsers ignore inside a URL scheme.
func normalizeURL(value string) string {
	decoded := html.UnescapeString(value)
	var b strings.Builder
	b.Grow(len(decoded))
	for _, r := range decoded {
		if r <= 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

func isScriptURL(normalized string) bool {
	return strings.HasPrefix(normalized, "javascript:") || strings.HasPrefix(normalized, "vbscript:")
}

// dangerousAttr reports whether the attribute value must be emptied.
// value is the unquoted attribute value as written.
func dangerousAttr(name, value string) bool {
	name = strings.ToLower(name)
	switch {
	case name == "srcdoc":
		return value != ""
	case urlAttrs[name]:
		u := normalizeURL(value)
		if isScriptURL(u) {
			return true
		}
		return dataURIAttrs[name] && strings.HasPrefix(u, "data:") && !strings.HasPrefix(u, "data:image/")
	case animationAttrs[name]:
		u := normalizeURL(value)
		return strings.Contains(u, "javascript:") || strings.Contains(u, "vbscript:")
	}
	return false
}
