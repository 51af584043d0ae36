package server

import (
	"net/http"
	"strings"
	"time"
)

// setCacheStable sets headers for content that is fixed for the lifetime
// of the server process, such as static assets.
func setCacheStable(w http.ResponseWriter, lastMod time.Time) {
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if !lastMod.IsZero() {
		w.Header().Set("Last-Modified", lastMod.UTC().Format(http.TimeFormat))
	}
}

// setCacheConditional sets headers for content that changes when pages are
// edited or published. Clients must revalidate with the returned ETag.
func setCacheConditional(w http.ResponseWriter, etag string, lastMod time.Time) {
	w.Header().Set("Cache-Control", "public, no-cache")
	if etag != "" {
		w.Header().Set("ETag", weakETag(etag))
	}
	if !lastMod.IsZero() {
		w.Header().Set("Last-Modified", lastMod.UTC().Format(http.TimeFormat))
	}
}

func weakETag(etag string) string {
	return `W/"` + etag + `"`
}

// checkNotModified answers 304 when the client's copy is still fresh.
// If-None-Match takes priority over If-Modified-Since and is compared
// weakly, so W/"x" matches "x". etag is the full header value.
func checkNotModified(w http.ResponseWriter, r *http.Request, etag string, lastMod time.Time) bool {
	if inmatch := r.Header.Get("If-None-Match"); inmatch != "" {
		if etag != "" && etagListMatches(inmatch, etag) {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
		return false
	}

	if ims := r.Header.Get("If-Modified-Since"); ims != "" && !lastMod.IsZero() {
		t, err := http.ParseTime(ims)
		if err == nil && !lastMod.Truncate(time.Second).After(t.Truncate(time.Second)) {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}

	return false
}

// etagListMatches reports whether a comma-separated If-None-Match value
// names etag or is "*".
func etagListMatches(list, etag string) bool {
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(list, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

// noStore wraps a handler to set Cache-Control: no-store.
func noStore(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		handler(w, r)
	}
}

// cacheControlHandler wraps an http.Handler to add a Cache-Control header.
func cacheControlHandler(h http.Handler, value string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", value)
		h.ServeHTTP(w, r)
	})
}
