package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSetCacheStable(t *testing.T) {
	rr := httptest.NewRecorder()
	lastMod := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)

	setCacheStable(rr, lastMod)

	if got := rr.Header().Get("Cache-Control"); got != "public, max-age=86400" {
		t.Errorf("Cache-Control = %q, want %q", got, "public, max-age=86400")
	}
	if got := rr.Header().Get("Last-Modified"); got != "Sat, 28 Feb 2026 12:00:00 GMT" {
		t.Errorf("Last-Modified = %q, want %q", got, "Sat, 28 Feb 2026 12:00:00 GMT")
	}
}

func TestSetCacheConditional(t *testing.T) {
	rr := httptest.NewRecorder()

	setCacheConditional(rr, "abc123", time.Time{})

	if got := rr.Header().Get("Cache-Control"); got != "public, no-cache" {
		t.Errorf("Cache-Control = %q, want %q", got, "public, no-cache")
	}
	if got := rr.Header().Get("ETag"); got != weakETag("abc123") {
		t.Errorf("ETag = %q, want %q", got, `W/"abc123"`)
	}
	if got := rr.Header().Get("Last-Modified"); got != "" {
		t.Errorf("Last-Modified = %q for a zero time, want none", got)
	}
}

func TestCheckNotModified(t *testing.T) {
	updated := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		ifNoneMatch string
		ifModSince  time.Time
		etag        string
		lastMod     time.Time
		want        bool
	}{
		{"etag match", `W/"abc"`, time.Time{}, `W/"abc"`, updated, true},
		{"etag mismatch", `W/"old"`, time.Time{}, `W/"abc"`, updated, false},
		{"etag in list", `"x", W/"abc"`, time.Time{}, `W/"abc"`, updated, true},
		{"weak comparison", `"abc"`, time.Time{}, `W/"abc"`, updated, true},
		{"wildcard", "*", time.Time{}, `W/"abc"`, updated, true},
		{"etag wins over date", `W/"old"`, updated, `W/"abc"`, updated, false},
		{"not modified since", "", updated, "", updated, true},
		{"sub-second edit is not newer", "", updated, "", updated.Add(300 * time.Millisecond), true},
		{"modified after", "", updated.Add(-24 * time.Hour), "", updated, false},
		{"no conditional headers", "", time.Time{}, `W/"abc"`, updated, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/", nil)
			if tt.ifNoneMatch != "" {
				req.Header.Set("If-None-Match", tt.ifNoneMatch)
			}
			if !tt.ifModSince.IsZero() {
				req.Header.Set("If-Modified-Since", tt.ifModSince.Format(http.TimeFormat))
			}

			got := checkNotModified(rr, req, tt.etag, tt.lastMod)
			if got != tt.want {
				t.Errorf("checkNotModified() = %v, want %v", got, tt.want)
			}
			if got && rr.Code != http.StatusNotModified {
				t.Errorf("status = %d, want %d", rr.Code, http.StatusNotModified)
			}
		})
	}
}

func TestNoStore(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler := noStore(inner)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/preview", nil)
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want %q", got, "no-store")
	}
	if rr.Body.String() != "ok" {
		t.Error("inner handler was not called")
	}
}
