package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func securityHeaders(cfg SecurityConfig, path string) http.Header {
	h := Security(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Header()
}

func TestSecurity_APIResponses(t *testing.T) {
	got := securityHeaders(SecurityConfig{StaticPrefix: "/uploads/"}, "/api/blog")

	want := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Referrer-Policy":              "strict-origin-when-cross-origin",
		"Content-Security-Policy":      "default-src 'none'; frame-ancestors 'none'",
		"Cross-Origin-Opener-Policy":   "same-origin",
		"Cross-Origin-Resource-Policy": "same-origin",
		"Cache-Control":                "no-store",
		"Strict-Transport-Security":    hsts,
	}
	for name, v := range want {
		if got.Get(name) != v {
			t.Errorf("%s = %q, want %q", name, got.Get(name), v)
		}
	}
}

func TestSecurity_UploadedFiles(t *testing.T) {
	got := securityHeaders(SecurityConfig{StaticPrefix: "/uploads/"}, "/uploads/01ARZ3NDEKTSV4RRFFQ69G5FAV.png")

	if v := got.Get("Cross-Origin-Resource-Policy"); v != "cross-origin" {
		t.Errorf("CORP = %q, want cross-origin", v)
	}
	if v := got.Get("Cache-Control"); v != "public, max-age=86400" {
		t.Errorf("Cache-Control = %q", v)
	}
	if got.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("base headers missing on static path")
	}
}

func TestSecurity_NoHSTSInDevelopment(t *testing.T) {
	got := securityHeaders(SecurityConfig{IsDevelopment: true}, "/api/blog")
	if v := got.Get("Strict-Transport-Security"); v != "" {
		t.Errorf("HSTS = %q in development", v)
	}
}

func TestMaxBodySize(t *testing.T) {
	var readErr error
	h := MaxBodySize(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	t.Run("under the cap", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)))
		if rec.Code != http.StatusOK || readErr != nil {
			t.Errorf("status = %d, read error = %v", rec.Code, readErr)
		}
	})

	t.Run("declared length over the cap", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("status = %d, want 413", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"success":false`) {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("undeclared length fails on read", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
		req.ContentLength = -1
		h.ServeHTTP(httptest.NewRecorder(), req)
		var tooLarge *http.MaxBytesError
		if !errors.As(readErr, &tooLarge) {
			t.Errorf("read error = %v, want *http.MaxBytesError", readErr)
		}
	})
}
