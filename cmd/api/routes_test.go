package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/handler"
	"github.com/folio/folio/internal/upload"
)

func testRouter(t *testing.T) (*chi.Mux, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	dir := t.TempDir()
	store, err := upload.NewStore(dir, "/uploads", 0, logger)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	base := handler.New(logger, false)
	cfg := &config.Config{AppEnv: "production", HTTP: config.HTTPConfig{MaxBodyBytes: 1 << 20}}

	r := setupRouter(routerDeps{
		cfg:       cfg,
		logger:    logger,
		verifier:  issuer,
		gatherer:  prometheus.NewRegistry(),
		base:      base,
		health:    handler.NewHealthHandler(nil, nil, logger),
		tracking:  handler.NewTrackingHandler(base, nil),
		leads:     handler.NewLeadHandler(base, nil),
		analytics: handler.NewAnalyticsHandler(base, nil),
		blog:      handler.NewBlogHandler(base, nil, nil),
		projects:  handler.NewProjectHandler(base, nil),
		services:  handler.NewServiceHandler(base, nil),
		ads:       handler.NewAdHandler(base, nil),
		uploads:   handler.NewUploadHandler(base, store),
		auth:      handler.NewAuthHandler(base, nil),
		uploadDir: dir,
	})
	return r, dir
}

func TestSetupRouter_Routes(t *testing.T) {
	r, _ := testRouter(t)

	registered := map[string]bool{}
	err := chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		registered[method+" "+strings.TrimSuffix(route, "/")] = true
		return nil
	})
	if err != nil {
		t.Fatalf("chi.Walk() error = %v", err)
	}

	want := []string{
		"POST /api/track/visit",
		"POST /api/track/event",
		"POST /api/leads/create",
		"GET /api/leads",
		"GET /api/leads/{id}",
		"PUT /api/leads/{id}",
		"DELETE /api/leads/{id}",
		"GET /api/analytics/overview",
		"GET /api/analytics/traffic",
		"GET /api/analytics/countries",
		"GET /api/analytics/pages",
		"GET /api/analytics/events",
		"GET /api/analytics/recent-visits",
		"GET /api/analytics/export/visits",
		"GET /api/analytics/export/leads",
		"GET /api/blog",
		"GET /api/blog/{key}",
		"GET /api/blog/{key}/comments",
		"POST /api/blog/{key}/comments",
		"GET /api/blog/admin/all",
		"GET /api/blog/id/{id}",
		"GET /api/blog/comments",
		"PUT /api/blog/comments/{id}",
		"DELETE /api/blog/comments/{id}",
		"POST /api/blog",
		"PUT /api/blog/{key}",
		"DELETE /api/blog/{key}",
		"GET /api/projects",
		"GET /api/projects/{id}",
		"POST /api/projects",
		"PUT /api/projects/{id}",
		"DELETE /api/projects/{id}",
		"GET /api/services",
		"GET /api/services/{id}",
		"POST /api/services",
		"PUT /api/services/{id}",
		"DELETE /api/services/{id}",
		"GET /api/ads/active",
		"GET /api/ads",
		"POST /api/ads",
		"GET /api/ads/{id}",
		"PUT /api/ads/{id}",
		"DELETE /api/ads/{id}",
		"POST /api/ads/{id}/click",
		"POST /api/ads/{id}/impression",
		"POST /api/upload",
		"DELETE /api/upload/{name}",
		"POST /api/auth/login",
		"GET /api/auth/me",
		"GET /healthz",
		"GET /readyz",
	}
	for _, route := range want {
		if !registered[route] {
			t.Errorf("route %q not registered", route)
		}
	}
}

func TestSetupRouter_AdminRoutesRequireToken(t *testing.T) {
	r, _ := testRouter(t)

	for _, target := range []string{
		"GET /api/leads",
		"GET /api/analytics/overview",
		"GET /api/blog/admin/all",
		"POST /api/ads",
		"DELETE /api/upload/01HZX3V6Q4T5M8J2K9N7P1R0SA.png",
	} {
		method, path, _ := strings.Cut(target, " ")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", target, rec.Code)
		}
	}
}

func TestSetupRouter_NotFoundEnvelope(t *testing.T) {
	r, _ := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope/nope/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != false {
		t.Errorf("expected success=false, got %v", body)
	}
}

func TestSetupRouter_ServesUploadsWithoutListing(t *testing.T) {
	r, dir := testRouter(t)

	if err := os.WriteFile(filepath.Join(dir, "cover.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/cover.png", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "png" {
		t.Errorf("expected file contents, got %d %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Cross-Origin-Resource-Policy"); got != "cross-origin" {
		t.Errorf("expected cross-origin CORP on uploads, got %q", got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for directory listing, got %d", rec.Code)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"mongodb://user:secret@db:27017/portfolio", "mongodb://user@db:27017/portfolio"},
		{"redis://:secret@cache:6379/0", "redis://redacted@cache:6379/0"},
		{"redis://cache:6379", "redis://cache:6379"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	uri := "mongodb://user:secret@db:27017"
	err := &url.Error{Op: "dial", URL: uri, Err: io.EOF}

	got := sanitizeError(err, uri)
	if strings.Contains(got, "secret") {
		t.Errorf("secret leaked: %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	if parseLogLevel("DEBUG") != slog.LevelDebug {
		t.Error("expected case-insensitive debug level")
	}
	if parseLogLevel("bogus") != slog.LevelInfo {
		t.Error("expected info fallback")
	}
}
