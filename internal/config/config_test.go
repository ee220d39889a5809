package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "test-secret")
}

func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		key := key
		if old, ok := os.LookupEnv(key); ok {
			_ = os.Unsetenv(key)
			t.Cleanup(func() { _ = os.Setenv(key, old) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"AppEnv", cfg.AppEnv, "development"},
		{"AppPort", cfg.AppPort, 5000},
		{"MongoDatabase", cfg.MongoDatabase, "portfolio"},
		{"Log.Format", cfg.Log.Format, "json"},
		{"Auth.TokenTTL", cfg.Auth.TokenTTL, 24 * time.Hour},
		{"HTTP.MaxBodyBytes", cfg.HTTP.MaxBodyBytes, int64(1 << 20)},
		{"RateLimit.Enabled", cfg.RateLimit.Enabled, true},
		{"Geo.Timeout", cfg.Geo.Timeout, 5 * time.Second},
		{"Mail.Enabled", cfg.Mail.Enabled, false},
		{"Mail.SMTPPort", cfg.Mail.SMTPPort, 587},
		{"Upload.MaxBytes", cfg.Upload.MaxBytes, int64(5 << 20)},
		{"CommentsAutoApprove", cfg.CommentsAutoApprove, true},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	unset(t, "MONGO_URI", "REDIS_URL", "JWT_SECRET")

	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded without required variables")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("GEO_TIMEOUT", "2s")
	t.Setenv("GEO_MAXMIND_DB", "/data/GeoLite2-City.mmdb")
	t.Setenv("RATE_LIMIT_BURST", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Geo.Timeout != 2*time.Second || cfg.Geo.MaxMindDB != "/data/GeoLite2-City.mmdb" {
		t.Errorf("geo = %+v", cfg.Geo)
	}
	if cfg.RateLimit.Burst != 3 {
		t.Errorf("burst = %d, want 3", cfg.RateLimit.Burst)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"port", map[string]string{"APP_PORT": "70000"}, "APP_PORT"},
		{"short production secret", map[string]string{"APP_ENV": "production"}, "JWT_SECRET"},
		{"zero rps", map[string]string{"RATE_LIMIT_RPS": "0"}, "RATE_LIMIT_RPS"},
		{"zero geo timeout", map[string]string{"GEO_TIMEOUT": "0s"}, "GEO_TIMEOUT"},
		{"zero upload cap", map[string]string{"UPLOAD_MAX_BYTES": "0"}, "UPLOAD_MAX_BYTES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_RateLimitOffSkipsBounds(t *testing.T) {
	setRequired(t)
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_RPS", "0")

	if _, err := Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}
}

func TestEnvironmentPredicates(t *testing.T) {
	for env, want := range map[string][2]bool{
		"development": {true, false},
		"production":  {false, true},
		"staging":     {false, false},
	} {
		cfg := &Config{AppEnv: env}
		if cfg.IsDevelopment() != want[0] || cfg.IsProduction() != want[1] {
			t.Errorf("%s: dev=%v prod=%v", env, cfg.IsDevelopment(), cfg.IsProduction())
		}
	}
}

func TestAllowedOrigins(t *testing.T) {
	got := HTTPConfig{CORSAllowedOrigins: " https://a.dev, ,https://b.dev "}.AllowedOrigins()
	if len(got) != 2 || got[0] != "https://a.dev" || got[1] != "https://b.dev" {
		t.Errorf("AllowedOrigins() = %v", got)
	}
	if got := (HTTPConfig{}).AllowedOrigins(); got != nil {
		t.Errorf("AllowedOrigins() = %v, want nil", got)
	}
}
