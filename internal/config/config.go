// Package config loads runtime settings from the environment. A .env file
// in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"5000"`

	MongoURI      string `env:"MONGO_URI,required"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"portfolio"`
	// Rate limits, geolocation cache and the notification stream.
	RedisURL string `env:"REDIS_URL,required"`

	Log       LogConfig
	HTTP      HTTPConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Geo       GeoConfig
	Mail      MailConfig
	Upload    UploadConfig

	CommentsAutoApprove bool          `env:"COMMENTS_AUTO_APPROVE" envDefault:"true"`
	ReconcileInterval   time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1m"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPConfig struct {
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	// Comma separated, e.g. "https://example.com,https://admin.example.com".
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
	MaxBodyBytes       int64  `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

// RateLimitConfig applies per client IP to the public write endpoints.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RPS     int  `env:"RATE_LIMIT_RPS" envDefault:"5"`
	Burst   int  `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

// GeoConfig configures the geolocation provider chain. URLs carry one %s
// for the address.
type GeoConfig struct {
	PrimaryURL   string        `env:"GEO_PRIMARY_URL" envDefault:"http://ip-api.com/json/%s?fields=status,message,country,countryCode,regionName,city"`
	SecondaryURL string        `env:"GEO_SECONDARY_URL" envDefault:"https://ipapi.co/%s/json/"`
	Timeout      time.Duration `env:"GEO_TIMEOUT" envDefault:"5s"`
	// GeoLite2/GeoIP2 City database tried before the HTTP providers.
	MaxMindDB string        `env:"GEO_MAXMIND_DB"`
	CacheTTL  time.Duration `env:"GEO_CACHE_TTL" envDefault:"24h"`
}

type MailConfig struct {
	Enabled     bool   `env:"NOTIFY_ENABLED" envDefault:"false"`
	SMTPHost    string `env:"SMTP_HOST"`
	SMTPPort    int    `env:"SMTP_PORT" envDefault:"587"`
	Username    string `env:"SMTP_USERNAME"`
	Password    string `env:"SMTP_PASSWORD"`
	From        string `env:"SMTP_FROM"`
	FromName    string `env:"SMTP_FROM_NAME" envDefault:"Portfolio"`
	NotifyEmail string `env:"NOTIFY_EMAIL"`
}

type UploadConfig struct {
	Dir      string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	BaseURL  string `env:"UPLOAD_BASE_URL" envDefault:"/uploads"`
	MaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`
}

const minProductionSecret = 32

func (c *Config) IsDevelopment() bool { return c.AppEnv == "development" }

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// AllowedOrigins splits CORSAllowedOrigins, dropping blanks. It returns nil
// when nothing is configured.
func (c HTTPConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.AppPort <= 0 || c.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT %d out of range", c.AppPort))
	}
	if c.IsProduction() && len(c.Auth.JWTSecret) < minProductionSecret {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minProductionSecret))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if c.Geo.Timeout <= 0 {
		errs = append(errs, errors.New("GEO_TIMEOUT must be positive"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_REQUEST_BODY_SIZE must be positive"))
	}
	return errors.Join(errs...)
}
