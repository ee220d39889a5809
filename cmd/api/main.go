// Package main is the entrypoint for the portfolio API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/cache"
	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/geo"
	"github.com/folio/folio/internal/handler"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/notify"
	"github.com/folio/folio/internal/reconcile"
	"github.com/folio/folio/internal/repository"
	"github.com/folio/folio/internal/server"
	"github.com/folio/folio/internal/service"
	"github.com/folio/folio/internal/upload"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := initLogger(cfg)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheus(registry)

	// Document store
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	repo, err := repository.New(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	cancel()
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.MongoURI)),
			slog.String("mongo_uri", redactURL(cfg.MongoURI)),
		)
		return errors.New("connect mongo")
	}
	logger.Info("connected to database", "database", cfg.MongoDatabase)

	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = repo.EnsureIndexes(indexCtx)
	cancel()
	if err != nil {
		_ = repo.Close(ctx)
		return fmt.Errorf("ensure indexes: %w", err)
	}

	// Cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		_ = repo.Close(ctx)
		return errors.New("connect redis")
	}
	logger.Info("connected to Redis")

	// Geolocation
	providers, closeGeo := buildGeoProviders(cfg.Geo, logger, recorder)
	resolver := geo.NewCachedResolver(
		geo.NewChain(providers, cfg.Geo.Timeout, logger, recorder),
		cacheClient, cfg.Geo.CacheTTL, logger, recorder,
	)

	// Notifications
	publisher := notify.NewPublisher(cacheClient.Client(), cfg.Mail.NotifyEmail, logger, recorder)
	notifyWorker := notify.NewWorker(cacheClient.Client(), buildSender(cfg.Mail, logger), logger, notify.NewConsumerID(), recorder)

	// Auth
	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("create token issuer: %w", err)
	}

	// Uploads
	uploads, err := upload.NewStore(cfg.Upload.Dir, cfg.Upload.BaseURL, cfg.Upload.MaxBytes, logger)
	if err != nil {
		return fmt.Errorf("create upload store: %w", err)
	}

	// Services
	trackingSvc := service.NewTrackingService(repo, resolver, logger, recorder)
	leadSvc := service.NewLeadService(repo, resolver, publisher, logger, recorder)
	analyticsSvc := service.NewAnalyticsService(repository.NewAnalyticsRepository(repo), logger)
	blogSvc := service.NewBlogService(repo, logger, recorder)
	commentSvc := service.NewCommentService(repo, cfg.CommentsAutoApprove, logger, recorder)
	projectSvc := service.NewProjectService(repo, logger, recorder)
	catalogSvc := service.NewServiceCatalog(repo, logger, recorder)
	adSvc := service.NewAdService(repo, logger, recorder)
	authSvc := service.NewAuthService(repo, issuer, logger)

	// Handlers
	base := handler.New(logger, cfg.IsDevelopment())
	r := setupRouter(routerDeps{
		cfg:       cfg,
		logger:    logger,
		limiter:   cacheClient,
		verifier:  issuer,
		gatherer:  registry,
		base:      base,
		health:    handler.NewHealthHandler(repo, cacheClient, logger),
		tracking:  handler.NewTrackingHandler(base, trackingSvc),
		leads:     handler.NewLeadHandler(base, leadSvc),
		analytics: handler.NewAnalyticsHandler(base, analyticsSvc),
		blog:      handler.NewBlogHandler(base, blogSvc, commentSvc),
		projects:  handler.NewProjectHandler(base, projectSvc),
		services:  handler.NewServiceHandler(base, catalogSvc),
		ads:       handler.NewAdHandler(base, adSvc),
		uploads:   handler.NewUploadHandler(base, uploads),
		auth:      handler.NewAuthHandler(base, authSvc),
		uploadDir: uploads.Dir(),
	})

	srv := server.New(r, server.Config{
		Addr:            fmt.Sprintf(":%d", cfg.AppPort),
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}, logger)

	// Shutdown runs in reverse: workers stop before the stores they use.
	srv.OnShutdown("mongo", repo.Close)
	srv.OnShutdown("redis", func(context.Context) error { return cacheClient.Close() })
	srv.OnShutdown("geo", func(context.Context) error { return closeGeo() })

	workerCtx := context.Background()

	go func() {
		if err := notifyWorker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("notification worker stopped", "error", err)
		}
	}()
	srv.OnShutdown("notify-worker", notifyWorker.Shutdown)

	reconciler := reconcile.NewWorker(repo, cfg.ReconcileInterval, logger, recorder)
	go func() {
		if err := reconciler.Run(workerCtx); err != nil {
			logger.Error("reconcile worker stopped", "error", err)
		}
	}()
	srv.OnShutdown("reconcile-worker", reconciler.Shutdown)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"notifications", cfg.Mail.Enabled,
		"comments_auto_approve", cfg.CommentsAutoApprove,
	)

	return srv.Run(ctx)
}

// buildGeoProviders returns the lookup chain: the local MaxMind database
// when configured, then the HTTP providers behind circuit breakers. The
// returned func closes whatever was opened.
func buildGeoProviders(cfg config.GeoConfig, logger *slog.Logger, recorder metrics.Recorder) ([]geo.Provider, func() error) {
	var providers []geo.Provider
	closeFn := func() error { return nil }

	if cfg.MaxMindDB != "" {
		mm, err := geo.OpenMaxMind(cfg.MaxMindDB)
		if err != nil {
			logger.Warn("maxmind database unavailable, using HTTP providers only",
				"path", cfg.MaxMindDB, "error", err)
		} else {
			providers = append(providers, mm)
			closeFn = mm.Close
		}
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.PrimaryURL != "" {
		providers = append(providers, geo.NewBreakerProvider(
			geo.NewHTTPProvider("ip-api", cfg.PrimaryURL, geo.FormatIPAPICom, client), recorder))
	}
	if cfg.SecondaryURL != "" {
		providers = append(providers, geo.NewBreakerProvider(
			geo.NewHTTPProvider("ipapi", cfg.SecondaryURL, geo.FormatIPAPICo, client), recorder))
	}
	return providers, closeFn
}

// buildSender picks SMTP when notifications are enabled. Otherwise queued
// messages are only logged.
func buildSender(cfg config.MailConfig, logger *slog.Logger) notify.Sender {
	if !cfg.Enabled {
		return notify.LogSender{Logger: logger}
	}
	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		FromName: cfg.FromName,
	})
	if err != nil {
		logger.Warn("smtp not usable, notifications will only be logged", "error", err)
		return notify.LogSender{Logger: logger}
	}
	return mailer
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}

	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "folio-api")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

// redactURL drops the password from a connection URL, keeping the user.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError replaces any of secrets appearing in err with their
// redacted form.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
