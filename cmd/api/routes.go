package main

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/handler"
	"github.com/folio/folio/internal/middleware"
)

// uploadsPrefix is where stored images are served from.
const uploadsPrefix = "/uploads/"

// routerDeps is everything setupRouter mounts.
type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	limiter  middleware.Limiter
	verifier middleware.TokenVerifier
	gatherer prometheus.Gatherer

	base      *handler.Handler
	health    *handler.HealthHandler
	tracking  *handler.TrackingHandler
	leads     *handler.LeadHandler
	analytics *handler.AnalyticsHandler
	blog      *handler.BlogHandler
	projects  *handler.ProjectHandler
	services  *handler.ServiceHandler
	ads       *handler.AdHandler
	uploads   *handler.UploadHandler
	auth      *handler.AuthHandler
	uploadDir string
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: d.cfg.IsDevelopment(),
		StaticPrefix:  uploadsPrefix,
	}))
	r.Use(middleware.CORS(d.cfg.HTTP.AllowedOrigins()))

	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))
	r.Handle(uploadsPrefix+"*", http.StripPrefix(uploadsPrefix, noDirListing(http.FileServer(http.Dir(d.uploadDir)))))

	rl := middleware.RateLimitConfig{
		Logger:  d.logger,
		Limiter: d.limiter,
		Enabled: d.cfg.RateLimit.Enabled,
		RPS:     d.cfg.RateLimit.RPS,
		Burst:   d.cfg.RateLimit.Burst,
	}
	limit := func(scope string) func(http.Handler) http.Handler {
		return middleware.RateLimitIP(rl, scope)
	}
	admin := middleware.RequireAdmin(d.verifier, d.logger)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodySize(d.cfg.HTTP.MaxBodyBytes))

			r.Route("/auth", func(r chi.Router) {
				r.With(limit("login")).Post("/login", d.auth.Login)
				r.With(admin).Get("/me", d.auth.Me)
			})

			r.Route("/track", func(r chi.Router) {
				r.Use(limit("track"))
				r.Post("/visit", d.tracking.Visit)
				r.Post("/event", d.tracking.Event)
			})

			r.Route("/leads", func(r chi.Router) {
				r.With(limit("lead")).Post("/create", d.leads.Create)
				r.Group(func(r chi.Router) {
					r.Use(admin)
					r.Get("/", d.leads.List)
					r.Get("/{id}", d.leads.Get)
					r.Put("/{id}", d.leads.Update)
					r.Delete("/{id}", d.leads.Delete)
				})
			})

			r.Route("/analytics", func(r chi.Router) {
				r.Use(admin)
				r.Get("/overview", d.analytics.Overview)
				r.Get("/traffic", d.analytics.Traffic)
				r.Get("/countries", d.analytics.Countries)
				r.Get("/pages", d.analytics.Pages)
				r.Get("/events", d.analytics.Events)
				r.Get("/recent-visits", d.analytics.RecentVisits)
				r.Get("/export/visits", d.analytics.ExportVisits)
				r.Get("/export/leads", d.analytics.ExportLeads)
			})

			// {key} is a slug on public reads and an id on admin writes.
			r.Route("/blog", func(r chi.Router) {
				r.Get("/", d.blog.List)
				r.Get("/categories", d.blog.Categories)
				r.Get("/{key}", d.blog.View)
				r.Get("/{key}/comments", d.blog.Comments)
				r.With(limit("comment")).Post("/{key}/comments", d.blog.AddComment)

				r.Group(func(r chi.Router) {
					r.Use(admin)
					r.Get("/admin/all", d.blog.ListAll)
					r.Get("/id/{id}", d.blog.GetByID)
					r.Get("/comments", d.blog.AllComments)
					r.Put("/comments/{id}", d.blog.ModerateComment)
					r.Delete("/comments/{id}", d.blog.DeleteComment)
					r.Post("/", d.blog.Create)
					r.Put("/{key}", d.blog.Update)
					r.Delete("/{key}", d.blog.Delete)
				})
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", d.projects.List)
				r.Get("/{id}", d.projects.Get)
				r.With(admin).Post("/", d.projects.Create)
				r.With(admin).Put("/{id}", d.projects.Update)
				r.With(admin).Delete("/{id}", d.projects.Delete)
			})

			r.Route("/services", func(r chi.Router) {
				r.Get("/", d.services.List)
				r.With(admin).Get("/admin/all", d.services.ListAll)
				r.Get("/{id}", d.services.Get)
				r.With(admin).Post("/", d.services.Create)
				r.With(admin).Put("/{id}", d.services.Update)
				r.With(admin).Delete("/{id}", d.services.Delete)
			})

			r.Route("/ads", func(r chi.Router) {
				r.Get("/active", d.ads.Active)
				r.With(limit("ads")).Post("/{id}/click", d.ads.Click)
				r.With(limit("ads")).Post("/{id}/impression", d.ads.Impression)

				r.Group(func(r chi.Router) {
					r.Use(admin)
					r.Get("/", d.ads.List)
					r.Post("/", d.ads.Create)
					r.Get("/{id}", d.ads.Get)
					r.Put("/{id}", d.ads.Update)
					r.Delete("/{id}", d.ads.Delete)
				})
			})
		})

		// Uploads enforce their own size limit.
		r.Route("/upload", func(r chi.Router) {
			r.Use(admin)
			r.Post("/", d.uploads.Upload)
			r.Delete("/{name}", d.uploads.Delete)
		})
	})

	r.NotFound(d.base.NotFound)
	r.MethodNotAllowed(d.base.MethodNotAllowed)

	return r
}

// noDirListing hides directory indexes from the file server.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
