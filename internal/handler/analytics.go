package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/folio/folio/internal/repository"
	"github.com/folio/folio/internal/service"
)

// AnalyticsHandler serves the admin dashboard aggregations and exports.
type AnalyticsHandler struct {
	*Handler
	svc *service.AnalyticsService
	now func() time.Time
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(base *Handler, svc *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{Handler: base, svc: svc, now: time.Now}
}

// Overview handles GET /api/analytics/overview.
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	h.windowed(w, r, func(win repository.Window) (any, error) {
		return h.svc.Overview(r.Context(), win)
	})
}

// Traffic handles GET /api/analytics/traffic?period=day|month.
func (h *AnalyticsHandler) Traffic(w http.ResponseWriter, r *http.Request) {
	h.windowed(w, r, func(win repository.Window) (any, error) {
		return h.svc.Traffic(r.Context(), win, trimmed(r, "period"))
	})
}

// Countries handles GET /api/analytics/countries.
func (h *AnalyticsHandler) Countries(w http.ResponseWriter, r *http.Request) {
	h.windowed(w, r, func(win repository.Window) (any, error) {
		return h.svc.TopCountries(r.Context(), win, queryInt(r, "limit", 0))
	})
}

// Pages handles GET /api/analytics/pages.
func (h *AnalyticsHandler) Pages(w http.ResponseWriter, r *http.Request) {
	h.windowed(w, r, func(win repository.Window) (any, error) {
		return h.svc.TopPages(r.Context(), win, queryInt(r, "limit", 0))
	})
}

// Events handles GET /api/analytics/events.
func (h *AnalyticsHandler) Events(w http.ResponseWriter, r *http.Request) {
	h.windowed(w, r, func(win repository.Window) (any, error) {
		return h.svc.TopEvents(r.Context(), win, queryInt(r, "limit", 0))
	})
}

// RecentVisits handles GET /api/analytics/recent-visits.
func (h *AnalyticsHandler) RecentVisits(w http.ResponseWriter, r *http.Request) {
	visits, err := h.svc.RecentVisits(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", visits)
}

// ExportVisits handles GET /api/analytics/export/visits.
func (h *AnalyticsHandler) ExportVisits(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "visits", h.svc.ExportVisits)
}

// ExportLeads handles GET /api/analytics/export/leads.
func (h *AnalyticsHandler) ExportLeads(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "leads", h.svc.ExportLeads)
}

func (h *AnalyticsHandler) windowed(w http.ResponseWriter, r *http.Request, fn func(repository.Window) (any, error)) {
	win, err := parseWindow(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := fn(win)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", data)
}

type exportFunc func(ctx context.Context, win repository.Window, out io.Writer) error

// export streams a CSV attachment. Headers are committed on the first
// write, so a query that fails before any row is flushed still gets a
// JSON error.
func (h *AnalyticsHandler) export(w http.ResponseWriter, r *http.Request, name string, fn exportFunc) {
	win, err := parseWindow(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.csv", name, h.now().UTC().Format("2006-01-02"))
	out := &attachmentWriter{w: w, filename: filename}

	if err := fn(r.Context(), win, out); err != nil {
		if !out.started {
			h.writeError(w, r, err)
			return
		}
		h.logger.Error("export aborted mid-stream", "export", name, "error", err)
	}
	if !out.started {
		out.start()
	}
}

type attachmentWriter struct {
	w        http.ResponseWriter
	filename string
	started  bool
}

func (a *attachmentWriter) start() {
	a.started = true
	a.w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	a.w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, a.filename))
	a.w.WriteHeader(http.StatusOK)
}

func (a *attachmentWriter) Write(p []byte) (int, error) {
	if !a.started {
		a.start()
	}
	return a.w.Write(p)
}
