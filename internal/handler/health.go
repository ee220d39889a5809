package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Pinger is a dependency the readiness check can reach.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readyTimeout = 3 * time.Second

type dependency struct {
	name string
	ping Pinger
}

// HealthHandler serves the liveness and readiness checks.
type HealthHandler struct {
	deps   []dependency
	logger *slog.Logger
}

// NewHealthHandler pings the document store and the cache. A nil
// dependency is reported as "not configured" and does not fail readiness.
func NewHealthHandler(mongo, redis Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		deps:   []dependency{{"mongo", mongo}, {"redis", redis}},
		logger: logger.With("component", "health"),
	}
}

// HealthResponse is the health body. It is not wrapped in the API envelope.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz answers as long as the process can serve HTTP.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz reports 503 when any configured dependency fails its ping.
// Errors go to the log only.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	results := make([]error, len(h.deps))
	var wg sync.WaitGroup
	for i, d := range h.deps {
		i, d := i, d
		if d.ping == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = d.ping.Ping(ctx)
		}()
	}
	wg.Wait()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.deps))}
	code := http.StatusOK
	for i, d := range h.deps {
		switch {
		case d.ping == nil:
			resp.Checks[d.name] = "not configured"
		case results[i] != nil:
			h.logger.Warn("readiness check failed", "dependency", d.name, "error", results[i])
			resp.Checks[d.name] = "unavailable"
			resp.Status, code = "unhealthy", http.StatusServiceUnavailable
		default:
			resp.Checks[d.name] = "ok"
		}
	}
	writeJSON(w, code, resp)
}
