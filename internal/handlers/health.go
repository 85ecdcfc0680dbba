package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/poke-market/api/internal/platform/httpx"
)

// BuildInfo carries the build metadata surfaced on the health endpoints.
type BuildInfo struct {
	Version   string
	CommitSHA string
	StartedAt time.Time
}

// ReadinessCheck reports whether a named dependency is ready to serve.
type ReadinessCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandlers serves the /healthz and /readyz endpoints.
type HealthHandlers struct {
	build  BuildInfo
	clock  func() time.Time
	checks []ReadinessCheck
}

// HealthOption customises the health handlers before construction.
type HealthOption func(*HealthHandlers)

// NewHealthHandlers constructs the health endpoints with optional build info
// and readiness probes.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		build: BuildInfo{StartedAt: time.Now()},
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithHealthBuildInfo sets the build metadata reported by /healthz.
func WithHealthBuildInfo(build BuildInfo) HealthOption {
	return func(h *HealthHandlers) {
		if build.StartedAt.IsZero() {
			build.StartedAt = time.Now()
		}
		h.build = build
	}
}

// WithHealthClock overrides the clock used for uptime calculation.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithReadinessCheck registers a named dependency probe evaluated by /readyz.
func WithReadinessCheck(name string, probe func(ctx context.Context) error) HealthOption {
	return func(h *HealthHandlers) {
		if probe == nil {
			return
		}
		h.checks = append(h.checks, ReadinessCheck{Name: name, Probe: probe})
	}
}

// Healthz reports liveness with uptime and build metadata.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	payload := map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.build.StartedAt).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	}
	if h.build.Version != "" {
		payload["version"] = h.build.Version
	}
	if h.build.CommitSHA != "" {
		payload["commit"] = h.build.CommitSHA
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

// Readyz evaluates every registered dependency probe and reports per-check
// status. Any failing probe fails the whole endpoint.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := make(map[string]string, len(h.checks))
	failed := false
	for _, check := range h.checks {
		if err := check.Probe(ctx); err != nil {
			checks[check.Name] = err.Error()
			failed = true
			continue
		}
		checks[check.Name] = "ok"
	}

	if failed {
		httpx.WriteError(ctx, w, httpx.NewError("not_ready", "one or more dependencies are not ready", http.StatusServiceUnavailable).WithDetails(map[string]any{"checks": checks}))
		return
	}

	payload := map[string]any{
		"status":    "ok",
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	}
	if len(checks) > 0 {
		payload["checks"] = checks
	}
	writeJSONResponse(w, http.StatusOK, payload)
}
