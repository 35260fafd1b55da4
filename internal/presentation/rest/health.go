package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkdev28/Cropp/internal/application/usecase"
)

const checkTimeout = 2 * time.Second

// Check tests one dependency for readiness.
type Check func(ctx context.Context) error

// HealthHandler provides HTTP health check endpoints for the risk service.
type HealthHandler struct {
	service   string
	active    *usecase.ActiveBundle
	checks    map[string]Check
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(service string, active *usecase.ActiveBundle, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service:   service,
		active:    active,
		checks:    map[string]Check{},
		logger:    logger,
		startTime: time.Now(),
	}
}

// AddCheck registers a readiness check. It must be called before serving.
func (h *HealthHandler) AddCheck(name string, check Check) {
	h.checks[name] = check
}

// HealthResponse is the JSON response for liveness checks.
type HealthResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Service     string `json:"service"`
	Uptime      string `json:"uptime"`
	ModelLoaded bool   `json:"model_loaded"`
}

// ReadinessResponse is the JSON response for readiness checks.
type ReadinessResponse struct {
	Status      string            `json:"status"`
	Service     string            `json:"service"`
	Checks      map[string]string `json:"checks"`
	ModelLoaded bool              `json:"model_loaded"`
}

// Root answers GET /.
func (h *HealthHandler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "running",
		Message:     "AgriRisk claim risk API",
		Service:     h.service,
		Uptime:      time.Since(h.startTime).String(),
		ModelLoaded: h.active.Ready(),
	})
}

// Healthz handles liveness requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	loaded := h.active.Ready()
	resp := HealthResponse{
		Status:      "healthy",
		Message:     "Model loaded",
		Service:     h.service,
		Uptime:      time.Since(h.startTime).String(),
		ModelLoaded: loaded,
	}
	if !loaded {
		resp.Status = "unhealthy"
		resp.Message = "Model not loaded"
	}
	writeJSON(w, http.StatusOK, resp)
}

// Readyz handles readiness requests. The service is ready once a
// bundle is active and every registered check passes.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	ready := h.active.Ready()
	checks := map[string]string{"model": "ok"}
	if !ready {
		checks["model"] = "not loaded"
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	resp := ReadinessResponse{Status: "ready", Service: h.service, Checks: checks, ModelLoaded: h.active.Ready()}
	status := http.StatusOK
	if !ready {
		resp.Status = "not ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
