package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mkdev28/Cropp/pkg/auth"
)

// RouterConfig configures the cross-cutting parts of the HTTP API.
type RouterConfig struct {
	AllowedOrigins []string
	// JWT enables bearer authentication on /api/v1 when set.
	JWT *auth.JWTService
	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

// NewRouter wires middlewares and endpoints.
func NewRouter(h *Handler, health *HealthHandler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", health.Root)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(api chi.Router) {
		scorers := func(next http.Handler) http.Handler { return next }
		underwriters := scorers
		if cfg.JWT != nil {
			api.Use(auth.HTTPMiddleware(cfg.JWT))
			scorers = auth.RequireRoleHTTP(auth.RoleUnderwriter, auth.RoleAPIClient)
			underwriters = auth.RequireRoleHTTP(auth.RoleUnderwriter)
		}

		api.With(scorers).Post("/predict", h.Predict)
		api.With(scorers).Post("/predict/batch", h.PredictBatch)
		api.With(scorers).Post("/explain", h.Explain)
		api.Get("/model/info", h.ModelInfo)

		if h.getAssessment != nil {
			api.With(underwriters).Get("/assessments/{id}", h.GetAssessment)
		}
		if h.listAssessments != nil {
			api.With(underwriters).Get("/farmers/{farmerID}/assessments", h.ListAssessments)
		}
	})

	return r
}
