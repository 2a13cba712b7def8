package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tasklist/tasklist/internal/metrics"
	"github.com/tasklist/tasklist/internal/middleware"
	"github.com/tasklist/tasklist/internal/service"
)

// RouterConfig carries everything the router wires together.
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *service.AuthService
	TaskService *service.TaskService
	Store       HealthChecker
	Backend     string
	Metrics     metrics.Snapshotter

	IsDevelopment      bool
	CORSAllowedOrigins []string
	MaxRequestBodySize int64
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := New()
	healthHandler := NewHealthHandler(cfg.Store, cfg.Backend)
	metricsHandler := NewMetricsHandler(cfg.Metrics)
	authHandler := NewAuthHandler(cfg.AuthService, logger)
	taskHandler := NewTaskHandler(cfg.TaskService, logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	maxBody := cfg.MaxRequestBodySize
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(maxBody))

	// Operational endpoints (no auth required)
	r.Get("/", h.Hello)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(middleware.Auth(middleware.AuthConfig{
				Logger:        logger,
				Authenticator: cfg.AuthService,
			}))

			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Put("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
