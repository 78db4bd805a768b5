package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/josephvutrinh/eira/internal/api/middleware"
	"github.com/josephvutrinh/eira/internal/handlers"
)

// NewRouter creates and configures the HTTP router for the delete-account
// function service.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, auth *middleware.AuthMiddleware, rdb *redis.Client) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(4 * 1024)) // 4KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting
	if rdb != nil {
		limiter := middleware.NewRateLimiter(rdb, logger)
		r.Use(limiter.Middleware)
	}

	// CORS - the browser app invokes the function cross-origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes
	r.Get("/health", h.Health)

	// Authenticated routes (require a verified bearer token)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)

		r.Post("/delete-account", h.DeleteAccount)
		// Platform-style path, for deployments behind a functions gateway.
		r.Post("/functions/v1/delete-account", h.DeleteAccount)
	})

	return r
}
