package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/hookstore/internal/api/middleware"
	"github.com/eldtechnologies/hookstore/internal/handlers"
)

// maxWebhookBody caps webhook request bodies.
const maxWebhookBody = 64 * 1024

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, limiter *middleware.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)

	// Read API, callable from dashboards in a browser
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept"},
			ExposedHeaders:   []string{middleware.RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))

		r.Get("/messages", h.ListMessages)
		r.Get("/stats", h.Stats)
	})

	// Signed ingestion
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Use(middleware.MaxBodySize(maxWebhookBody))

		r.Post("/webhook", h.Webhook)
	})

	return r
}
