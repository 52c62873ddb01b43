package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/hookstore/internal/api"
	"github.com/eldtechnologies/hookstore/internal/api/middleware"
	"github.com/eldtechnologies/hookstore/internal/config"
	"github.com/eldtechnologies/hookstore/internal/handlers"
	"github.com/eldtechnologies/hookstore/internal/health"
	"github.com/eldtechnologies/hookstore/internal/ingest"
	"github.com/eldtechnologies/hookstore/internal/query"
	"github.com/eldtechnologies/hookstore/internal/stats"
	"github.com/eldtechnologies/hookstore/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		zerolog.TimeFieldFormat = "2006-01-02T15:04:05.000Z07:00"
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}
	logger = logger.Level(cfg.LogLevel)

	if !cfg.SecretConfigured() {
		logger.Error().Msg("WEBHOOK_SECRET is not set; service will not report ready and all webhooks are rejected")
	}

	ctx := context.Background()

	// Open storage and apply the schema before accepting traffic
	dataStore, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer dataStore.Close()

	if err := dataStore.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("schema setup failed")
	}
	logger.Info().Msg("database schema ready")

	// Initialize Redis store (optional, rate limiting only)
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	limiter := middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
		Whitelist:        cfg.RateLimitWhitelist,
		WebhookPerMinute: cfg.WebhookRateLimit,
	})

	h := handlers.NewHandler(
		ingest.NewPipeline([]byte(cfg.WebhookSecret), ingest.NewWriter(dataStore)),
		query.NewEngine(dataStore),
		stats.NewAggregator(dataStore),
		health.NewEvaluator(dataStore, cfg.SecretConfigured()),
		logger,
	)

	// Create router
	router := api.NewRouter(logger, h, limiter)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting hookstore server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
