package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/josephvutrinh/eira/internal/api"
	"github.com/josephvutrinh/eira/internal/api/middleware"
	"github.com/josephvutrinh/eira/internal/config"
	"github.com/josephvutrinh/eira/internal/handlers"
	"github.com/josephvutrinh/eira/internal/identity"
	"github.com/josephvutrinh/eira/internal/store"
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
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Identity provider admin client
	var admin handlers.AdminDeleter
	if cfg.IdentityConfigured() {
		client := identity.NewClient(cfg.IdentityURL, cfg.IdentityAnonKey)
		client.ServiceRoleKey = cfg.ServiceRoleKey
		admin = client
		logger.Info().Str("url", cfg.IdentityURL).Msg("identity provider configured")
	} else {
		logger.Warn().Msg("identity provider not configured, deletion requests will fail")
	}

	// Initialize PostgreSQL store
	var data store.DataStore
	if cfg.StoreConfigured() {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		defer pgStore.Close()
		data = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	}

	// Initialize Redis (rate limiting)
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid redis url")
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer rdb.Close()
		logger.Info().Msg("connected to Redis")
	}

	// Create router
	h := handlers.NewHandler(admin, data, rdb)
	auth := middleware.NewAuthMiddleware(cfg.JWTSecret)
	router := api.NewRouter(logger, h, auth, rdb)

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
			Msg("starting delete-account function server")

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
