// cmd/api is the HTTP API entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Shivanand-hulikatti/event-registration/internal/auth"
	"github.com/Shivanand-hulikatti/event-registration/internal/config"
	"github.com/Shivanand-hulikatti/event-registration/internal/database"
	"github.com/Shivanand-hulikatti/event-registration/internal/handler"
	"github.com/Shivanand-hulikatti/event-registration/internal/logger"
	"github.com/Shivanand-hulikatti/event-registration/internal/metrics"
	"github.com/Shivanand-hulikatti/event-registration/internal/queue"
	"github.com/Shivanand-hulikatti/event-registration/internal/repository"
	"github.com/Shivanand-hulikatti/event-registration/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.App.LogLevel, !cfg.IsProduction())
	metrics.Init()

	ctx := context.Background()

	// ── 1. Connect to PostgreSQL and Redis ──────────────────────────────
	pool, err := database.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	log.Info().Str("host", cfg.DB.Host).Msg("connected to PostgreSQL")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis")
	}

	// ── 2. Auth collaborators ───────────────────────────────────────────
	sessions, err := auth.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Now)
	if err != nil {
		log.Fatal().Err(err).Msg("session validator")
	}
	limiter, err := newRateLimiter(cfg, rdb)
	if err != nil {
		log.Fatal().Err(err).Msg("rate limiter")
	}

	// ── 3. Wire up layers ───────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	orgRepo := repository.NewOrganizerRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	notifications := queue.NewRedisQueue(rdb, cfg.Queue.Name, cfg.Queue.MaxReceives)

	eventSvc := service.NewEventService(eventRepo, orgRepo)
	orgSvc := service.NewOrganizerService(orgRepo, eventRepo)
	regSvc := service.NewRegistrationService(eventRepo, orgRepo, regRepo, regRepo, notifications)
	paySvc := service.NewPaymentService(eventRepo, regRepo, notifications)

	responder := &handler.Responder{Production: cfg.IsProduction(), CORSOrigin: cfg.App.CORSOrigin}
	router := handler.NewRouter(handler.RouterConfig{
		Responder:     responder,
		Auth:          handler.NewAuthenticator(sessions, limiter, responder),
		Events:        handler.NewEventHandler(eventSvc),
		Organizers:    handler.NewOrganizerHandler(orgSvc),
		Registrations: handler.NewRegistrationHandler(regSvc, paySvc),
		Metrics:       promhttp.Handler(),
	})

	// ── 4. Start server with graceful shutdown ──────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.App.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("server stopped")
}

func newRateLimiter(cfg *config.Config, rdb *redis.Client) (auth.RateLimiter, error) {
	switch cfg.RateLimit.Store {
	case "redis":
		return auth.NewRedisLimiter(rdb, cfg.RateLimit.Prefix)
	case "memory", "":
		return auth.NewMemoryLimiter(), nil
	default:
		return nil, fmt.Errorf("unknown rate limit store %q", cfg.RateLimit.Store)
	}
}
