// cmd/worker drains the notification queue and sends templated email.
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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/event-registration/internal/config"
	"github.com/Shivanand-hulikatti/event-registration/internal/email"
	"github.com/Shivanand-hulikatti/event-registration/internal/logger"
	"github.com/Shivanand-hulikatti/event-registration/internal/metrics"
	"github.com/Shivanand-hulikatti/event-registration/internal/notification"
	"github.com/Shivanand-hulikatti/event-registration/internal/queue"
	"github.com/Shivanand-hulikatti/event-registration/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.App.LogLevel, !cfg.IsProduction())
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis")
	}

	if cfg.Email.APIKey == "" || cfg.Email.FromAddress == "" {
		// Messages will be dead-lettered as configuration errors.
		log.Warn().Msg("email provider is not configured")
	}

	notifications := queue.NewRedisQueue(rdb, cfg.Queue.Name, cfg.Queue.MaxReceives)
	emailWorker := worker.NewEmailWorker(email.NewSendGridClient(cfg.Email.APIKey), worker.Config{
		From: email.Address{Name: cfg.Email.FromName, Email: cfg.Email.FromAddress},
		Templates: map[notification.TemplateKind]string{
			notification.TemplateIndividual:   cfg.Email.IndividualTemplateID,
			notification.TemplateTeam:         cfg.Email.TeamTemplateID,
			notification.TemplateConfirmation: cfg.Email.ConfirmationTemplate,
		},
	})
	runner := worker.NewRunner(notifications, emailWorker, cfg.Queue.BatchSize, cfg.Queue.WaitTime)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Worker.MetricsPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("worker metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return runner.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("worker stopped")
}
