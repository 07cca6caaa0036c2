package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/contacts-api/config"
	"github.com/ErlanBelekov/contacts-api/internal/auth"
	"github.com/ErlanBelekov/contacts-api/internal/email"
	"github.com/ErlanBelekov/contacts-api/internal/health"
	"github.com/ErlanBelekov/contacts-api/internal/infrastructure/cache"
	ctxlog "github.com/ErlanBelekov/contacts-api/internal/log"
	"github.com/ErlanBelekov/contacts-api/internal/metrics"
	"github.com/ErlanBelekov/contacts-api/internal/notify"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := ctxlog.New(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		stop()
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	logger.Info("redis connected")

	metrics.Register()
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer,
		health.Dependency{Name: "redis", Pinger: cache.NewRedisPinger(redisClient)},
	)

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:    []byte(cfg.JWTSecret),
		Algorithm: cfg.JWTAlgorithm,
		EmailTTL:  cfg.EmailTokenTTL,
	})
	if err != nil {
		stop()
		log.Fatalf("tokens: %v", err)
	}
	mailer := notify.NewMailer(tokens, email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger), logger)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues:      map[string]int{notify.QueueDefault: 1},
			Logger:      newAsynqLogger(logger),
		},
	)
	mux := asynq.NewServeMux()
	mailer.Register(mux)

	if err := srv.Start(mux); err != nil {
		stop()
		log.Fatalf("asynq: %v", err)
	}
	logger.Info("worker started", "concurrency", cfg.WorkerConcurrency)

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	srv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("worker shut down")
}
