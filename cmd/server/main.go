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
	"github.com/ErlanBelekov/contacts-api/internal/avatar"
	"github.com/ErlanBelekov/contacts-api/internal/health"
	"github.com/ErlanBelekov/contacts-api/internal/infrastructure/cache"
	"github.com/ErlanBelekov/contacts-api/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/contacts-api/internal/log"
	"github.com/ErlanBelekov/contacts-api/internal/metrics"
	"github.com/ErlanBelekov/contacts-api/internal/notify"
	httptransport "github.com/ErlanBelekov/contacts-api/internal/transport/http"
	"github.com/ErlanBelekov/contacts-api/internal/transport/http/handler"
	"github.com/ErlanBelekov/contacts-api/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := ctxlog.New(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		stop()
		log.Fatalf("migrate: %v", err)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		stop()
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer queue.Close()

	storage, err := avatar.NewS3Storage(ctx, avatar.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		stop()
		log.Fatalf("s3: %v", err)
	}

	// Auth core
	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		Algorithm:  cfg.JWTAlgorithm,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		EmailTTL:   cfg.EmailTokenTTL,
	})
	if err != nil {
		stop()
		log.Fatalf("tokens: %v", err)
	}
	hasher := auth.NewHasher(cfg.BcryptCost)

	userRepo := postgres.NewUserRepository(pool)
	sessions := auth.NewSessionResolver(tokens, cache.NewSessionStore(redisClient), userRepo, logger,
		cfg.SessionCacheTTL, cfg.CollaboratorTimeout)

	// Users and auth flows
	notifier := notify.NewQueueNotifier(queue, logger)
	authUsecase := usecase.NewAuthUsecase(userRepo, hasher, tokens, notifier, logger, cfg.CollaboratorTimeout)
	userUsecase := usecase.NewUserUsecase(userRepo, storage, sessions, logger)

	// Contacts
	contactUsecase := usecase.NewContactUsecase(postgres.NewContactRepository(pool))

	metrics.Register()
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer,
		health.Dependency{Name: "postgres", Pinger: pool},
		health.Dependency{Name: "redis", Pinger: cache.NewRedisPinger(redisClient)},
	)

	router := httptransport.NewRouter(logger, httptransport.RouterConfig{
		Production:        cfg.IsProduction(),
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}, sessions, httptransport.Handlers{
		Auth:     handler.NewAuthHandler(authUsecase, cfg.PublicBaseURL, logger),
		Users:    handler.NewUserHandler(userUsecase, logger),
		Contacts: handler.NewContactHandler(contactUsecase, logger),
		Health:   handler.NewHealthHandler(checker),
	})

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}
