package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/doublemoney-pro/doublemoney/internal/api"
	"github.com/doublemoney-pro/doublemoney/internal/api/middleware"
	"github.com/doublemoney-pro/doublemoney/internal/config"
	"github.com/doublemoney-pro/doublemoney/internal/db"
	"github.com/doublemoney-pro/doublemoney/internal/idempotency"
	"github.com/doublemoney-pro/doublemoney/internal/observability"
	"github.com/doublemoney-pro/doublemoney/internal/repository"
	"github.com/doublemoney-pro/doublemoney/internal/service"
	"github.com/doublemoney-pro/doublemoney/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server and maturation worker, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	store := repository.NewStore(pool)
	idemStore := idempotency.NewStore(redisClient, cfg.IdempotencyTTL)

	userSvc := service.NewUserService(store, cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	referralSvc := service.NewReferralService(store, redisClient, cfg.ReferralStatusTTL, cfg.ReferralLinkBase)
	investmentSvc := service.NewInvestmentService(store, service.InvestmentConfig{
		MinDepositMicros: cfg.MinDepositMicros,
		MaxDepositMicros: cfg.MaxDepositMicros,
		Duration:         cfg.InvestmentDuration,
		Multiplier:       cfg.PayoutMultiplier,
	}, referralSvc)
	maturationSvc := service.NewMaturationService(store, service.MaturationConfig{
		Multiplier:  cfg.PayoutMultiplier,
		PayoutDelay: cfg.ReferralPayoutDelay,
		BatchSize:   cfg.ScanBatchSize,
	})
	adminSvc := service.NewAdminService(store)

	if err := userSvc.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	maturationWorker := worker.NewMaturationWorker(maturationSvc).WithInterval(cfg.ScanInterval)
	stopWorker := maturationWorker.Run(ctx)
	logger.Info("maturation worker started",
		zap.Duration("interval", cfg.ScanInterval),
		zap.Int32("batch", cfg.ScanBatchSize))

	router := api.NewRouter(cfg, logger, pool, redisClient, idemStore, userSvc, investmentSvc, referralSvc, adminSvc)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping maturation worker")
	stopWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
