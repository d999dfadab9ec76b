package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shrinker-io/shrinker/config"
	apprepository "github.com/shrinker-io/shrinker/internal/app/repository"
	appservice "github.com/shrinker-io/shrinker/internal/app/service"
	"github.com/shrinker-io/shrinker/internal/infra/logger"
	infraNATS "github.com/shrinker-io/shrinker/internal/infra/nats"
	infraPostgres "github.com/shrinker-io/shrinker/internal/infra/postgres"
	"go.uber.org/zap"
)

// The click worker runs separately from the HTTP service so recording
// clicks can never add redirect latency or fail a redirect.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully")

	clickRepo := apprepository.NewClickEventRepository(pool)

	consumer := appservice.NewClickConsumer(js, log, clickRepo)
	if err := consumer.Start(ctx, cfg.Worker.BatchSize, cfg.Worker.FetchWaitDuration()); err != nil {
		log.Fatal("Failed to start click consumer", zap.Error(err))
	}
	log.Info("Click consumer started",
		zap.Int("batch_size", cfg.Worker.BatchSize))

	retentionDays := cfg.Worker.RetentionDays
	if retentionDays <= 0 {
		retentionDays = 90
	}
	sweeper := appservice.NewRetentionSweeper(log, clickRepo,
		time.Duration(retentionDays)*24*time.Hour)
	sweeper.Start()
	defer sweeper.Stop()
	log.Info("Retention sweeper started", zap.Int("retention_days", retentionDays))

	<-ctx.Done()
	log.Info("Click worker shutting down")
}
