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

	"github.com/shrinker-io/shrinker/config"
	appcache "github.com/shrinker-io/shrinker/internal/app/cache"
	appmodel "github.com/shrinker-io/shrinker/internal/app/model"
	apprepository "github.com/shrinker-io/shrinker/internal/app/repository"
	appserver "github.com/shrinker-io/shrinker/internal/app/server"
	appservice "github.com/shrinker-io/shrinker/internal/app/service"
	"github.com/shrinker-io/shrinker/internal/infra/logger"
	infraNATS "github.com/shrinker-io/shrinker/internal/infra/nats"
	infraPostgres "github.com/shrinker-io/shrinker/internal/infra/postgres"
	infraPrometheus "github.com/shrinker-io/shrinker/internal/infra/prometheus"
	infraRedis "github.com/shrinker-io/shrinker/internal/infra/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

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

	log.Info("Configuration loaded successfully",
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB,
		&appmodel.User{}, &appmodel.Link{}, &appmodel.ClickEvent{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully")

	if err := appservice.EnsureClickStream(js); err != nil {
		log.Fatal("Failed to ensure click stream", zap.Error(err))
	}

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	linkRepo := apprepository.NewLinkRepository(gormDB)
	userRepo := apprepository.NewUserRepository(gormDB)
	clickRepo := apprepository.NewClickEventRepository(pool)

	codeFilter := appservice.NewCodeFilter(1<<20, 0.01)
	if codes, err := linkRepo.ListCodes(ctx); err != nil {
		log.Warn("Failed to seed code filter, starting empty", zap.Error(err))
	} else {
		codeFilter.Seed(codes)
		log.Info("Code filter seeded", zap.Int("codes", len(codes)))
	}

	linkCache := appcache.New(redisClient, log,
		cfg.Cache.TTL(), cfg.Cache.LookupTimeoutDuration())
	clickPublisher := appservice.NewClickPublisher(js, log)

	authService := appservice.NewAuthService(userRepo,
		[]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTLDuration(), log)
	registrar := appservice.NewRegistrar(linkRepo, codeFilter, log)
	linkService := appservice.NewLinkService(linkRepo, clickRepo, log)
	redirectService := appservice.NewRedirectService(linkRepo, linkCache, clickPublisher, codeFilter, log)

	srv := appserver.New(appserver.Dependencies{
		Logger:    log,
		Redis:     redisClient,
		Auth:      authService,
		Registrar: registrar,
		Links:     linkService,
		Redirects: redirectService,
	})

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP server shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.Listen(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
