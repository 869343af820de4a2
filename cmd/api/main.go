package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pipeline_board_backend/internal/board"
	"pipeline_board_backend/internal/board/engine"
	"pipeline_board_backend/internal/config"
	"pipeline_board_backend/internal/events"
	apphttp "pipeline_board_backend/internal/http"
	"pipeline_board_backend/internal/http/router"
	"pipeline_board_backend/internal/scheduler"
	"pipeline_board_backend/platform/db"
	"pipeline_board_backend/platform/logger"
	"pipeline_board_backend/platform/retry"
	"pipeline_board_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

const migrationsDir = "migrations"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("development").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)
	log.Info("starting board api", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startup := retry.New(5, 2*time.Second)

	if err := startup.Do(ctx, "migrations", func() error {
		return db.RunMigrations(ctx, cfg, migrationsDir)
	}); err != nil {
		log.Error("database migrations failed", "error", err)
		os.Exit(1)
	}

	var pool *pgxpool.Pool
	if err := startup.Do(ctx, "database connect", func() error {
		var poolErr error
		pool, poolErr = db.NewPool(ctx, cfg)
		return poolErr
	}); err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpt, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error("invalid redis url", "error", err)
		os.Exit(1)
	}
	redisClient := goredis.NewClient(redisOpt)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	eventBus := events.NewInMemoryBus(log)

	queueClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("task queue client failed", "error", err)
		os.Exit(1)
	}
	defer queueClient.Close()

	metrics := engine.NewMetrics(prometheus.DefaultRegisterer)
	val := validator.New()

	boardModule, err := board.NewModule(pool, redisClient, eventBus, val, cfg, log, metrics, queueClient)
	if err != nil {
		log.Error("board module init failed", "error", err)
		os.Exit(1)
	}

	app := &apphttp.App{
		Config:          cfg,
		Logger:          log,
		Health:          db.NewPoolAdapter(pool),
		EventBus:        eventBus,
		RateLimitPerSec: cfg.RateLimitPerSec,
		RateLimitBurst:  cfg.RateLimitBurst,
		Modules:         []apphttp.Module{boardModule},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", "error", err)
	}

	log.Info("shutdown complete")
}
