package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pipeline_board_backend/internal/board"
	"pipeline_board_backend/internal/config"
	"pipeline_board_backend/internal/events"
	"pipeline_board_backend/internal/scheduler"
	"pipeline_board_backend/platform/db"
	"pipeline_board_backend/platform/logger"
	"pipeline_board_backend/platform/retry"
	"pipeline_board_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("development").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)
	log.Info("starting board worker", "env", cfg.Env, "queue", cfg.AsynqQueueName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startup := retry.New(5, 2*time.Second)

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

	eventBus := events.NewInMemoryBus(log)

	boardModule, err := board.NewModule(pool, redisClient, eventBus, validator.New(), cfg, log, nil, nil)
	if err != nil {
		log.Error("board module init failed", "error", err)
		os.Exit(1)
	}

	worker, err := scheduler.NewWorker(cfg, boardModule.Registry(), log)
	if err != nil {
		log.Error("worker init failed", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := worker.Run(); err != nil {
			log.Error("worker stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down worker")
	worker.Shutdown()
}
