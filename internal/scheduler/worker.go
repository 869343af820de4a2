package scheduler

import (
	"context"
	"fmt"

	"pipeline_board_backend/internal/board/engine"
	"pipeline_board_backend/platform/config"
	"pipeline_board_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Worker processes queued board tasks.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	registry *engine.Registry
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, registry *engine.Registry, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		registry: registry,
		log:      log,
	}

	mux.HandleFunc(TaskBoardResync, w.handleBoardResync)

	return w, nil
}

// Run starts the worker and blocks until shutdown.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleBoardResync(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseBoardResyncPayload(task)
	if err != nil {
		return err
	}

	orgID, err := uuid.Parse(payload.OrganizationID)
	if err != nil {
		w.log.Error("board resync task has invalid organization id", "value", payload.OrganizationID)
		return nil
	}

	if err := w.registry.Resync(ctx, orgID, "scheduled"); err != nil {
		w.log.Error("scheduled board resync failed", "error", err, "organizationId", orgID)
		return err
	}

	w.log.Info("scheduled board resync complete", "organizationId", orgID)
	return nil
}
