// Package board provides the pipeline board bounded context module.
// It wires the Postgres source of truth, the transition engine, the
// Redis-backed undo store and the HTTP handlers.
package board

import (
	"pipeline_board_backend/internal/board/engine"
	"pipeline_board_backend/internal/board/handler"
	"pipeline_board_backend/internal/board/repository"
	"pipeline_board_backend/internal/events"
	apphttp "pipeline_board_backend/internal/http"
	"pipeline_board_backend/platform/config"
	"pipeline_board_backend/platform/logger"
	"pipeline_board_backend/platform/retry"
	"pipeline_board_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

// Module is the board bounded context implementing http.Module.
type Module struct {
	handler  *handler.Handler
	registry *engine.Registry
	repo     *repository.Repository
}

// NewModule creates and initializes the board module with all its
// dependencies. resyncer may be nil when the task queue is not configured;
// metrics may be nil in tests.
func NewModule(pool *pgxpool.Pool, redisClient *goredis.Client, eventBus events.Bus, val *validator.Validator, cfg config.EngineConfig, log *logger.Logger, metrics *engine.Metrics, resyncer engine.ResyncScheduler) (*Module, error) {
	repo := repository.New(pool)

	if path := cfg.GetStageSeedPath(); path != "" {
		template, err := repository.LoadStageTemplate(path)
		if err != nil {
			return nil, err
		}
		repo.SetStageTemplate(template)
	}

	var undo *engine.UndoManager
	if redisClient != nil {
		store := repository.NewRedisUndoStore(redisClient)
		undo = engine.NewUndoManager(store, cfg.GetUndoWindow(), eventBus, log)
	}

	remote := engine.NewBreakerRemote(repo, log)
	policy := retry.New(cfg.GetMoveMaxAttempts(), cfg.GetMoveBaseDelay())
	registry := engine.NewRegistry(remote, policy, undo, resyncer, eventBus, log, metrics)

	return &Module{
		handler:  handler.New(registry, val, log),
		registry: registry,
		repo:     repo,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "board"
}

// Registry returns the transition engine for external use (the worker uses
// it to run scheduled resyncs).
func (m *Module) Registry() *engine.Registry {
	return m.registry
}

// RegisterRoutes mounts board routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	boardGroup := ctx.Org.Group("/board")
	m.handler.RegisterRoutes(boardGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
