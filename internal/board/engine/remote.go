// Package engine implements the board transition engine: optimistic moves
// against a cached board state, reconciled with a remote source of truth
// under a bounded retry policy, with a time-limited undo.
package engine

import (
	"context"
	"time"

	"pipeline_board_backend/internal/board/domain"

	"github.com/google/uuid"
)

// RemoteService is the source-of-truth contract the engine consumes.
// UpdateDealStage must be idempotent: the retry policy assumes at-least-once
// delivery and that a duplicate successful call is harmless.
type RemoteService interface {
	FetchBoardSnapshot(ctx context.Context, orgID uuid.UUID) (*domain.Board, error)
	UpdateDealStage(ctx context.Context, orgID, dealID, stageID uuid.UUID) (domain.Deal, error)
}

// ResyncScheduler enqueues a delayed follow-up resynchronization, used after
// a rollback to clear any residual drift once the remote has settled.
type ResyncScheduler interface {
	ScheduleBoardResync(ctx context.Context, orgID uuid.UUID, delay time.Duration) error
}
