package engine

import (
	"context"
	"time"

	"pipeline_board_backend/internal/board/domain"
	"pipeline_board_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// BreakerRemote decorates a RemoteService with a circuit breaker. When the
// remote repeatedly fails, the breaker opens and calls fail fast; an open
// breaker surfaces to the coordinator as an ordinary transient failure, so
// the usual rollback path applies.
type BreakerRemote struct {
	inner  RemoteService
	fetch  *gobreaker.CircuitBreaker[*domain.Board]
	update *gobreaker.CircuitBreaker[domain.Deal]
}

// NewBreakerRemote wraps the remote service. Fetch and update get separate
// breakers: a broken write path should not block reloading the board.
func NewBreakerRemote(inner RemoteService, log *logger.Logger) *BreakerRemote {
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state change",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		}
	}

	return &BreakerRemote{
		inner:  inner,
		fetch:  gobreaker.NewCircuitBreaker[*domain.Board](settings("board_snapshot")),
		update: gobreaker.NewCircuitBreaker[domain.Deal](settings("deal_stage_update")),
	}
}

// FetchBoardSnapshot delegates through the snapshot breaker.
func (b *BreakerRemote) FetchBoardSnapshot(ctx context.Context, orgID uuid.UUID) (*domain.Board, error) {
	return b.fetch.Execute(func() (*domain.Board, error) {
		return b.inner.FetchBoardSnapshot(ctx, orgID)
	})
}

// UpdateDealStage delegates through the update breaker.
func (b *BreakerRemote) UpdateDealStage(ctx context.Context, orgID, dealID, stageID uuid.UUID) (domain.Deal, error) {
	return b.update.Execute(func() (domain.Deal, error) {
		return b.inner.UpdateDealStage(ctx, orgID, dealID, stageID)
	})
}

var _ RemoteService = (*BreakerRemote)(nil)
