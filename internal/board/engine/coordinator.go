package engine

import (
	"context"
	"sync"
	"time"

	"pipeline_board_backend/internal/board/domain"
	"pipeline_board_backend/internal/events"
	"pipeline_board_backend/platform/apperr"
	"pipeline_board_backend/platform/logger"
	"pipeline_board_backend/platform/retry"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	msgAlreadyMoving = "a move is already pending for this deal"
	msgMoveFailed    = "the move could not be saved and the board was refreshed"

	// followUpResyncDelay is how long after a rollback the scheduled
	// double-check resync runs.
	followUpResyncDelay = 30 * time.Second
)

// Coordinator orchestrates moves for a single organization's board. It owns
// the cached board state and the in-flight set; every mutation goes through
// it. Moves for different deals may overlap, moves for the same deal are
// rejected while one is pending.
type Coordinator struct {
	orgID    uuid.UUID
	remote   RemoteService
	retry    retry.Policy
	recorder UndoRecorder
	resyncer ResyncScheduler
	bus      events.Bus
	log      *logger.Logger
	metrics  *Metrics

	mu       sync.Mutex
	board    *domain.Board
	inFlight map[uuid.UUID]struct{}
	refetch  singleflight.Group
}

// NewCoordinator creates a coordinator for one organization. recorder and
// resyncer may be nil; the engine then runs without undo or scheduled
// follow-up resyncs.
func NewCoordinator(orgID uuid.UUID, remote RemoteService, policy retry.Policy, recorder UndoRecorder, resyncer ResyncScheduler, bus events.Bus, log *logger.Logger, metrics *Metrics) *Coordinator {
	return &Coordinator{
		orgID:    orgID,
		remote:   remote,
		retry:    policy,
		recorder: recorder,
		resyncer: resyncer,
		bus:      bus,
		log:      log,
		metrics:  metrics,
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// Move requests the transition of a deal to the target stage. It returns
// (false, nil) for stale references: the deal or stage is no longer on the
// board, which means the caller acted on an outdated view and will re-render.
func (c *Coordinator) Move(ctx context.Context, dealID, targetStageID uuid.UUID) (bool, error) {
	return c.move(ctx, dealID, targetStageID, false)
}

// ConfirmClose is the explicit secondary path for terminal stages: it runs
// the same machinery as Move but bypasses the terminal-target gate. Terminal
// entry is therefore always double-gated: blocked on direct moves, permitted
// only here.
func (c *Coordinator) ConfirmClose(ctx context.Context, dealID, targetStageID uuid.UUID) (bool, error) {
	return c.move(ctx, dealID, targetStageID, true)
}

func (c *Coordinator) move(ctx context.Context, dealID, targetStageID uuid.UUID, confirmTerminal bool) (bool, error) {
	if err := c.ensureBoard(ctx); err != nil {
		return false, err
	}

	c.mu.Lock()
	deal, sourceStage, ok := c.board.FindDeal(dealID)
	if !ok {
		c.mu.Unlock()
		c.metrics.moveResult("stale")
		c.log.Debug("move ignored: deal not on board", "dealId", dealID)
		return false, nil
	}
	targetStage, ok := c.board.StageByID(targetStageID)
	if !ok {
		c.mu.Unlock()
		c.metrics.moveResult("stale")
		c.log.Debug("move ignored: unknown target stage", "stageId", targetStageID)
		return false, nil
	}

	if _, pending := c.inFlight[dealID]; pending {
		c.mu.Unlock()
		return false, apperr.Conflict(msgAlreadyMoving)
	}

	decision := domain.ValidateTransition(deal, sourceStage, targetStage, confirmTerminal)
	if !decision.Allowed {
		c.mu.Unlock()
		c.metrics.moveResult("rejected")
		c.log.MoveEvent("rejected", c.orgID, dealID, targetStageID, decision.Reason)
		if decision.SuggestedAction == domain.DialogActionFor(targetStage.Kind) && targetStage.Kind.Terminal() {
			c.bus.Publish(ctx, events.TerminalMoveBlocked{
				BaseEvent:       events.NewBaseEvent(),
				OrganizationID:  c.orgID,
				DealID:          dealID,
				TargetStageID:   targetStageID,
				TargetStageKind: string(targetStage.Kind),
				SuggestedAction: string(decision.SuggestedAction),
			})
		}
		return false, apperr.Validation(decision.Reason).WithDetails(map[string]string{
			"reason":          decision.Reason,
			"suggestedAction": string(decision.SuggestedAction),
		})
	}

	c.inFlight[dealID] = struct{}{}
	c.metrics.inFlightDelta(1)

	// Optimistic patch: one whole delta applied under the lock, so patches
	// for different deals interleave without clobbering each other.
	c.board.MoveDeal(dealID, targetStageID)
	c.mu.Unlock()

	err := c.retry.Do(ctx, "update deal stage", func() error {
		_, callErr := c.remote.UpdateDealStage(ctx, c.orgID, dealID, targetStageID)
		return callErr
	})

	if err != nil {
		// Rollback by refetch, not by inverse patch: the authoritative
		// snapshot also supersedes optimistic patches of concurrent moves,
		// avoiding compounded drift.
		if resyncErr := c.Resync(ctx, "rollback"); resyncErr != nil {
			c.log.Error("rollback resync failed", "error", resyncErr, "organizationId", c.orgID)
		}
		c.release(dealID)
		if c.resyncer != nil {
			if schedErr := c.resyncer.ScheduleBoardResync(ctx, c.orgID, followUpResyncDelay); schedErr != nil {
				c.log.Warn("failed to schedule follow-up resync", "error", schedErr)
			}
		}
		c.metrics.moveResult("failed")
		c.log.MoveEvent("failed", c.orgID, dealID, targetStageID, err.Error())
		c.bus.Publish(ctx, events.DealMoveFailed{
			BaseEvent:      events.NewBaseEvent(),
			OrganizationID: c.orgID,
			DealID:         dealID,
			TargetStageID:  targetStageID,
			Reason:         err.Error(),
		})
		return false, apperr.Wrap(apperr.KindInternal, msgMoveFailed, err)
	}

	c.mu.Lock()
	delete(c.inFlight, dealID)
	// A concurrent rollback may have replaced the board with a snapshot
	// taken before this move committed remotely; re-ensure placement
	// instead of blindly re-applying the patch.
	if d, _, found := c.board.FindDeal(dealID); found && d.StageID != targetStageID {
		c.board.MoveDeal(dealID, targetStageID)
	}
	c.mu.Unlock()
	c.metrics.inFlightDelta(-1)

	if c.recorder != nil {
		if recErr := c.recorder.Record(ctx, PendingMove{
			OrganizationID: c.orgID,
			DealID:         dealID,
			SourceStageID:  sourceStage.ID,
			TargetStageID:  targetStageID,
			CommittedAt:    time.Now(),
		}); recErr != nil {
			c.log.Warn("failed to record undo entry", "error", recErr, "dealId", dealID)
		}
	}

	c.metrics.moveResult("committed")
	c.log.MoveEvent("committed", c.orgID, dealID, targetStageID, "")
	c.bus.Publish(ctx, events.DealMoveCommitted{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: c.orgID,
		DealID:         dealID,
		SourceStageID:  sourceStage.ID,
		TargetStageID:  targetStageID,
	})

	return true, nil
}

// Board returns a deep copy of the current board state, loading the initial
// snapshot if necessary.
func (c *Coordinator) Board(ctx context.Context) (*domain.Board, error) {
	if err := c.ensureBoard(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.Clone(), nil
}

// Resync replaces the cached board wholesale from the remote snapshot.
// Concurrent callers share one fetch.
func (c *Coordinator) Resync(ctx context.Context, trigger string) error {
	_, err, _ := c.refetch.Do("resync", func() (interface{}, error) {
		board, fetchErr := c.remote.FetchBoardSnapshot(ctx, c.orgID)
		if fetchErr != nil {
			return nil, fetchErr
		}

		c.mu.Lock()
		c.board = board
		c.mu.Unlock()

		c.metrics.resynced(trigger)
		c.bus.Publish(ctx, events.BoardResynced{
			BaseEvent:      events.NewBaseEvent(),
			OrganizationID: c.orgID,
			Trigger:        trigger,
		})
		return nil, nil
	})
	return err
}

// IsInFlight reports whether the deal is currently mid-transition.
func (c *Coordinator) IsInFlight(dealID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[dealID]
	return ok
}

// IsBoardBusy reports whether any move is currently in flight.
func (c *Coordinator) IsBoardBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight) > 0
}

// InFlightDeals returns the identifiers of deals currently mid-transition.
func (c *Coordinator) InFlightDeals() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(c.inFlight))
	for id := range c.inFlight {
		ids = append(ids, id)
	}
	return ids
}

func (c *Coordinator) ensureBoard(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.board != nil
	c.mu.Unlock()
	if loaded {
		return nil
	}
	return c.Resync(ctx, "initial")
}

func (c *Coordinator) release(dealID uuid.UUID) {
	c.mu.Lock()
	delete(c.inFlight, dealID)
	c.mu.Unlock()
	c.metrics.inFlightDelta(-1)
}
