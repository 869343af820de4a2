package engine

import (
	"context"
	"sync"

	"pipeline_board_backend/internal/board/domain"
	"pipeline_board_backend/internal/events"
	"pipeline_board_backend/platform/apperr"
	"pipeline_board_backend/platform/logger"
	"pipeline_board_backend/platform/retry"

	"github.com/google/uuid"
)

// Registry hands out one Coordinator per organization, created lazily on
// first use. It also implements Mover so the undo manager can replay moves
// through the owning coordinator.
type Registry struct {
	remote   RemoteService
	policy   retry.Policy
	undo     *UndoManager
	resyncer ResyncScheduler
	bus      events.Bus
	log      *logger.Logger
	metrics  *Metrics

	mu     sync.Mutex
	coords map[uuid.UUID]*Coordinator
}

// NewRegistry creates the coordinator registry. undo and resyncer may be nil.
func NewRegistry(remote RemoteService, policy retry.Policy, undo *UndoManager, resyncer ResyncScheduler, bus events.Bus, log *logger.Logger, metrics *Metrics) *Registry {
	r := &Registry{
		remote:   remote,
		policy:   policy,
		undo:     undo,
		resyncer: resyncer,
		bus:      bus,
		log:      log,
		metrics:  metrics,
		coords:   make(map[uuid.UUID]*Coordinator),
	}
	if undo != nil {
		undo.SetMover(r)
	}
	return r
}

func (r *Registry) coordinator(orgID uuid.UUID) *Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.coords[orgID]; ok {
		return c
	}

	var recorder UndoRecorder
	if r.undo != nil {
		recorder = r.undo
	}
	c := NewCoordinator(orgID, r.remote, r.policy, recorder, r.resyncer, r.bus, r.log, r.metrics)
	r.coords[orgID] = c
	return c
}

// Move requests a deal transition on the organization's board.
func (r *Registry) Move(ctx context.Context, orgID, dealID, targetStageID uuid.UUID) (bool, error) {
	return r.coordinator(orgID).Move(ctx, dealID, targetStageID)
}

// ConfirmClose runs the explicit terminal-entry path.
func (r *Registry) ConfirmClose(ctx context.Context, orgID, dealID, targetStageID uuid.UUID) (bool, error) {
	return r.coordinator(orgID).ConfirmClose(ctx, dealID, targetStageID)
}

// Board returns a snapshot copy of the organization's board.
func (r *Registry) Board(ctx context.Context, orgID uuid.UUID) (*domain.Board, error) {
	return r.coordinator(orgID).Board(ctx)
}

// Resync replaces the organization's cached board from the remote snapshot.
func (r *Registry) Resync(ctx context.Context, orgID uuid.UUID, trigger string) error {
	return r.coordinator(orgID).Resync(ctx, trigger)
}

// Undo reverses the most recent committed move, if its window is still open.
func (r *Registry) Undo(ctx context.Context, orgID uuid.UUID) error {
	if r.undo == nil {
		return apperr.Gone(msgNothingToUndo)
	}
	if err := r.undo.Undo(ctx, orgID); err != nil {
		return err
	}
	r.metrics.undone()
	return nil
}

// CanUndo reports whether a non-expired undo record exists.
func (r *Registry) CanUndo(ctx context.Context, orgID uuid.UUID) (bool, error) {
	if r.undo == nil {
		return false, nil
	}
	return r.undo.CanUndo(ctx, orgID)
}

// IsInFlight reports whether the deal is currently mid-transition.
func (r *Registry) IsInFlight(orgID, dealID uuid.UUID) bool {
	return r.coordinator(orgID).IsInFlight(dealID)
}

// IsBoardBusy reports whether any move is in flight on the board.
func (r *Registry) IsBoardBusy(orgID uuid.UUID) bool {
	return r.coordinator(orgID).IsBoardBusy()
}

// InFlightDeals lists deals currently mid-transition on the board.
func (r *Registry) InFlightDeals(orgID uuid.UUID) []uuid.UUID {
	return r.coordinator(orgID).InFlightDeals()
}

var _ Mover = (*Registry)(nil)
