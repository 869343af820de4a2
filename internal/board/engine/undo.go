package engine

import (
	"context"
	"time"

	"pipeline_board_backend/internal/events"
	"pipeline_board_backend/platform/apperr"
	"pipeline_board_backend/platform/logger"

	"github.com/google/uuid"
)

const msgNothingToUndo = "nothing to undo"

// DefaultUndoWindow is how long a committed move stays reversible.
const DefaultUndoWindow = 5 * time.Second

// PendingMove remembers the most recent successfully committed move.
// Exactly one exists per organization; each new commit supersedes it.
type PendingMove struct {
	OrganizationID uuid.UUID `json:"organizationId"`
	DealID         uuid.UUID `json:"dealId"`
	SourceStageID  uuid.UUID `json:"sourceStageId"`
	TargetStageID  uuid.UUID `json:"targetStageId"`
	CommittedAt    time.Time `json:"committedAt"`
}

// UndoRecorder is the coordinator-facing side of the undo manager.
type UndoRecorder interface {
	Record(ctx context.Context, move PendingMove) error
}

// UndoStore persists at most one pending move per organization with a
// time-to-live; an expired record reads as absent.
type UndoStore interface {
	Put(ctx context.Context, move PendingMove, ttl time.Duration) error
	// Take atomically reads and clears the record, preventing double-undo.
	Take(ctx context.Context, orgID uuid.UUID) (PendingMove, bool, error)
	Exists(ctx context.Context, orgID uuid.UUID) (bool, error)
}

// Mover replays a recorded move in reverse through the normal move path,
// subject to the same validation, optimistic patch and retry machinery.
type Mover interface {
	Move(ctx context.Context, orgID, dealID, targetStageID uuid.UUID) (bool, error)
}

// UndoManager offers a bounded-time undo of the most recent committed move.
type UndoManager struct {
	store  UndoStore
	window time.Duration
	mover  Mover
	bus    events.Bus
	log    *logger.Logger
}

// NewUndoManager creates an undo manager over the given store.
// A non-positive window falls back to DefaultUndoWindow.
func NewUndoManager(store UndoStore, window time.Duration, bus events.Bus, log *logger.Logger) *UndoManager {
	if window <= 0 {
		window = DefaultUndoWindow
	}
	return &UndoManager{store: store, window: window, bus: bus, log: log}
}

// SetMover wires the reverse-move path. Set once at composition time; the
// setter breaks the construction cycle between the manager and the
// coordinators it replays through.
func (m *UndoManager) SetMover(mover Mover) {
	m.mover = mover
}

// Record stores the move, replacing any existing record and restarting the
// expiry window.
func (m *UndoManager) Record(ctx context.Context, move PendingMove) error {
	return m.store.Put(ctx, move, m.window)
}

// CanUndo reports whether a non-expired record exists.
func (m *UndoManager) CanUndo(ctx context.Context, orgID uuid.UUID) (bool, error) {
	return m.store.Exists(ctx, orgID)
}

// Undo replays the recorded move in reverse. The record is cleared before
// the reverse move runs, so a second Undo cannot replay it again even if the
// first is still settling.
func (m *UndoManager) Undo(ctx context.Context, orgID uuid.UUID) error {
	move, ok, err := m.store.Take(ctx, orgID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "undo store unavailable", err)
	}
	if !ok {
		return apperr.Gone(msgNothingToUndo)
	}

	moved, err := m.mover.Move(ctx, orgID, move.DealID, move.SourceStageID)
	if err != nil {
		return err
	}
	if !moved {
		// The deal or stage left the board since the move committed.
		return apperr.NotFound("deal is no longer on the board")
	}

	if m.log != nil {
		m.log.MoveEvent("undone", orgID, move.DealID, move.SourceStageID, "")
	}
	if m.bus != nil {
		m.bus.Publish(ctx, events.DealMoveUndone{
			BaseEvent:      events.NewBaseEvent(),
			OrganizationID: orgID,
			DealID:         move.DealID,
			RestoredStage:  move.SourceStageID,
		})
	}
	return nil
}

var _ UndoRecorder = (*UndoManager)(nil)
