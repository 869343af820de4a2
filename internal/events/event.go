// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"pipeline_board_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Board Domain Events
// =============================================================================

// DealMoveCommitted is published when a move has been confirmed by the
// remote source of truth. This is the engine's success notification hook.
type DealMoveCommitted struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	DealID         uuid.UUID `json:"dealId"`
	SourceStageID  uuid.UUID `json:"sourceStageId"`
	TargetStageID  uuid.UUID `json:"targetStageId"`
}

func (e DealMoveCommitted) EventName() string { return "board.move.committed" }

// DealMoveFailed is published when a move exhausted its retries and the
// board was rolled back by refetch. Reason carries the underlying error text.
type DealMoveFailed struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	DealID         uuid.UUID `json:"dealId"`
	TargetStageID  uuid.UUID `json:"targetStageId"`
	Reason         string    `json:"reason"`
}

func (e DealMoveFailed) EventName() string { return "board.move.failed" }

// TerminalMoveBlocked is published when a direct drag onto a terminal stage
// was blocked by the validator. The surrounding UI uses this to open the
// dedicated close dialog, which confirms through the explicit close path.
type TerminalMoveBlocked struct {
	BaseEvent
	OrganizationID  uuid.UUID `json:"organizationId"`
	DealID          uuid.UUID `json:"dealId"`
	TargetStageID   uuid.UUID `json:"targetStageId"`
	TargetStageKind string    `json:"targetStageKind"`
	SuggestedAction string    `json:"suggestedAction"`
}

func (e TerminalMoveBlocked) EventName() string { return "board.move.terminal_blocked" }

// DealMoveUndone is published when a committed move was reversed through the
// undo window.
type DealMoveUndone struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	DealID         uuid.UUID `json:"dealId"`
	RestoredStage  uuid.UUID `json:"restoredStageId"`
}

func (e DealMoveUndone) EventName() string { return "board.move.undone" }

// BoardResynced is published when the cached board state was replaced
// wholesale from the remote snapshot, either after a rollback or on demand.
type BoardResynced struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	Trigger        string    `json:"trigger"` // "rollback", "manual", "scheduled"
}

func (e BoardResynced) EventName() string { return "board.resynced" }
