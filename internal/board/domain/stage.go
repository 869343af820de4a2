// Package domain provides core business rules for the pipeline board
// bounded context.
package domain

import "github.com/google/uuid"

// StageKind classifies a pipeline stage. Deals travel freely between open
// stages; terminal stages (won, lost) are only reachable through the
// explicit close path.
type StageKind string

const (
	StageKindOpen StageKind = "open"
	StageKindWon  StageKind = "won"
	StageKindLost StageKind = "lost"
)

// Terminal reports whether the kind closes a deal.
func (k StageKind) Terminal() bool {
	return k == StageKindWon || k == StageKindLost
}

// Valid reports whether the kind is one of the known classifications.
func (k StageKind) Valid() bool {
	return k == StageKindOpen || k.Terminal()
}

// Stage is a named position in the pipeline. Stages are immutable for the
// duration of a session; Rank gives a total order across an organization's
// board.
type Stage struct {
	ID    uuid.UUID
	Label string
	Rank  int
	Kind  StageKind
	// Weight is the win probability percentage fixed by the stage, when the
	// stage prescribes one (won stages are 100, lost stages 0). Nil means
	// deals keep their own probability when entering the stage.
	Weight *int
}
