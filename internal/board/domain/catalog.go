package domain

import (
	"sort"

	"github.com/google/uuid"
)

// Catalog is the ordered stage list of one organization's board.
// It is built once per snapshot and never mutated afterwards.
type Catalog struct {
	stages []Stage
	byID   map[uuid.UUID]Stage
}

// NewCatalog builds a catalog from the given stages, ordered by rank.
// An empty stage list yields a valid empty catalog (the board simply
// renders no columns).
func NewCatalog(stages []Stage) *Catalog {
	ordered := make([]Stage, len(stages))
	copy(ordered, stages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rank < ordered[j].Rank
	})

	byID := make(map[uuid.UUID]Stage, len(ordered))
	for _, s := range ordered {
		byID[s.ID] = s
	}

	return &Catalog{stages: ordered, byID: byID}
}

// Stages returns the stages ordered by rank. The returned slice must not be
// modified.
func (c *Catalog) Stages() []Stage {
	return c.stages
}

// StageByID looks up a stage by identifier.
func (c *Catalog) StageByID(id uuid.UUID) (Stage, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Len returns the number of stages.
func (c *Catalog) Len() int {
	return len(c.stages)
}
