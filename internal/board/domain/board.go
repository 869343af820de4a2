package domain

import (
	"time"

	"github.com/google/uuid"
)

// DealStatus mirrors the stage kind for closed deals and is the authority
// for whether a deal may be moved at all.
type DealStatus string

const (
	DealStatusOpen DealStatus = "open"
	DealStatusWon  DealStatus = "won"
	DealStatusLost DealStatus = "lost"
)

// Terminal reports whether the status closes the deal.
func (s DealStatus) Terminal() bool {
	return s == DealStatusWon || s == DealStatusLost
}

// StatusForKind maps a stage kind to the deal status a deal assumes when it
// enters a stage of that kind.
func StatusForKind(kind StageKind) DealStatus {
	switch kind {
	case StageKindWon:
		return DealStatusWon
	case StageKindLost:
		return DealStatusLost
	default:
		return DealStatusOpen
	}
}

// Deal is the locally cached projection of a pipeline entity. The remote
// source of truth owns the full record.
type Deal struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	StageID        uuid.UUID
	Title          string
	Status         DealStatus
	ValueCents     int64
	// Probability is the win probability percentage used for the weighted
	// forecast. Moving into a stage with a fixed weight overwrites it.
	Probability int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ForecastCents is the deal's weighted forecast contribution.
func (d Deal) ForecastCents() int64 {
	return d.ValueCents * int64(d.Probability) / 100
}

// Column pairs a stage with its current deals and aggregate figures.
// Invariants: Count == len(Deals); TotalValueCents == sum of deal values;
// ForecastCents == sum of deal forecasts; every deal's StageID matches the
// column's stage.
type Column struct {
	Stage           Stage
	Deals           []Deal
	Count           int
	TotalValueCents int64
	ForecastCents   int64
}

func (c *Column) add(d Deal) {
	c.Deals = append(c.Deals, d)
	c.Count++
	c.TotalValueCents += d.ValueCents
	c.ForecastCents += d.ForecastCents()
}

func (c *Column) removeAt(i int) Deal {
	d := c.Deals[i]
	c.Deals = append(c.Deals[:i:i], c.Deals[i+1:]...)
	c.Count--
	c.TotalValueCents -= d.ValueCents
	c.ForecastCents -= d.ForecastCents()
	return d
}

// Board is the ordered list of columns for one organization, derived from
// the last fetched snapshot. A move either fully migrates a deal between
// exactly two columns, updating both columns' aggregates, or does not apply
// at all.
type Board struct {
	OrganizationID uuid.UUID
	Columns        []Column
	FetchedAt      time.Time
}

// NewBoard partitions the deals across the catalog's stages. Deals
// referencing a stage the catalog does not know are dropped; the remote
// snapshot is expected to be internally consistent.
func NewBoard(orgID uuid.UUID, catalog *Catalog, deals []Deal) *Board {
	board := &Board{
		OrganizationID: orgID,
		Columns:        make([]Column, 0, catalog.Len()),
		FetchedAt:      time.Now(),
	}

	index := make(map[uuid.UUID]int, catalog.Len())
	for _, stage := range catalog.Stages() {
		index[stage.ID] = len(board.Columns)
		board.Columns = append(board.Columns, Column{Stage: stage, Deals: make([]Deal, 0)})
	}

	for _, deal := range deals {
		if i, ok := index[deal.StageID]; ok {
			board.Columns[i].add(deal)
		}
	}

	return board
}

// StageByID looks up a stage on the board.
func (b *Board) StageByID(id uuid.UUID) (Stage, bool) {
	for i := range b.Columns {
		if b.Columns[i].Stage.ID == id {
			return b.Columns[i].Stage, true
		}
	}
	return Stage{}, false
}

// FindDeal returns a copy of the deal and the stage of the column currently
// holding it.
func (b *Board) FindDeal(id uuid.UUID) (Deal, Stage, bool) {
	for i := range b.Columns {
		for _, d := range b.Columns[i].Deals {
			if d.ID == id {
				return d, b.Columns[i].Stage, true
			}
		}
	}
	return Deal{}, Stage{}, false
}

// MoveDeal migrates a deal between two columns as one whole delta: the deal
// leaves its source column (decrementing aggregates), assumes the target
// stage's status and fixed weight if any, and joins the target column
// (incrementing aggregates). Returns false, leaving the board untouched,
// when the deal or target stage is absent or the deal already sits in the
// target column.
func (b *Board) MoveDeal(dealID, targetStageID uuid.UUID) bool {
	target := -1
	for i := range b.Columns {
		if b.Columns[i].Stage.ID == targetStageID {
			target = i
			break
		}
	}
	if target == -1 {
		return false
	}

	for i := range b.Columns {
		for j, d := range b.Columns[i].Deals {
			if d.ID != dealID {
				continue
			}
			if i == target {
				return false
			}

			moved := b.Columns[i].removeAt(j)
			stage := b.Columns[target].Stage
			moved.StageID = stage.ID
			moved.Status = StatusForKind(stage.Kind)
			if stage.Weight != nil {
				moved.Probability = *stage.Weight
			}
			moved.UpdatedAt = time.Now()
			b.Columns[target].add(moved)
			return true
		}
	}

	return false
}

// TotalDeals counts the deals across all columns.
func (b *Board) TotalDeals() int {
	total := 0
	for i := range b.Columns {
		total += b.Columns[i].Count
	}
	return total
}

// Clone returns a deep copy, used to hand snapshots to readers without
// exposing the engine's mutable state.
func (b *Board) Clone() *Board {
	clone := &Board{
		OrganizationID: b.OrganizationID,
		Columns:        make([]Column, len(b.Columns)),
		FetchedAt:      b.FetchedAt,
	}
	for i, col := range b.Columns {
		deals := make([]Deal, len(col.Deals))
		copy(deals, col.Deals)
		clone.Columns[i] = Column{
			Stage:           col.Stage,
			Deals:           deals,
			Count:           col.Count,
			TotalValueCents: col.TotalValueCents,
			ForecastCents:   col.ForecastCents,
		}
	}
	return clone
}
