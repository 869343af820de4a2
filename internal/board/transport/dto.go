// Package transport defines the request and response DTOs for the board
// HTTP surface.
package transport

import (
	"time"

	"pipeline_board_backend/internal/board/domain"

	"github.com/google/uuid"
)

// MoveRequest asks the engine to transition a deal. The same shape serves
// the direct move and the explicit close confirmation.
type MoveRequest struct {
	DealID        uuid.UUID `json:"dealId" validate:"required"`
	TargetStageID uuid.UUID `json:"targetStageId" validate:"required"`
}

// StageResponse is the stage portion of a column.
type StageResponse struct {
	ID     uuid.UUID `json:"id"`
	Label  string    `json:"label"`
	Rank   int       `json:"rank"`
	Kind   string    `json:"kind"`
	Weight *int      `json:"weight,omitempty"`
}

// DealResponse is the deal projection shown on the board.
type DealResponse struct {
	ID            uuid.UUID `json:"id"`
	StageID       uuid.UUID `json:"stageId"`
	Title         string    `json:"title"`
	Status        string    `json:"status"`
	ValueCents    int64     `json:"valueCents"`
	Probability   int       `json:"probability"`
	ForecastCents int64     `json:"forecastCents"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ColumnResponse is one stage column with its aggregates.
type ColumnResponse struct {
	Stage           StageResponse  `json:"stage"`
	Deals           []DealResponse `json:"deals"`
	Count           int            `json:"count"`
	TotalValueCents int64          `json:"totalValueCents"`
	ForecastCents   int64          `json:"forecastCents"`
}

// BoardResponse is the full board snapshot.
type BoardResponse struct {
	Columns   []ColumnResponse `json:"columns"`
	FetchedAt time.Time        `json:"fetchedAt"`
	Busy      bool             `json:"busy"`
}

// MoveResponse reports the outcome of a move request. Moved is false when
// the request referenced a deal or stage no longer on the board.
type MoveResponse struct {
	Moved   bool `json:"moved"`
	CanUndo bool `json:"canUndo"`
}

// InFlightResponse lists deals currently mid-transition.
type InFlightResponse struct {
	DealIDs []uuid.UUID `json:"dealIds"`
	Busy    bool        `json:"busy"`
}

// FromBoard maps the domain board to its response shape.
func FromBoard(board *domain.Board, busy bool) BoardResponse {
	columns := make([]ColumnResponse, 0, len(board.Columns))
	for _, col := range board.Columns {
		deals := make([]DealResponse, 0, len(col.Deals))
		for _, d := range col.Deals {
			deals = append(deals, DealResponse{
				ID:            d.ID,
				StageID:       d.StageID,
				Title:         d.Title,
				Status:        string(d.Status),
				ValueCents:    d.ValueCents,
				Probability:   d.Probability,
				ForecastCents: d.ForecastCents(),
				UpdatedAt:     d.UpdatedAt,
			})
		}
		columns = append(columns, ColumnResponse{
			Stage: StageResponse{
				ID:     col.Stage.ID,
				Label:  col.Stage.Label,
				Rank:   col.Stage.Rank,
				Kind:   string(col.Stage.Kind),
				Weight: col.Stage.Weight,
			},
			Deals:           deals,
			Count:           col.Count,
			TotalValueCents: col.TotalValueCents,
			ForecastCents:   col.ForecastCents,
		})
	}

	return BoardResponse{
		Columns:   columns,
		FetchedAt: board.FetchedAt,
		Busy:      busy,
	}
}
