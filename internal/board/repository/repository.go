// Package repository implements the board's remote source of truth over
// Postgres, plus the Redis-backed undo store.
package repository

import (
	"context"
	"errors"

	"pipeline_board_backend/internal/board/domain"
	"pipeline_board_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool

	// template seeds an organization's stages on first snapshot fetch when
	// the organization has none yet. Nil disables seeding.
	template []StageTemplate
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SetStageTemplate configures the default stage catalog used for lazy
// seeding of organizations without stages.
func (r *Repository) SetStageTemplate(template []StageTemplate) {
	r.template = template
}

// ListStages returns the organization's stages ordered by rank.
func (r *Repository) ListStages(ctx context.Context, orgID uuid.UUID) ([]domain.Stage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, label, rank, kind, weight
		FROM board_stages
		WHERE organization_id = $1
		ORDER BY rank ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := make([]domain.Stage, 0)
	for rows.Next() {
		var s domain.Stage
		var kind string
		if err := rows.Scan(&s.ID, &s.Label, &s.Rank, &kind, &s.Weight); err != nil {
			return nil, err
		}
		s.Kind = domain.StageKind(kind)
		stages = append(stages, s)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return stages, nil
}

// ListDeals returns the organization's deals, oldest first, which keeps the
// per-column ordering stable across snapshots.
func (r *Repository) ListDeals(ctx context.Context, orgID uuid.UUID) ([]domain.Deal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, organization_id, stage_id, title, status, value_cents, probability, created_at, updated_at
		FROM board_deals
		WHERE organization_id = $1
		ORDER BY created_at ASC, id ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deals := make([]domain.Deal, 0)
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return deals, nil
}

// FetchBoardSnapshot loads the full authoritative board for an organization.
// An organization without stages gets the default catalog seeded first, when
// a template is configured.
func (r *Repository) FetchBoardSnapshot(ctx context.Context, orgID uuid.UUID) (*domain.Board, error) {
	stages, err := r.ListStages(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if len(stages) == 0 && len(r.template) > 0 {
		if err := r.seedStages(ctx, orgID); err != nil {
			return nil, err
		}
		if stages, err = r.ListStages(ctx, orgID); err != nil {
			return nil, err
		}
	}

	deals, err := r.ListDeals(ctx, orgID)
	if err != nil {
		return nil, err
	}

	return domain.NewBoard(orgID, domain.NewCatalog(stages), deals), nil
}

// UpdateDealStage moves a deal to the given stage and is the final authority
// on the transition: the stage must exist in the same organization. Status
// and probability are derived from the target stage. The statement is
// idempotent; repeating it with the same arguments is harmless.
func (r *Repository) UpdateDealStage(ctx context.Context, orgID, dealID, stageID uuid.UUID) (domain.Deal, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE board_deals d
		SET stage_id = s.id,
			status = CASE s.kind WHEN 'won' THEN 'won' WHEN 'lost' THEN 'lost' ELSE 'open' END,
			probability = COALESCE(s.weight, d.probability),
			updated_at = now()
		FROM board_stages s
		WHERE d.id = $1
			AND d.organization_id = $2
			AND s.id = $3
			AND s.organization_id = $2
		RETURNING d.id, d.organization_id, d.stage_id, d.title, d.status, d.value_cents, d.probability, d.created_at, d.updated_at
	`, dealID, orgID, stageID)

	d, err := scanDeal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Deal{}, apperr.NotFound("deal or stage not found")
		}
		return domain.Deal{}, err
	}

	return d, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeal(row rowScanner) (domain.Deal, error) {
	var d domain.Deal
	var status string
	if err := row.Scan(&d.ID, &d.OrganizationID, &d.StageID, &d.Title, &status, &d.ValueCents, &d.Probability, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return domain.Deal{}, err
	}
	d.Status = domain.DealStatus(status)
	return d, nil
}
