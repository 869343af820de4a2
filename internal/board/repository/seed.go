package repository

import (
	"context"
	"fmt"
	"os"

	"pipeline_board_backend/internal/board/domain"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// StageTemplate describes one stage of the default catalog, loaded from the
// YAML seed file and applied to organizations that have no stages yet.
type StageTemplate struct {
	Label  string `yaml:"label"`
	Rank   int    `yaml:"rank"`
	Kind   string `yaml:"kind"`
	Weight *int   `yaml:"weight,omitempty"`
}

// LoadStageTemplate reads and validates the YAML stage seed file.
func LoadStageTemplate(path string) ([]StageTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stage template: %w", err)
	}

	var doc struct {
		Stages []StageTemplate `yaml:"stages"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse stage template: %w", err)
	}
	if len(doc.Stages) == 0 {
		return nil, fmt.Errorf("stage template %s defines no stages", path)
	}

	seen := make(map[int]bool, len(doc.Stages))
	for _, s := range doc.Stages {
		if s.Label == "" {
			return nil, fmt.Errorf("stage template: stage with rank %d has no label", s.Rank)
		}
		if !domain.StageKind(s.Kind).Valid() {
			return nil, fmt.Errorf("stage template: unknown kind %q for stage %q", s.Kind, s.Label)
		}
		if seen[s.Rank] {
			return nil, fmt.Errorf("stage template: duplicate rank %d", s.Rank)
		}
		seen[s.Rank] = true
	}

	return doc.Stages, nil
}

// seedStages inserts the template catalog for an organization in one
// transaction. Safe to race: the unique (organization_id, rank) constraint
// makes the second writer fail, and the caller re-lists stages afterwards.
func (r *Repository) seedStages(ctx context.Context, orgID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range r.template {
		if _, err := tx.Exec(ctx, `
			INSERT INTO board_stages (id, organization_id, label, rank, kind, weight)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.New(), orgID, s.Label, s.Rank, s.Kind, s.Weight); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
