package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/vuln-remediation/internal/domain"
)

// TeamRepository reads pteams and their alert thresholds.
type TeamRepository interface {
	GetByID(ctx context.Context, id string) (*domain.PTeam, error)
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.PTeam, error) {
	const query = `
        SELECT id::text, name, alert_ssvc_priority, created_at, updated_at
        FROM pteams WHERE id=$1`
	var team domain.PTeam
	var threshold string
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&threshold,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	team.AlertSSVCPriority = domain.ParsePriority(threshold)
	return &team, nil
}
