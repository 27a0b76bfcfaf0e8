package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/vuln-remediation/internal/domain"
)

// VulnActionRepository reads a vulnerability's remediation catalog.
type VulnActionRepository interface {
	ListByVuln(ctx context.Context, vulnID string) ([]domain.VulnAction, error)
}

type vulnActionRepository struct {
	pool *pgxpool.Pool
}

// NewVulnActionRepository constructs repository.
func NewVulnActionRepository(pool *pgxpool.Pool) VulnActionRepository {
	return &vulnActionRepository{pool: pool}
}

func (r *vulnActionRepository) ListByVuln(ctx context.Context, vulnID string) ([]domain.VulnAction, error) {
	const query = `
        SELECT id::text, vuln_id::text, action, action_type, recommended, created_at
        FROM vuln_actions WHERE vuln_id=$1 ORDER BY recommended DESC, created_at ASC`
	rows, err := r.pool.Query(ctx, query, vulnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.VulnAction
	for rows.Next() {
		var action domain.VulnAction
		var actionType string
		if err := rows.Scan(&action.ID, &action.VulnID, &action.Action, &actionType, &action.Recommended, &action.CreatedAt); err != nil {
			return nil, err
		}
		action.ActionType = domain.ActionType(actionType)
		result = append(result, action)
	}
	return result, rows.Err()
}
