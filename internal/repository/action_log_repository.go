package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/vuln-remediation/internal/domain"
)

// ActionLogRepository stores completed-action log entries.
type ActionLogRepository interface {
	Create(ctx context.Context, log *domain.ActionLog) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ActionLog, error)
}

type actionLogRepository struct {
	pool *pgxpool.Pool
}

// NewActionLogRepository builds repository.
func NewActionLogRepository(pool *pgxpool.Pool) ActionLogRepository {
	return &actionLogRepository{pool: pool}
}

func (r *actionLogRepository) Create(ctx context.Context, log *domain.ActionLog) error {
	const query = `
        INSERT INTO action_logs (action_id, action, action_type, recommended, user_id, pteam_id, service_id, ticket_id, vuln_id, executed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id::text, created_at`
	return r.pool.QueryRow(ctx, query,
		log.ActionID,
		log.Action,
		string(log.ActionType),
		log.Recommended,
		log.UserID,
		log.PTeamID,
		log.ServiceID,
		log.TicketID,
		log.VulnID,
		log.ExecutedAt,
	).Scan(&log.ID, &log.CreatedAt)
}

func (r *actionLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ActionLog, error) {
	const query = `
        SELECT id::text, action_id::text, action, action_type, recommended, user_id, pteam_id::text,
               service_id::text, ticket_id::text, vuln_id::text, executed_at, created_at
        FROM action_logs WHERE ticket_id=$1 ORDER BY executed_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActionLog
	for rows.Next() {
		var log domain.ActionLog
		var actionType string
		if err := rows.Scan(
			&log.ID,
			&log.ActionID,
			&log.Action,
			&actionType,
			&log.Recommended,
			&log.UserID,
			&log.PTeamID,
			&log.ServiceID,
			&log.TicketID,
			&log.VulnID,
			&log.ExecutedAt,
			&log.CreatedAt,
		); err != nil {
			return nil, err
		}
		log.ActionType = domain.ActionType(actionType)
		result = append(result, log)
	}
	return result, rows.Err()
}
