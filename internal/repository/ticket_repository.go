package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/vuln-remediation/internal/domain"
	"github.com/spec-kit/vuln-remediation/internal/lifecycle"
)

// TicketFilter narrows a team's ticket listing.
type TicketFilter struct {
	PTeamID   string
	ServiceID *string
	PackageID *string
	VulnID    *string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, ticketID string, patch lifecycle.StatusPatch) error
	UpdateAssignees(ctx context.Context, ticketID string, assignees []string) error
	UpdateSafetyImpact(ctx context.Context, ticketID string, patch lifecycle.SafetyImpactPatch) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketSelect = `
        SELECT t.id::text, s.pteam_id::text, s.id::text, s.name, d.id::text, p.id::text, p.name,
               d.package_version, a.fixed_version, t.vuln_id::text,
               t.ssvc_deployer_priority, t.ticket_safety_impact, t.ticket_safety_impact_change_reason,
               ts.handling_status, ts.scheduled_at, COALESCE(ts.assignees, '{}'), COALESCE(ts.logging_ids, '{}'),
               ts.note, COALESCE(ts.updated_at, t.updated_at), t.created_at, t.updated_at
        FROM tickets t
        JOIN dependencies d ON d.id = t.dependency_id
        JOIN services s ON s.id = d.service_id
        JOIN packages p ON p.id = d.package_id
        LEFT JOIN affects a ON a.vuln_id = t.vuln_id AND a.package_id = p.id
        LEFT JOIN ticket_statuses ts ON ts.ticket_id = t.id`

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, ticketSelect+` WHERE t.id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &tickets[0], nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"s.pteam_id=$1"}
	args := []any{filter.PTeamID}

	if filter.ServiceID != nil {
		args = append(args, *filter.ServiceID)
		clauses = append(clauses, fmt.Sprintf("s.id=$%d", len(args)))
	}
	if filter.PackageID != nil {
		args = append(args, *filter.PackageID)
		clauses = append(clauses, fmt.Sprintf("p.id=$%d", len(args)))
	}
	if filter.VulnID != nil {
		args = append(args, *filter.VulnID)
		clauses = append(clauses, fmt.Sprintf("t.vuln_id=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY p.name, s.name, t.created_at`, ticketSelect, strings.Join(clauses, " AND "))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, ticketID string, patch lifecycle.StatusPatch) error {
	const query = `
        INSERT INTO ticket_statuses (ticket_id, handling_status, scheduled_at, logging_ids, note, updated_at)
        VALUES ($1, $2, $3, COALESCE($4::text[], '{}'), $5, NOW())
        ON CONFLICT (ticket_id) DO UPDATE SET
            handling_status=EXCLUDED.handling_status,
            scheduled_at=EXCLUDED.scheduled_at,
            logging_ids=CASE WHEN $6 THEN EXCLUDED.logging_ids ELSE ticket_statuses.logging_ids END,
            note=CASE WHEN $6 THEN EXCLUDED.note ELSE ticket_statuses.note END,
            updated_at=NOW()`
	completed := patch.HandlingStatus == domain.HandlingStatusCompleted
	var note *string
	if completed {
		note = patch.Note
	}
	_, err := r.pool.Exec(ctx, query,
		ticketID,
		string(patch.HandlingStatus),
		patch.ScheduledAt,
		patch.LoggingIDs,
		note,
		completed,
	)
	return err
}

func (r *ticketRepository) UpdateAssignees(ctx context.Context, ticketID string, assignees []string) error {
	const query = `
        INSERT INTO ticket_statuses (ticket_id, assignees, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (ticket_id) DO UPDATE SET assignees=EXCLUDED.assignees, updated_at=NOW()`
	if assignees == nil {
		assignees = []string{}
	}
	_, err := r.pool.Exec(ctx, query, ticketID, assignees)
	return err
}

func (r *ticketRepository) UpdateSafetyImpact(ctx context.Context, ticketID string, patch lifecycle.SafetyImpactPatch) error {
	const query = `
        UPDATE tickets SET ticket_safety_impact=$1, ticket_safety_impact_change_reason=$2, updated_at=NOW()
        WHERE id=$3`
	var impact *string
	if patch.SafetyImpact != nil {
		s := string(*patch.SafetyImpact)
		impact = &s
	}
	cmd, err := r.pool.Exec(ctx, query, impact, patch.ChangeReason, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var (
			ticket         domain.Ticket
			priority       *string
			safetyImpact   *string
			handlingStatus *string
			statusUpdated  time.Time
		)
		if err := rows.Scan(
			&ticket.ID,
			&ticket.PTeamID,
			&ticket.ServiceID,
			&ticket.ServiceName,
			&ticket.DependencyID,
			&ticket.PackageID,
			&ticket.PackageName,
			&ticket.PackageVersion,
			&ticket.FixedVersion,
			&ticket.VulnID,
			&priority,
			&safetyImpact,
			&ticket.SafetyImpactChangeReason,
			&handlingStatus,
			&ticket.Status.ScheduledAt,
			&ticket.Status.Assignees,
			&ticket.Status.LoggingIDs,
			&ticket.Status.Note,
			&statusUpdated,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if priority != nil {
			p := domain.ParsePriority(*priority)
			ticket.SSVCDeployerPriority = &p
		}
		if safetyImpact != nil {
			si := domain.SafetyImpact(*safetyImpact)
			ticket.SafetyImpact = &si
		}
		ticket.Status.HandlingStatus = domain.HandlingStatusOrDefault(handlingStatus)
		ticket.Status.UpdatedAt = statusUpdated
		result = append(result, ticket)
	}
	return result, rows.Err()
}
