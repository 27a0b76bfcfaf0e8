package events

import (
	"time"

	"github.com/spec-kit/vuln-remediation/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketStatusChanged       EventType = "ticket_status_changed"
	EventTicketAssigneesChanged    EventType = "ticket_assignees_changed"
	EventTicketSafetyImpactChanged EventType = "ticket_safety_impact_changed"
	EventActionLogged              EventType = "action_logged"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	PTeamID   string      `json:"pteam_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus   domain.HandlingStatus `json:"old_status"`
	NewStatus   domain.HandlingStatus `json:"new_status"`
	Priority    domain.SSVCPriority   `json:"priority"`
	ScheduledAt *time.Time            `json:"scheduled_at,omitempty"`
	LoggingIDs  []string              `json:"logging_ids,omitempty"`
}

// TicketAssigneesChangedPayload payload.
type TicketAssigneesChangedPayload struct {
	OldAssignees []string `json:"old_assignees"`
	NewAssignees []string `json:"new_assignees"`
}

// TicketSafetyImpactChangedPayload payload. A nil impact means reverted to default.
type TicketSafetyImpactChangedPayload struct {
	SafetyImpact *domain.SafetyImpact `json:"ticket_safety_impact"`
	ChangeReason *string              `json:"ticket_safety_impact_change_reason"`
}

// ActionLoggedPayload payload.
type ActionLoggedPayload struct {
	LogID    string  `json:"log_id"`
	ActionID *string `json:"action_id,omitempty"`
	Action   string  `json:"action"`
}
