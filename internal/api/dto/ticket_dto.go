package dto

import (
	"time"

	"github.com/spec-kit/vuln-remediation/internal/domain"
)

// TicketResponse describes a ticket and its handling status.
type TicketResponse struct {
	ID                       string               `json:"ticket_id"`
	PTeamID                  string               `json:"pteam_id"`
	ServiceID                string               `json:"service_id"`
	ServiceName              string               `json:"service_name"`
	DependencyID             string               `json:"dependency_id"`
	PackageID                string               `json:"package_id"`
	PackageName              string               `json:"package_name"`
	PackageVersion           string               `json:"package_version"`
	FixedVersion             *string              `json:"fixed_version"`
	VulnID                   string               `json:"vuln_id"`
	SSVCDeployerPriority     domain.SSVCPriority  `json:"ssvc_deployer_priority"`
	SafetyImpact             *domain.SafetyImpact `json:"ticket_safety_impact"`
	SafetyImpactChangeReason *string              `json:"ticket_safety_impact_change_reason"`
	Status                   TicketStatusResponse `json:"ticket_status"`
	CreatedAt                time.Time            `json:"created_at"`
	UpdatedAt                time.Time            `json:"updated_at"`
}

// TicketStatusResponse is the handling status portion of a ticket.
type TicketStatusResponse struct {
	HandlingStatus domain.HandlingStatus `json:"ticket_handling_status"`
	ScheduledAt    *time.Time            `json:"scheduled_at"`
	Assignees      []string              `json:"assignees"`
	LoggingIDs     []string              `json:"logging_ids"`
	Note           *string               `json:"note"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// ActionSelectionRequest names one action carried out. ActionID is omitted for the
// fixed-version action.
type ActionSelectionRequest struct {
	ActionID *string `json:"action_id"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	HandlingStatus string                   `json:"ticket_handling_status"`
	ScheduledAt    *time.Time               `json:"scheduled_at"`
	Actions        []ActionSelectionRequest `json:"actions"`
	Note           *string                  `json:"note"`
}

// UpdateStatusResponse reports a status change.
type UpdateStatusResponse struct {
	Ticket     TicketResponse `json:"ticket"`
	Noop       bool           `json:"noop"`
	LoggingIDs []string       `json:"logging_ids"`
}

// UpdateAssigneesRequest payload.
type UpdateAssigneesRequest struct {
	Assignees []string `json:"assignees"`
}

// UpdateSafetyImpactRequest payload. A null impact reverts to the service default.
type UpdateSafetyImpactRequest struct {
	SafetyImpact *domain.SafetyImpact `json:"ticket_safety_impact"`
	ChangeReason *string              `json:"ticket_safety_impact_change_reason"`
}

// ActionResponse is one selectable completion action.
type ActionResponse struct {
	ActionID    *string           `json:"action_id"`
	Action      string            `json:"action"`
	ActionType  domain.ActionType `json:"action_type"`
	Recommended bool              `json:"recommended"`
}

// ActionLogResponse is one recorded action.
type ActionLogResponse struct {
	LoggingID   string            `json:"logging_id"`
	ActionID    *string           `json:"action_id"`
	Action      string            `json:"action"`
	ActionType  domain.ActionType `json:"action_type"`
	Recommended bool              `json:"recommended"`
	UserID      string            `json:"user_id"`
	ExecutedAt  time.Time         `json:"executed_at"`
}
