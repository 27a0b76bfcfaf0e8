package domain

import "time"

// ActionType classifies a remediation action.
type ActionType string

const (
	ActionTypeElimination ActionType = "elimination"
	ActionTypeTransfer    ActionType = "transfer"
	ActionTypeMitigation  ActionType = "mitigation"
	ActionTypeAcceptance  ActionType = "acceptance"
	ActionTypeDetection   ActionType = "detection"
	ActionTypeRejection   ActionType = "rejection"
)

// VulnAction is an entry in a vulnerability's remediation catalog.
type VulnAction struct {
	ID          string
	VulnID      string
	Action      string
	ActionType  ActionType
	Recommended bool
	CreatedAt   time.Time
}

// ActionLog records that a remediation action was carried out for a ticket.
// ActionID is nil for a synthesized fixed-version action.
type ActionLog struct {
	ID          string
	ActionID    *string
	Action      string
	ActionType  ActionType
	Recommended bool
	UserID      string
	PTeamID     string
	ServiceID   string
	TicketID    string
	VulnID      string
	ExecutedAt  time.Time
	CreatedAt   time.Time
}
