package domain

import "time"

// SafetyImpact is the SSVC consequence classification of a vulnerable service.
type SafetyImpact string

const (
	SafetyImpactNegligible   SafetyImpact = "negligible"
	SafetyImpactMarginal     SafetyImpact = "marginal"
	SafetyImpactCritical     SafetyImpact = "critical"
	SafetyImpactCatastrophic SafetyImpact = "catastrophic"
)

// Valid reports whether s is a known safety impact.
func (s SafetyImpact) Valid() bool {
	switch s {
	case SafetyImpactNegligible, SafetyImpactMarginal, SafetyImpactCritical, SafetyImpactCatastrophic:
		return true
	}
	return false
}

// TicketStatus is the handling state embedded in a ticket.
type TicketStatus struct {
	HandlingStatus HandlingStatus
	ScheduledAt    *time.Time
	Assignees      []string
	LoggingIDs     []string
	Note           *string
	UpdatedAt      time.Time
}

// Ticket tracks remediation of one (service, dependency, vulnerability) triple.
type Ticket struct {
	ID                       string
	PTeamID                  string
	ServiceID                string
	ServiceName              string
	DependencyID             string
	PackageID                string
	PackageName              string
	PackageVersion           string
	FixedVersion             *string
	VulnID                   string
	SSVCDeployerPriority     *SSVCPriority
	SafetyImpact             *SafetyImpact
	SafetyImpactChangeReason *string
	Status                   TicketStatus
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Priority returns the stored deployer priority, reading null as defer.
func (t Ticket) Priority() SSVCPriority {
	return PriorityFromPtr(t.SSVCDeployerPriority)
}

// HandlingStatus returns the ticket status, reading an absent status as alerted.
func (t Ticket) HandlingStatus() HandlingStatus {
	return t.Status.HandlingStatus.OrDefault()
}
