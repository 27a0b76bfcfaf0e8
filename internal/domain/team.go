package domain

import "time"

// PTeam is a product team owning services and their tickets.
type PTeam struct {
	ID                string
	Name              string
	AlertSSVCPriority SSVCPriority
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AlertThreshold returns the configured threshold in canonical form.
func (t PTeam) AlertThreshold() SSVCPriority {
	if t.AlertSSVCPriority == "" {
		return PriorityImmediate
	}
	return t.AlertSSVCPriority.Normalize()
}
