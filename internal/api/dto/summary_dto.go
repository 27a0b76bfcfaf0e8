package dto

import (
	"github.com/spec-kit/vuln-remediation/internal/aggregate"
	"github.com/spec-kit/vuln-remediation/internal/domain"
)

// PackageSummaryResponse is a team's package rollup.
type PackageSummaryResponse struct {
	PTeamID           string                 `json:"pteam_id"`
	ServiceID         *string                `json:"service_id,omitempty"`
	AlertSSVCPriority domain.SSVCPriority    `json:"alert_ssvc_priority"`
	Packages          []PackageGroupResponse `json:"packages"`
}

// PackageGroupResponse summarizes one package.
type PackageGroupResponse struct {
	PackageID       string                            `json:"package_id"`
	PackageName     string                            `json:"package_name"`
	ServiceID       string                            `json:"service_id,omitempty"`
	StatusCount     map[domain.HandlingStatus]int     `json:"status_count"`
	StatusRatio     map[domain.HandlingStatus]float64 `json:"status_ratio"`
	Displayed       []domain.HandlingStatus           `json:"displayed_statuses"`
	Neutral         bool                              `json:"neutral"`
	WorstPriority   domain.SSVCPriority               `json:"ssvc_priority"`
	DisplayPriority domain.SSVCPriority               `json:"display_priority"`
	Highlight       bool                              `json:"highlight"`
	TicketIDs       []string                          `json:"ticket_ids"`
}

// NewPackageGroupResponse flattens a group summary.
func NewPackageGroupResponse(g aggregate.GroupSummary) PackageGroupResponse {
	counts := make(map[domain.HandlingStatus]int, len(domain.HandlingStatuses))
	for _, s := range domain.HandlingStatuses {
		counts[s] = g.Counts.Get(s)
	}
	return PackageGroupResponse{
		PackageID:       g.Key.PackageID,
		PackageName:     g.Key.PackageName,
		ServiceID:       g.Key.ServiceID,
		StatusCount:     counts,
		StatusRatio:     g.Ratios.Percent,
		Displayed:       g.Ratios.Displayed,
		Neutral:         g.Ratios.Neutral,
		WorstPriority:   g.WorstPriority,
		DisplayPriority: g.DisplayPriority,
		Highlight:       g.Highlight,
		TicketIDs:       g.TicketIDs,
	}
}
