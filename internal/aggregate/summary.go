package aggregate

import (
	"sort"

	"github.com/spec-kit/vuln-remediation/internal/domain"
)

// GroupKey identifies a package, optionally scoped to one service.
type GroupKey struct {
	PackageID   string `json:"package_id"`
	PackageName string `json:"package_name"`
	ServiceID   string `json:"service_id,omitempty"`
}

// KeyFunc maps a ticket to its group.
type KeyFunc func(domain.Ticket) GroupKey

// ByPackage groups tickets across every service of a team.
func ByPackage(t domain.Ticket) GroupKey {
	return GroupKey{PackageID: t.PackageID, PackageName: t.PackageName}
}

// ByServicePackage groups tickets per package within one service.
func ByServicePackage(t domain.Ticket) GroupKey {
	return GroupKey{PackageID: t.PackageID, PackageName: t.PackageName, ServiceID: t.ServiceID}
}

// GroupSummary is the rolled-up view of one group.
type GroupSummary struct {
	Key             GroupKey            `json:"key"`
	Counts          StatusCount         `json:"status_count"`
	WorstPriority   domain.SSVCPriority `json:"worst_priority"`
	DisplayPriority domain.SSVCPriority `json:"display_priority"`
	Highlight       bool                `json:"highlight"`
	Ratios          StatusRatios        `json:"ratios"`
	TicketIDs       []string            `json:"ticket_ids"`
}

// Summarize groups tickets with key and summarizes each group against the team's alert
// threshold. The worst priority considers unresolved tickets only, so a group whose
// tickets are all completed reduces to empty and displays as safe. Groups are ordered by
// display priority, most severe first, then by package name, package ID and service.
func Summarize(tickets []domain.Ticket, key KeyFunc, threshold domain.SSVCPriority, cfg BarConfig) []GroupSummary {
	type bucket struct {
		key        GroupKey
		tickets    []domain.Ticket
		unresolved []domain.Ticket
	}
	buckets := make(map[GroupKey]*bucket)
	order := make([]GroupKey, 0)
	for i := range tickets {
		k := key(tickets[i])
		b, ok := buckets[k]
		if !ok {
			b = &bucket{key: k}
			buckets[k] = b
			order = append(order, k)
		}
		b.tickets = append(b.tickets, tickets[i])
		if tickets[i].HandlingStatus() != domain.HandlingStatusCompleted {
			b.unresolved = append(b.unresolved, tickets[i])
		}
	}

	summaries := make([]GroupSummary, 0, len(order))
	for _, k := range order {
		b := buckets[k]
		counts := Aggregate(b.tickets)
		worst := WorstPriority(b.unresolved)
		ids := make([]string, 0, len(b.tickets))
		for i := range b.tickets {
			ids = append(ids, b.tickets[i].ID)
		}
		summaries = append(summaries, GroupSummary{
			Key:             k,
			Counts:          counts,
			WorstPriority:   worst,
			DisplayPriority: DisplaySafe(worst, counts),
			Highlight:       ShouldHighlight(worst, threshold),
			Ratios:          Ratios(counts, cfg),
			TicketIDs:       ids,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if c := domain.ComparePriority(a.DisplayPriority, b.DisplayPriority); c != 0 {
			return c < 0
		}
		if a.Key.PackageName != b.Key.PackageName {
			return a.Key.PackageName < b.Key.PackageName
		}
		if a.Key.PackageID != b.Key.PackageID {
			return a.Key.PackageID < b.Key.PackageID
		}
		return a.Key.ServiceID < b.Key.ServiceID
	})
	return summaries
}
