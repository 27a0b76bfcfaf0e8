// Package aggregate rolls tickets up into per-group status counts, status-bar ratios,
// worst SSVC priorities and alert highlighting.
package aggregate

import (
	"github.com/spec-kit/vuln-remediation/internal/domain"
)

// StatusCount is the number of tickets in each handling status for one group.
type StatusCount struct {
	Alerted      int `json:"alerted"`
	Acknowledged int `json:"acknowledged"`
	Scheduled    int `json:"scheduled"`
	Completed    int `json:"completed"`
}

// Get returns the count for status; unknown statuses count as alerted.
func (c StatusCount) Get(status domain.HandlingStatus) int {
	switch status.OrDefault() {
	case domain.HandlingStatusAcknowledged:
		return c.Acknowledged
	case domain.HandlingStatusScheduled:
		return c.Scheduled
	case domain.HandlingStatusCompleted:
		return c.Completed
	default:
		return c.Alerted
	}
}

// Total is the number of tickets counted.
func (c StatusCount) Total() int {
	return c.Alerted + c.Acknowledged + c.Scheduled + c.Completed
}

// Unresolved is the number of tickets not yet completed.
func (c StatusCount) Unresolved() int {
	return c.Total() - c.Completed
}

func (c *StatusCount) add(status domain.HandlingStatus) {
	switch status.OrDefault() {
	case domain.HandlingStatusAcknowledged:
		c.Acknowledged++
	case domain.HandlingStatusScheduled:
		c.Scheduled++
	case domain.HandlingStatusCompleted:
		c.Completed++
	default:
		c.Alerted++
	}
}

// Aggregate counts tickets by handling status. Absent statuses count as alerted.
func Aggregate(tickets []domain.Ticket) StatusCount {
	var counts StatusCount
	for i := range tickets {
		counts.add(tickets[i].Status.HandlingStatus)
	}
	return counts
}

// AggregateStatuses counts raw handling statuses.
func AggregateStatuses(statuses []domain.HandlingStatus) StatusCount {
	var counts StatusCount
	for _, status := range statuses {
		counts.add(status)
	}
	return counts
}

// WorstPriority reduces the deployer priorities of tickets with domain.WorstOf.
func WorstPriority(tickets []domain.Ticket) domain.SSVCPriority {
	priorities := make([]*domain.SSVCPriority, 0, len(tickets))
	for i := range tickets {
		p := tickets[i].Priority()
		priorities = append(priorities, &p)
	}
	return domain.WorstOf(priorities)
}

// ShouldHighlight reports whether a group's worst priority reaches the team threshold.
// A defer threshold disables highlighting.
func ShouldHighlight(groupPriority, teamThreshold domain.SSVCPriority) bool {
	if teamThreshold.Rank() == domain.PriorityDefer.Rank() {
		return false
	}
	return domain.ComparePriority(groupPriority, teamThreshold) <= 0
}

// DisplaySafe shows a group as safe when it has completed tickets and nothing more
// severe than defer remains.
func DisplaySafe(groupPriority domain.SSVCPriority, counts StatusCount) domain.SSVCPriority {
	normalized := groupPriority.Normalize()
	if counts.Completed > 0 && normalized.Rank() >= domain.PriorityDefer.Rank() {
		return domain.PrioritySafe
	}
	return normalized
}
