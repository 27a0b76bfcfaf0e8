package domain

import (
	"encoding/json"
	"strings"
)

// SSVCPriority enumerates SSVC deployer decision priorities.
type SSVCPriority string

const (
	PriorityImmediate  SSVCPriority = "immediate"
	PriorityOutOfCycle SSVCPriority = "out_of_cycle"
	PriorityScheduled  SSVCPriority = "scheduled"
	PriorityDefer      SSVCPriority = "defer"

	// PrioritySafe and PriorityEmpty are derived for groups and never stored.
	PrioritySafe  SSVCPriority = "safe"
	PriorityEmpty SSVCPriority = "empty"
)

var priorityRanks = map[SSVCPriority]int{
	PriorityImmediate:  1,
	PriorityOutOfCycle: 2,
	PriorityScheduled:  3,
	PriorityDefer:      4,
	PrioritySafe:       4,
	PriorityEmpty:      4,
}

var priorityDisplayNames = map[SSVCPriority]string{
	PriorityImmediate:  "Immediate",
	PriorityOutOfCycle: "Out-of-cycle",
	PriorityScheduled:  "Scheduled",
	PriorityDefer:      "Defer",
	PrioritySafe:       "Safe",
	PriorityEmpty:      "Empty",
}

// ParsePriority normalizes snake_case tokens and display variants ("Out-of-cycle",
// "OUT OF CYCLE") into a closed SSVCPriority. Unrecognized input degrades to defer.
func ParsePriority(raw string) SSVCPriority {
	p, ok := lookupPriority(raw)
	if !ok {
		return PriorityDefer
	}
	return p
}

func lookupPriority(raw string) (SSVCPriority, bool) {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.NewReplacer("-", "_", " ", "_").Replace(token)
	p := SSVCPriority(token)
	if _, ok := priorityRanks[p]; !ok {
		return "", false
	}
	return p, true
}

// PriorityFromPtr reads a nullable stored priority; nil means defer.
func PriorityFromPtr(p *SSVCPriority) SSVCPriority {
	if p == nil {
		return PriorityDefer
	}
	return p.Normalize()
}

// Normalize returns the canonical form of p.
func (p SSVCPriority) Normalize() SSVCPriority {
	return ParsePriority(string(p))
}

// Rank maps a priority to its severity rank; lower is more severe.
func (p SSVCPriority) Rank() int {
	return priorityRanks[p.Normalize()]
}

// DisplayName returns the human label used by dashboards.
func (p SSVCPriority) DisplayName() string {
	return priorityDisplayNames[p.Normalize()]
}

// IsStored reports whether p is one of the four persisted levels.
func (p SSVCPriority) IsStored() bool {
	switch p.Normalize() {
	case PriorityImmediate, PriorityOutOfCycle, PriorityScheduled, PriorityDefer:
		return true
	}
	return false
}

// UnmarshalJSON accepts either token form and never fails on unknown values.
func (p *SSVCPriority) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ParsePriority(raw)
	return nil
}

// ComparePriority orders a before b when a is more severe.
func ComparePriority(a, b SSVCPriority) int {
	ra, rb := a.Rank(), b.Rank()
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

// WorstOf returns the most severe priority in ps. A nil entry counts as empty, and an
// empty input yields empty. Rank ties keep the first value seen.
func WorstOf(ps []*SSVCPriority) SSVCPriority {
	worst := PriorityEmpty
	for i, p := range ps {
		current := PriorityEmpty
		if p != nil {
			current = p.Normalize()
		}
		if i == 0 || ComparePriority(current, worst) < 0 {
			worst = current
		}
	}
	return worst
}
