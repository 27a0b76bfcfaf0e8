package aggregate

import (
	"github.com/spec-kit/vuln-remediation/internal/domain"
)

// BarConfig selects which statuses a status bar shows. When CollapseOnCompleted is set
// and at least one ticket is completed, the statuses in Collapsed are hidden as well.
type BarConfig struct {
	Displayed           []domain.HandlingStatus
	CollapseOnCompleted bool
	Collapsed           []domain.HandlingStatus
}

// DefaultBarConfig shows all four statuses. Once a group has a completed ticket only
// alerted collapses; acknowledged and scheduled stay visible.
func DefaultBarConfig() BarConfig {
	return BarConfig{
		Displayed:           append([]domain.HandlingStatus(nil), domain.HandlingStatuses...),
		CollapseOnCompleted: true,
		Collapsed:           []domain.HandlingStatus{domain.HandlingStatusAlerted},
	}
}

// StatusRatios is the share, in percent, of each displayed status.
type StatusRatios struct {
	Percent   map[domain.HandlingStatus]float64 `json:"percent"`
	Displayed []domain.HandlingStatus           `json:"displayed"`
	// Neutral is set when no displayed status has any ticket; the bar renders disabled.
	Neutral bool `json:"neutral"`
}

// DisplayedStatuses applies cfg to counts.
func (cfg BarConfig) DisplayedStatuses(counts StatusCount) []domain.HandlingStatus {
	collapse := cfg.CollapseOnCompleted && counts.Completed > 0
	hidden := make(map[domain.HandlingStatus]struct{}, len(cfg.Collapsed))
	if collapse {
		for _, s := range cfg.Collapsed {
			hidden[s] = struct{}{}
		}
	}
	displayed := make([]domain.HandlingStatus, 0, len(cfg.Displayed))
	for _, s := range cfg.Displayed {
		if _, skip := hidden[s]; skip {
			continue
		}
		displayed = append(displayed, s)
	}
	return displayed
}

// Ratios computes each displayed status's share of the displayed total. Every status
// is present in the result; hidden statuses are 0.
func Ratios(counts StatusCount, cfg BarConfig) StatusRatios {
	displayed := cfg.DisplayedStatuses(counts)
	result := StatusRatios{
		Percent:   make(map[domain.HandlingStatus]float64, len(domain.HandlingStatuses)),
		Displayed: displayed,
	}
	for _, s := range domain.HandlingStatuses {
		result.Percent[s] = 0
	}

	total := 0
	for _, s := range displayed {
		total += counts.Get(s)
	}
	if total == 0 {
		result.Neutral = true
		return result
	}
	for _, s := range displayed {
		result.Percent[s] = float64(counts.Get(s)) * 100 / float64(total)
	}
	return result
}
