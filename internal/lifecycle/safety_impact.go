package lifecycle

import (
	"errors"
	"strings"

	"github.com/spec-kit/vuln-remediation/internal/domain"
)

var (
	ErrUnknownSafetyImpact        = errors.New("unknown safety impact")
	ErrSafetyImpactReasonRequired = errors.New("a change reason is required when overriding safety impact")
)

// SafetyImpactPatch overrides or reverts a ticket's safety impact. Both fields are nil
// when the ticket reverts to its service default.
type SafetyImpactPatch struct {
	SafetyImpact *domain.SafetyImpact
	ChangeReason *string
}

// Reverted reports whether the patch restores the service default.
func (p SafetyImpactPatch) Reverted() bool {
	return p.SafetyImpact == nil
}

// PlanSafetyImpact validates an override. A nil impact reverts and ignores any reason.
func PlanSafetyImpact(impact *domain.SafetyImpact, reason *string) (SafetyImpactPatch, error) {
	if impact == nil {
		return SafetyImpactPatch{}, nil
	}
	normalized := domain.SafetyImpact(strings.ToLower(strings.TrimSpace(string(*impact))))
	if !normalized.Valid() {
		return SafetyImpactPatch{}, ErrUnknownSafetyImpact
	}
	if reason == nil || strings.TrimSpace(*reason) == "" {
		return SafetyImpactPatch{}, ErrSafetyImpactReasonRequired
	}
	trimmed := strings.TrimSpace(*reason)
	return SafetyImpactPatch{SafetyImpact: &normalized, ChangeReason: &trimmed}, nil
}
