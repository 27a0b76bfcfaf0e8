package lifecycle

import (
	"fmt"

	"github.com/spec-kit/vuln-remediation/internal/domain"
)

// FixedVersionAction synthesizes the "update to fixed version" action for a ticket whose
// package has a known fixed version. It has no catalog ID.
func FixedVersionAction(ticket domain.Ticket) (ActionSelection, bool) {
	if ticket.FixedVersion == nil || *ticket.FixedVersion == "" || ticket.PackageName == "" {
		return ActionSelection{}, false
	}
	return ActionSelection{
		Action:      fmt.Sprintf("Update %s from version %s to version %s", ticket.PackageName, ticket.PackageVersion, *ticket.FixedVersion),
		ActionType:  domain.ActionTypeElimination,
		Recommended: true,
	}, true
}

// CompletionCandidates lists the actions a caller may select when completing ticket:
// the synthesized fixed-version action first when applicable, then the catalog.
func CompletionCandidates(ticket domain.Ticket, catalog []domain.VulnAction) []ActionSelection {
	candidates := make([]ActionSelection, 0, len(catalog)+1)
	if fixed, ok := FixedVersionAction(ticket); ok {
		candidates = append(candidates, fixed)
	}
	for _, action := range catalog {
		if action.VulnID != "" && action.VulnID != ticket.VulnID {
			continue
		}
		id := action.ID
		candidates = append(candidates, ActionSelection{
			ActionID:    &id,
			Action:      action.Action,
			ActionType:  action.ActionType,
			Recommended: action.Recommended,
		})
	}
	return candidates
}

// ResolveSelections checks that each selection refers to a catalog entry (or the
// synthesized action) and fills in the catalog's canonical text and type.
func ResolveSelections(ticket domain.Ticket, catalog []domain.VulnAction, selected []ActionSelection) ([]ActionSelection, error) {
	byID := make(map[string]ActionSelection)
	var synthesized *ActionSelection
	for _, candidate := range CompletionCandidates(ticket, catalog) {
		if candidate.ActionID == nil {
			c := candidate
			synthesized = &c
			continue
		}
		byID[*candidate.ActionID] = candidate
	}

	resolved := make([]ActionSelection, 0, len(selected))
	for _, sel := range selected {
		if sel.ActionID == nil {
			if synthesized == nil {
				return nil, fmt.Errorf("%w: no fixed version is known for this ticket", ErrUnknownAction)
			}
			resolved = append(resolved, *synthesized)
			continue
		}
		candidate, ok := byID[*sel.ActionID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAction, *sel.ActionID)
		}
		resolved = append(resolved, candidate)
	}
	return resolved, nil
}
