package lifecycle

import (
	"time"

	"github.com/spec-kit/vuln-remediation/internal/domain"
)

// Draft buffers an in-progress transition edit for one ticket. It never touches the
// committed ticket, so abandoning an edit is dropping the Draft.
type Draft struct {
	TicketID string
	Base     domain.TicketStatus

	target      domain.HandlingStatus
	scheduledAt *time.Time
	actions     []ActionSelection
	note        *string
}

// NewDraft starts an edit toward target on top of the ticket's committed status.
func NewDraft(ticket domain.Ticket, target domain.HandlingStatus) *Draft {
	base := ticket.Status
	base.HandlingStatus = ticket.HandlingStatus()
	return &Draft{TicketID: ticket.ID, Base: base, target: target}
}

// Target returns the status the draft moves toward.
func (d *Draft) Target() domain.HandlingStatus {
	return d.target
}

// Schedule sets the requested schedule date.
func (d *Draft) Schedule(at time.Time) {
	d.scheduledAt = &at
}

// Select adds a completed action. Selecting an action with the same identity twice
// replaces the earlier selection.
func (d *Draft) Select(action ActionSelection) {
	for i, existing := range d.actions {
		if sameAction(existing, action) {
			d.actions[i] = action
			return
		}
	}
	d.actions = append(d.actions, action)
}

// Deselect removes a previously selected action.
func (d *Draft) Deselect(action ActionSelection) {
	kept := d.actions[:0]
	for _, existing := range d.actions {
		if !sameAction(existing, action) {
			kept = append(kept, existing)
		}
	}
	d.actions = kept
}

// SetNote records free-text completion evidence; an empty note clears it.
func (d *Draft) SetNote(note string) {
	if note == "" {
		d.note = nil
		return
	}
	d.note = &note
}

// Request snapshots the draft as a transition request.
func (d *Draft) Request() TransitionRequest {
	req := TransitionRequest{Target: d.target, Note: d.note}
	if d.scheduledAt != nil {
		at := *d.scheduledAt
		req.ScheduledAt = &at
	}
	req.Actions = append([]ActionSelection(nil), d.actions...)
	return req
}

// Plan validates the draft against m without committing anything.
func (d *Draft) Plan(m *Machine) (Plan, error) {
	return m.Plan(d.Base, d.Request())
}

func sameAction(a, b ActionSelection) bool {
	if a.ActionID != nil || b.ActionID != nil {
		return a.ActionID != nil && b.ActionID != nil && *a.ActionID == *b.ActionID
	}
	return a.Action == b.Action
}
