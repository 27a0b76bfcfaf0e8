// Package lifecycle validates ticket handling-status transitions and builds the
// status patches that persist them. Nothing here performs I/O.
package lifecycle

import (
	"errors"
	"time"

	"github.com/spec-kit/vuln-remediation/internal/domain"
)

var (
	ErrUnknownStatus       = errors.New("unknown handling status")
	ErrScheduleRequired    = errors.New("scheduled_at is required when scheduling a ticket")
	ErrScheduleInPast      = errors.New("scheduled_at must be in the future")
	ErrNoCompletionActions = errors.New("at least one completed action must be selected")
	ErrUnknownAction       = errors.New("action is not in the vulnerability catalog")
)

// ActionSelection identifies one action the caller reports as carried out.
// ActionID is nil for a synthesized fixed-version action.
type ActionSelection struct {
	ActionID    *string
	Action      string
	ActionType  domain.ActionType
	Recommended bool
}

// TransitionRequest asks for a ticket to move to Target.
type TransitionRequest struct {
	Target      domain.HandlingStatus
	ScheduledAt *time.Time
	Actions     []ActionSelection
	Note        *string
}

// Plan is the accepted outcome of a transition request.
type Plan struct {
	From        domain.HandlingStatus
	To          domain.HandlingStatus
	Noop        bool
	ScheduledAt *time.Time
	Actions     []ActionSelection
	Note        *string
}

// StatusPatch is the partial ticket_status write. ScheduledAt is always written, so nil
// clears it. LoggingIDs and Note are written only for a completed status.
type StatusPatch struct {
	HandlingStatus domain.HandlingStatus
	ScheduledAt    *time.Time
	LoggingIDs     []string
	Note           *string
}

// Machine validates transitions against a clock.
type Machine struct {
	now func() time.Time
}

// Option customizes a Machine.
type Option func(*Machine)

// WithClock overrides the clock used to judge whether a schedule is in the future.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// NewMachine constructs a Machine.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Plan decides synchronously whether req may be applied to current. Every pair of the
// four statuses is a legal transition; what is checked is the payload each target needs.
func (m *Machine) Plan(current domain.TicketStatus, req TransitionRequest) (Plan, error) {
	from := current.HandlingStatus.OrDefault()
	to, err := domain.ParseHandlingStatus(string(req.Target))
	if err != nil {
		return Plan{}, ErrUnknownStatus
	}
	req.Target = to

	plan := Plan{From: from, To: to}
	if isNoop(current, from, req) {
		plan.Noop = true
		plan.ScheduledAt = current.ScheduledAt
		return plan, nil
	}

	switch to {
	case domain.HandlingStatusAcknowledged:
		plan.ScheduledAt = nil
	case domain.HandlingStatusScheduled:
		if req.ScheduledAt == nil {
			return Plan{}, ErrScheduleRequired
		}
		if !req.ScheduledAt.After(m.now()) {
			return Plan{}, ErrScheduleInPast
		}
		at := req.ScheduledAt.UTC()
		plan.ScheduledAt = &at
	case domain.HandlingStatusCompleted:
		if len(req.Actions) == 0 {
			return Plan{}, ErrNoCompletionActions
		}
		plan.ScheduledAt = nil
		plan.Actions = append([]ActionSelection(nil), req.Actions...)
		plan.Note = req.Note
	case domain.HandlingStatusAlerted:
		plan.ScheduledAt = nil
	}
	return plan, nil
}

// isNoop reports whether req asks for nothing beyond the current state. Moving to the
// current status is a no-op except for rescheduling to a different date.
func isNoop(current domain.TicketStatus, from domain.HandlingStatus, req TransitionRequest) bool {
	if req.Target != from {
		return false
	}
	if from != domain.HandlingStatusScheduled || req.ScheduledAt == nil {
		return true
	}
	return current.ScheduledAt != nil && current.ScheduledAt.Equal(*req.ScheduledAt)
}

// NeedsActionLogs reports whether the plan must create log entries before its patch.
func (p Plan) NeedsActionLogs() bool {
	return !p.Noop && p.To == domain.HandlingStatusCompleted
}

// Patch builds the status write for an accepted plan. loggingIDs are the log entries
// created for a completed transition and are ignored otherwise.
func (p Plan) Patch(loggingIDs []string) StatusPatch {
	patch := StatusPatch{
		HandlingStatus: p.To,
		ScheduledAt:    p.ScheduledAt,
	}
	if p.To == domain.HandlingStatusCompleted {
		patch.LoggingIDs = append([]string(nil), loggingIDs...)
		patch.Note = p.Note
	}
	return patch
}

// ApplyPatch returns status as it reads after patch has been confirmed by the store.
func ApplyPatch(status domain.TicketStatus, patch StatusPatch) domain.TicketStatus {
	next := status
	next.HandlingStatus = patch.HandlingStatus
	next.ScheduledAt = patch.ScheduledAt
	if patch.HandlingStatus == domain.HandlingStatusCompleted {
		next.LoggingIDs = append([]string(nil), patch.LoggingIDs...)
		next.Note = patch.Note
	}
	return next
}

// Validate checks the invariants a status write must satisfy before it is sent.
func (p StatusPatch) Validate() error {
	switch p.HandlingStatus {
	case domain.HandlingStatusScheduled:
		if p.ScheduledAt == nil {
			return ErrScheduleRequired
		}
	case domain.HandlingStatusCompleted:
		if len(p.LoggingIDs) == 0 {
			return ErrNoCompletionActions
		}
	case domain.HandlingStatusAlerted, domain.HandlingStatusAcknowledged:
	default:
		return ErrUnknownStatus
	}
	return nil
}
