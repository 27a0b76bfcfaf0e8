package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/vuln-remediation/internal/domain"
	"github.com/spec-kit/vuln-remediation/internal/events"
	"github.com/spec-kit/vuln-remediation/internal/lifecycle"
	"github.com/spec-kit/vuln-remediation/internal/observability"
	"github.com/spec-kit/vuln-remediation/internal/repository"
	apperrors "github.com/spec-kit/vuln-remediation/pkg/util/errorutil"
)

// TicketService coordinates ticket handling workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	actionLogs  repository.ActionLogRepository
	vulnActions repository.VulnActionRepository
	machine     *lifecycle.Machine
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	ActionLogRepo  repository.ActionLogRepository
	VulnActionRepo repository.VulnActionRepository
	Machine        *lifecycle.Machine
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Now            func() time.Time
}

// TransitionResult reports the outcome of an accepted transition.
type TransitionResult struct {
	Ticket     *domain.Ticket
	Noop       bool
	LoggingIDs []string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		tickets:     deps.TicketRepo,
		actionLogs:  deps.ActionLogRepo,
		vulnActions: deps.VulnActionRepo,
		machine:     deps.Machine,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		now:         deps.Now,
	}
	if s.machine == nil {
		s.machine = lifecycle.NewMachine()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// GetTicket fetches a ticket by ID.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.loadTicket(ctx, ticketID)
}

// CompletionActions lists the actions selectable when completing the ticket.
func (s *TicketService) CompletionActions(ctx context.Context, ticketID string) ([]lifecycle.ActionSelection, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.vulnActions.ListByVuln(ctx, ticket.VulnID)
	if err != nil {
		return nil, err
	}
	return lifecycle.CompletionCandidates(*ticket, catalog), nil
}

// ActionLogs lists the completed-action log entries of a ticket.
func (s *TicketService) ActionLogs(ctx context.Context, ticketID string) ([]domain.ActionLog, error) {
	if _, err := s.loadTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.actionLogs.ListByTicket(ctx, ticketID)
}

// Transition moves a ticket to a new handling status. The request is validated before
// any write; a completed transition creates one action log per selected action and then
// writes the status patch. The returned ticket is re-read after the write.
func (s *TicketService) Transition(ctx context.Context, actorID, ticketID string, req lifecycle.TransitionRequest) (*TransitionResult, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	plan, err := s.machine.Plan(ticket.Status, req)
	if err != nil {
		return nil, s.reject(req.Target, err)
	}
	if plan.Noop {
		return &TransitionResult{Ticket: ticket, Noop: true}, nil
	}

	var loggingIDs []string
	if plan.NeedsActionLogs() {
		catalog, err := s.vulnActions.ListByVuln(ctx, ticket.VulnID)
		if err != nil {
			return nil, err
		}
		resolved, err := lifecycle.ResolveSelections(*ticket, catalog, plan.Actions)
		if err != nil {
			return nil, s.reject(req.Target, err)
		}
		loggingIDs, err = s.createActionLogs(ctx, actorID, ticket, resolved)
		if err != nil {
			return nil, err
		}
	}

	patch := plan.Patch(loggingIDs)
	if err := patch.Validate(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.tickets.UpdateStatus(ctx, ticket.ID, patch); err != nil {
		s.logger.Warn("ticket status write failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("target", string(plan.To)),
			zap.Strings("logging_ids", loggingIDs),
			zap.Error(err))
		return nil, apperrors.NewRemoteWriteError("update ticket status", err, len(loggingIDs) > 0, map[string]any{
			"logging_ids": loggingIDs,
		})
	}
	s.metrics.RecordTransition(string(plan.From), string(plan.To))

	updated, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		s.logger.Warn("re-read after status write failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		confirmed := *ticket
		confirmed.Status = lifecycle.ApplyPatch(ticket.Status, patch)
		updated = &confirmed
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		PTeamID:  ticket.PTeamID,
		ActorID:  actorID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus:   plan.From,
			NewStatus:   plan.To,
			Priority:    ticket.Priority(),
			ScheduledAt: patch.ScheduledAt,
			LoggingIDs:  loggingIDs,
		},
	})
	return &TransitionResult{Ticket: updated, LoggingIDs: loggingIDs}, nil
}

// UpdateAssignees replaces the assignee set of a ticket.
func (s *TicketService) UpdateAssignees(ctx context.Context, actorID, ticketID string, assignees []string) (*domain.Ticket, error) {
	normalized, err := lifecycle.NormalizeAssignees(assignees)
	if err != nil {
		return nil, apperrors.WrapValidation(err)
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	current, _ := lifecycle.NormalizeAssignees(ticket.Status.Assignees)
	if slices.Equal(current, normalized) {
		return ticket, nil
	}

	if err := s.tickets.UpdateAssignees(ctx, ticket.ID, normalized); err != nil {
		return nil, apperrors.NewRemoteWriteError("update ticket assignees", err, false, nil)
	}
	updated := s.reload(ctx, ticket, func(t *domain.Ticket) { t.Status.Assignees = normalized })

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigneesChanged,
		TicketID: ticket.ID,
		PTeamID:  ticket.PTeamID,
		ActorID:  actorID,
		Payload: events.TicketAssigneesChangedPayload{
			OldAssignees: current,
			NewAssignees: normalized,
		},
	})
	return updated, nil
}

// UpdateSafetyImpact overrides the ticket's safety impact, or reverts it to the service
// default when impact is nil.
func (s *TicketService) UpdateSafetyImpact(ctx context.Context, actorID, ticketID string, impact *domain.SafetyImpact, reason *string) (*domain.Ticket, error) {
	patch, err := lifecycle.PlanSafetyImpact(impact, reason)
	if err != nil {
		return nil, apperrors.WrapValidation(err)
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if sameString((*string)(ticket.SafetyImpact), (*string)(patch.SafetyImpact)) &&
		sameString(ticket.SafetyImpactChangeReason, patch.ChangeReason) {
		return ticket, nil
	}

	if err := s.tickets.UpdateSafetyImpact(ctx, ticket.ID, patch); err != nil {
		return nil, apperrors.NewRemoteWriteError("update ticket safety impact", err, false, nil)
	}
	updated := s.reload(ctx, ticket, func(t *domain.Ticket) {
		t.SafetyImpact = patch.SafetyImpact
		t.SafetyImpactChangeReason = patch.ChangeReason
	})

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketSafetyImpactChanged,
		TicketID: ticket.ID,
		PTeamID:  ticket.PTeamID,
		ActorID:  actorID,
		Payload: events.TicketSafetyImpactChangedPayload{
			SafetyImpact: patch.SafetyImpact,
			ChangeReason: patch.ChangeReason,
		},
	})
	return updated, nil
}

func (s *TicketService) createActionLogs(ctx context.Context, actorID string, ticket *domain.Ticket, actions []lifecycle.ActionSelection) ([]string, error) {
	ids := make([]string, 0, len(actions))
	executedAt := s.now().UTC()
	for _, action := range actions {
		entry := &domain.ActionLog{
			ActionID:    action.ActionID,
			Action:      action.Action,
			ActionType:  action.ActionType,
			Recommended: action.Recommended,
			UserID:      actorID,
			PTeamID:     ticket.PTeamID,
			ServiceID:   ticket.ServiceID,
			TicketID:    ticket.ID,
			VulnID:      ticket.VulnID,
			ExecutedAt:  executedAt,
		}
		if err := s.actionLogs.Create(ctx, entry); err != nil {
			s.logger.Warn("action log write failed",
				zap.String("ticket_id", ticket.ID),
				zap.Int("created", len(ids)),
				zap.Error(err))
			return nil, apperrors.NewRemoteWriteError("create action log", err, len(ids) > 0, map[string]any{
				"logging_ids": ids,
			})
		}
		ids = append(ids, entry.ID)
		s.publishEvent(ctx, events.Event{
			Type:     events.EventActionLogged,
			TicketID: ticket.ID,
			PTeamID:  ticket.PTeamID,
			ActorID:  actorID,
			Payload: events.ActionLoggedPayload{
				LogID:    entry.ID,
				ActionID: entry.ActionID,
				Action:   entry.Action,
			},
		})
	}
	return ids, nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if _, err := uuid.Parse(ticketID); err != nil {
		return nil, apperrors.NewValidationError("invalid ticket id", map[string]any{"ticket_id": ticketID})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// reload re-reads a ticket after a confirmed write, falling back to applying the
// confirmed change to the pre-write copy.
func (s *TicketService) reload(ctx context.Context, before *domain.Ticket, apply func(*domain.Ticket)) *domain.Ticket {
	updated, err := s.tickets.GetByID(ctx, before.ID)
	if err == nil {
		return updated
	}
	s.logger.Warn("re-read after write failed", zap.String("ticket_id", before.ID), zap.Error(err))
	confirmed := *before
	apply(&confirmed)
	return &confirmed
}

func (s *TicketService) reject(target domain.HandlingStatus, err error) error {
	s.metrics.RecordRejection(string(target), rejectionReason(err))
	s.logger.Debug("transition rejected", zap.String("target", string(target)), zap.Error(err))
	return apperrors.WrapValidation(err)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, lifecycle.ErrScheduleRequired):
		return "schedule_required"
	case errors.Is(err, lifecycle.ErrScheduleInPast):
		return "schedule_in_past"
	case errors.Is(err, lifecycle.ErrNoCompletionActions):
		return "no_actions"
	case errors.Is(err, lifecycle.ErrUnknownAction):
		return "unknown_action"
	case errors.Is(err, lifecycle.ErrUnknownStatus):
		return "unknown_status"
	default:
		return "other"
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
