package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/vuln-remediation/internal/api/dto"
	"github.com/spec-kit/vuln-remediation/internal/auth"
	"github.com/spec-kit/vuln-remediation/internal/domain"
	"github.com/spec-kit/vuln-remediation/internal/lifecycle"
	"github.com/spec-kit/vuln-remediation/internal/service"
	apperrors "github.com/spec-kit/vuln-remediation/pkg/util/errorutil"
)

// TicketOperations is the ticket workflow the handler drives.
type TicketOperations interface {
	GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error)
	CompletionActions(ctx context.Context, ticketID string) ([]lifecycle.ActionSelection, error)
	ActionLogs(ctx context.Context, ticketID string) ([]domain.ActionLog, error)
	Transition(ctx context.Context, actorID, ticketID string, req lifecycle.TransitionRequest) (*service.TransitionResult, error)
	UpdateAssignees(ctx context.Context, actorID, ticketID string, assignees []string) (*domain.Ticket, error)
	UpdateSafetyImpact(ctx context.Context, actorID, ticketID string, impact *domain.SafetyImpact, reason *string) (*domain.Ticket, error)
}

// TicketsHandler manages ticket handling endpoints.
type TicketsHandler struct {
	tickets TicketOperations
	machine *lifecycle.Machine
}

// NewTicketsHandler constructs handler. machine rejects malformed transitions before
// any write is attempted.
func NewTicketsHandler(tickets TicketOperations, machine *lifecycle.Machine) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, machine: machine}
}

// GetTicket GET /tickets/:ticketID.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	_, ticket, err := h.authorizedTicket(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListActions GET /tickets/:ticketID/actions.
func (h *TicketsHandler) ListActions(c *fiber.Ctx) error {
	_, ticket, err := h.authorizedTicket(c)
	if err != nil {
		return err
	}
	actions, err := h.tickets.CompletionActions(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	items := make([]dto.ActionResponse, 0, len(actions))
	for _, a := range actions {
		items = append(items, dto.ActionResponse{
			ActionID:    a.ActionID,
			Action:      a.Action,
			ActionType:  a.ActionType,
			Recommended: a.Recommended,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListActionLogs GET /tickets/:ticketID/action-logs.
func (h *TicketsHandler) ListActionLogs(c *fiber.Ctx) error {
	_, ticket, err := h.authorizedTicket(c)
	if err != nil {
		return err
	}
	logs, err := h.tickets.ActionLogs(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	items := make([]dto.ActionLogResponse, 0, len(logs))
	for _, l := range logs {
		items = append(items, dto.ActionLogResponse{
			LoggingID:   l.ID,
			ActionID:    l.ActionID,
			Action:      l.Action,
			ActionType:  l.ActionType,
			Recommended: l.Recommended,
			UserID:      l.UserID,
			ExecutedAt:  l.ExecutedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateStatus PUT /tickets/:ticketID/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	target, err := domain.ParseHandlingStatus(req.HandlingStatus)
	if err != nil {
		return apperrors.WrapValidation(err)
	}

	principal, ticket, err := h.authorizedTicket(c)
	if err != nil {
		return err
	}

	draft := lifecycle.NewDraft(*ticket, target)
	if req.ScheduledAt != nil {
		draft.Schedule(*req.ScheduledAt)
	}
	for _, a := range req.Actions {
		draft.Select(lifecycle.ActionSelection{ActionID: a.ActionID})
	}
	if req.Note != nil {
		draft.SetNote(*req.Note)
	}
	if _, err := draft.Plan(h.machine); err != nil {
		return apperrors.WrapValidation(err)
	}

	result, err := h.tickets.Transition(c.UserContext(), principal.UserID, ticket.ID, draft.Request())
	if err != nil {
		return err
	}
	loggingIDs := result.LoggingIDs
	if loggingIDs == nil {
		loggingIDs = []string{}
	}
	return c.JSON(fiber.Map{"data": dto.UpdateStatusResponse{
		Ticket:     ticketResponse(result.Ticket),
		Noop:       result.Noop,
		LoggingIDs: loggingIDs,
	}})
}

// UpdateAssignees PUT /tickets/:ticketID/assignees.
func (h *TicketsHandler) UpdateAssignees(c *fiber.Ctx) error {
	var req dto.UpdateAssigneesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	principal, ticket, err := h.authorizedTicket(c)
	if err != nil {
		return err
	}
	updated, err := h.tickets.UpdateAssignees(c.UserContext(), principal.UserID, ticket.ID, req.Assignees)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(updated)})
}

// UpdateSafetyImpact PUT /tickets/:ticketID/safety-impact.
func (h *TicketsHandler) UpdateSafetyImpact(c *fiber.Ctx) error {
	var req dto.UpdateSafetyImpactRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	principal, ticket, err := h.authorizedTicket(c)
	if err != nil {
		return err
	}
	updated, err := h.tickets.UpdateSafetyImpact(c.UserContext(), principal.UserID, ticket.ID, req.SafetyImpact, req.ChangeReason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(updated)})
}

// authorizedTicket loads the ticket named by the route and checks that the caller
// belongs to its team.
func (h *TicketsHandler) authorizedTicket(c *fiber.Ctx) (*auth.Principal, *domain.Ticket, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("ticketID"))
	if err != nil {
		return nil, nil, err
	}
	if !principal.MemberOf(ticket.PTeamID) {
		return nil, nil, apperrors.NewForbidden("not a member of this team")
	}
	return principal, ticket, nil
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	assignees := ticket.Status.Assignees
	if assignees == nil {
		assignees = []string{}
	}
	loggingIDs := ticket.Status.LoggingIDs
	if loggingIDs == nil {
		loggingIDs = []string{}
	}
	return dto.TicketResponse{
		ID:                       ticket.ID,
		PTeamID:                  ticket.PTeamID,
		ServiceID:                ticket.ServiceID,
		ServiceName:              ticket.ServiceName,
		DependencyID:             ticket.DependencyID,
		PackageID:                ticket.PackageID,
		PackageName:              ticket.PackageName,
		PackageVersion:           ticket.PackageVersion,
		FixedVersion:             ticket.FixedVersion,
		VulnID:                   ticket.VulnID,
		SSVCDeployerPriority:     ticket.Priority(),
		SafetyImpact:             ticket.SafetyImpact,
		SafetyImpactChangeReason: ticket.SafetyImpactChangeReason,
		Status: dto.TicketStatusResponse{
			HandlingStatus: ticket.HandlingStatus(),
			ScheduledAt:    ticket.Status.ScheduledAt,
			Assignees:      assignees,
			LoggingIDs:     loggingIDs,
			Note:           ticket.Status.Note,
			UpdatedAt:      ticket.Status.UpdatedAt,
		},
		CreatedAt: ticket.CreatedAt,
		UpdatedAt: ticket.UpdatedAt,
	}
}
