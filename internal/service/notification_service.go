package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/vuln-remediation/internal/aggregate"
	"github.com/spec-kit/vuln-remediation/internal/config"
	"github.com/spec-kit/vuln-remediation/internal/domain"
	"github.com/spec-kit/vuln-remediation/internal/events"
	"github.com/spec-kit/vuln-remediation/internal/repository"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	teams      repository.TeamRepository
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, teams repository.TeamRepository, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		teams:      teams,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigneesChanged, n.handleTicketAssigneesChanged)
	n.dispatcher.Subscribe(events.EventTicketSafetyImpactChanged, n.handleSafetyImpactChanged)
	n.dispatcher.Subscribe(events.EventActionLogged, n.handleActionLogged)
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok || payload.NewStatus != domain.HandlingStatusAlerted {
		return nil
	}
	alert, err := n.meetsThreshold(ctx, event.PTeamID, payload.Priority)
	if err != nil {
		return err
	}
	if alert {
		n.sendEmailNotificationStub(ctx, event)
		n.sendWebhookNotificationStub(ctx, event)
	}
	return nil
}

func (n *NotificationService) handleTicketAssigneesChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketAssigneesChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSafetyImpactChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketSafetyImpactChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleActionLogged(ctx context.Context, event events.Event) error {
	n.logger.Info("ActionLogged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

// meetsThreshold reports whether a reopened ticket is severe enough to alert its team.
func (n *NotificationService) meetsThreshold(ctx context.Context, pteamID string, priority domain.SSVCPriority) (bool, error) {
	if n.teams == nil || pteamID == "" {
		return false, nil
	}
	team, err := n.teams.GetByID(ctx, pteamID)
	if err != nil {
		return false, err
	}
	return aggregate.ShouldHighlight(priority, team.AlertThreshold()), nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
