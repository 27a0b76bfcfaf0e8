package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/vuln-remediation/internal/events"
	"github.com/spec-kit/vuln-remediation/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartCacheInvalidation drops a team's cached summaries whenever one of its tickets
// changes, so the next read recomputes from the store.
func StartCacheInvalidation(dispatcher events.Dispatcher, summaries *service.SummaryService, logger *zap.Logger) {
	if dispatcher == nil || summaries == nil {
		return
	}
	invalidate := func(ctx context.Context, event events.Event) error {
		if err := summaries.Invalidate(ctx, event.PTeamID); err != nil {
			logger.Warn("summary cache invalidation failed", zap.String("pteam_id", event.PTeamID), zap.Error(err))
			return err
		}
		return nil
	}
	dispatcher.Subscribe(events.EventTicketStatusChanged, invalidate)
	dispatcher.Subscribe(events.EventTicketAssigneesChanged, invalidate)
	dispatcher.Subscribe(events.EventTicketSafetyImpactChanged, invalidate)
}
