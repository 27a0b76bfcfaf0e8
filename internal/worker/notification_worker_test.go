package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/vuln-remediation/internal/aggregate"
	"github.com/spec-kit/vuln-remediation/internal/events"
	"github.com/spec-kit/vuln-remediation/internal/service"
)

type recordingCache struct {
	invalidated []string
	err         error
}

func (c *recordingCache) Get(context.Context, string, string) ([]aggregate.GroupSummary, bool, error) {
	return nil, false, nil
}

func (c *recordingCache) Set(context.Context, string, string, []aggregate.GroupSummary) error {
	return nil
}

func (c *recordingCache) InvalidatePTeam(_ context.Context, pteamID string) error {
	c.invalidated = append(c.invalidated, pteamID)
	return c.err
}

func TestCacheInvalidationOnTicketEvents(t *testing.T) {
	cache := &recordingCache{}
	summaries := service.NewSummaryService(service.SummaryDependencies{Cache: cache})
	dispatcher := events.NewInMemoryDispatcher()
	StartCacheInvalidation(dispatcher, summaries, zap.NewNop())

	ctx := context.Background()
	for _, typ := range []events.EventType{
		events.EventTicketStatusChanged,
		events.EventTicketAssigneesChanged,
		events.EventTicketSafetyImpactChanged,
		events.EventActionLogged,
	} {
		assert.NoError(t, dispatcher.Publish(ctx, events.Event{Type: typ, PTeamID: "team-1"}))
	}
	assert.Equal(t, []string{"team-1", "team-1", "team-1"}, cache.invalidated)

	cache.err = errors.New("redis down")
	assert.Error(t, dispatcher.Publish(ctx, events.Event{Type: events.EventTicketStatusChanged, PTeamID: "team-1"}))
}

func TestStartWithNilCollaborators(t *testing.T) {
	StartNotificationWorker(nil)
	StartCacheInvalidation(nil, nil, zap.NewNop())
}
