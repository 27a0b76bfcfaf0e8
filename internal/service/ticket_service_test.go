package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/vuln-remediation/internal/domain"
	"github.com/spec-kit/vuln-remediation/internal/events"
	"github.com/spec-kit/vuln-remediation/internal/lifecycle"
	"github.com/spec-kit/vuln-remediation/internal/observability"
	apperrors "github.com/spec-kit/vuln-remediation/pkg/util/errorutil"
)

const (
	ticketID  = "0b5e7c52-3c1a-4c3e-9a55-6f0c2f6c9d01"
	pteamID   = "7d9f0b1e-52b4-4f55-8f2e-0f7d7c9a1a10"
	serviceID = "4a1c2b3d-1111-4b22-8c33-9d44e55f6a77"
	vulnID    = "c3d4e5f6-2222-4a33-9b44-0c55d66e7f88"
	actionID  = "e1f2a3b4-3333-4c44-8d55-1e66f77a8b99"
	actorID   = "user-1"
)

var now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type ticketFixture struct {
	svc        *TicketService
	tickets    *fakeTicketRepo
	logs       *fakeActionLogRepo
	catalog    *fakeVulnActionRepo
	dispatcher events.Dispatcher
	published  []events.Event
}

func newTicketFixture(t *testing.T, ticket domain.Ticket) *ticketFixture {
	t.Helper()
	f := &ticketFixture{
		tickets:    newFakeTicketRepo(ticket),
		logs:       &fakeActionLogRepo{},
		catalog:    &fakeVulnActionRepo{actions: []domain.VulnAction{{ID: actionID, VulnID: vulnID, Action: "Disable the vulnerable module", ActionType: domain.ActionTypeMitigation}}},
		dispatcher: events.NewInMemoryDispatcher(),
	}
	record := func(_ context.Context, e events.Event) error {
		f.published = append(f.published, e)
		return nil
	}
	f.dispatcher.Subscribe(events.EventTicketStatusChanged, record)
	f.dispatcher.Subscribe(events.EventActionLogged, record)
	f.dispatcher.Subscribe(events.EventTicketAssigneesChanged, record)
	f.dispatcher.Subscribe(events.EventTicketSafetyImpactChanged, record)

	clock := func() time.Time { return now }
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo:     f.tickets,
		ActionLogRepo:  f.logs,
		VulnActionRepo: f.catalog,
		Machine:        lifecycle.NewMachine(lifecycle.WithClock(clock)),
		Dispatcher:     f.dispatcher,
		Metrics:        observability.NewMetrics(),
		Now:            clock,
	})
	return f
}

func baseTicket(status domain.HandlingStatus) domain.Ticket {
	fixed := "3.0.8"
	priority := domain.PriorityOutOfCycle
	return domain.Ticket{
		ID:                   ticketID,
		PTeamID:              pteamID,
		ServiceID:            serviceID,
		PackageID:            "pkg-openssl",
		PackageName:          "openssl",
		PackageVersion:       "3.0.1",
		FixedVersion:         &fixed,
		VulnID:               vulnID,
		SSVCDeployerPriority: &priority,
		Status:               domain.TicketStatus{HandlingStatus: status},
	}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	return de.Code
}

func TestTransitionAcknowledge(t *testing.T) {
	ticket := baseTicket(domain.HandlingStatusScheduled)
	at := now.Add(time.Hour)
	ticket.Status.ScheduledAt = &at
	f := newTicketFixture(t, ticket)

	res, err := f.svc.Transition(context.Background(), actorID, ticketID, lifecycle.TransitionRequest{Target: domain.HandlingStatusAcknowledged})
	require.NoError(t, err)
	assert.False(t, res.Noop)
	assert.Equal(t, domain.HandlingStatusAcknowledged, res.Ticket.Status.HandlingStatus)
	assert.Nil(t, res.Ticket.Status.ScheduledAt)
	assert.Equal(t, 1, f.tickets.writes)
	assert.Zero(t, f.catalog.calls)

	require.Len(t, f.published, 1)
	payload := f.published[0].Payload.(events.TicketStatusChangedPayload)
	assert.Equal(t, domain.HandlingStatusScheduled, payload.OldStatus)
	assert.Equal(t, domain.HandlingStatusAcknowledged, payload.NewStatus)
	assert.Equal(t, pteamID, f.published[0].PTeamID)
}

func TestTransitionScheduleWithoutDateNeverWrites(t *testing.T) {
	f := newTicketFixture(t, baseTicket(domain.HandlingStatusAlerted))

	_, err := f.svc.Transition(context.Background(), actorID, ticketID, lifecycle.TransitionRequest{Target: domain.HandlingStatusScheduled})
	require.Error(t, err)
	assert.ErrorIs(t, err, lifecycle.ErrScheduleRequired)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
	assert.Zero(t, f.tickets.writes)
	assert.Empty(t, f.published)
	assert.Equal(t, domain.HandlingStatusAlerted, f.tickets.tickets[ticketID].Status.HandlingStatus)

	past := now.Add(-time.Hour)
	_, err = f.svc.Transition(context.Background(), actorID, ticketID, lifecycle.TransitionRequest{Target: domain.HandlingStatusScheduled, ScheduledAt: &past})
	assert.ErrorIs(t, err, lifecycle.ErrScheduleInPast)
	assert.Zero(t, f.tickets.writes)
}

func TestTransitionMixedCaseTargetIsValidated(t *testing.T) {
	f := newTicketFixture(t, baseTicket(domain.HandlingStatusAlerted))

	_, err := f.svc.Transition(context.Background(), actorID, ticketID, lifecycle.TransitionRequest{Target: "Completed"})
	assert.ErrorIs(t, err, lifecycle.ErrNoCompletionActions)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = f.svc.Transition(context.Background(), actorID, ticketID, lifecycle.TransitionRequest{Target: "SCHEDULED"})
	assert.ErrorIs(t, err, lifecycle.ErrScheduleRequired)

	assert.Zero(t, f.tickets.writes)
	assert.Empty(t, f.logs.created)
	assert.Empty(t, f.published)
}

func TestTransitionSchedule(t *testing.T) {
	f := newTicketFixture(t, baseTicket(domain.HandlingStatusAcknowledged))
	at := now.Add(72 * time.Hour)

	res, err := f.svc.Transition(context.Background(), actorID, ticketID, lifecycle.TransitionRequest{Target: domain.HandlingStatusScheduled, ScheduledAt: &at})
	require.NoError(t, err)
	require.NotNil(t, res.Ticket.Status.ScheduledAt)
	assert.True(t, res.Ticket.Status.ScheduledAt.Equal(at))
}

func TestTransitionComplete(t *testing.T) {
	ticket := baseTicket(domain.HandlingStatusScheduled)
	at := now.Add(time.Hour)
	ticket.Status.ScheduledAt = &at
	f := newTicketFixture(t, ticket)
	id := actionID
	note := "deployed 3.0.8 to production"

	res, err := f.svc.Transition(context.Background(), actorID, ticketID, lifecycle.TransitionRequest{
		Target:  domain.HandlingStatusCompleted,
		Actions: []lifecycle.ActionSelection{{ActionID: &id}, {}},
		Note:    &note,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"log-1", "log-2"}, res.LoggingIDs)
	assert.Equal(t, domain.HandlingStatusCompleted, res.Ticket.Status.HandlingStatus)
	assert.GreaterOrEqual(t, len(res.Ticket.Status.LoggingIDs), 1)
	assert.Nil(t, res.Ticket.Status.ScheduledAt)
	assert.Equal(t, note, *res.Ticket.Status.Note)

	require.Len(t, f.logs.created, 2)
	assert.Equal(t, "Disable the vulnerable module", f.logs.created[0].Action)
	assert.Nil(t, f.logs.created[1].ActionID)
	assert.Equal(t, "Update openssl from version 3.0.1 to version 3.0.8", f.logs.created[1].Action)
	for _, l := range f.logs.created {
		assert.Equal(t, actorID, l.UserID)
		assert.Equal(t, serviceID, l.ServiceID)
		assert.Equal(t, now, l.ExecutedAt)
	}

	var types []events.EventType
	for _, e := range f.published {
		types = append(types, e.Type)
	}
	assert.Equal(t, []events.EventType{events.EventActionLogged, events.EventActionLogged, events.EventTicketStatusChanged}, types)
}

func TestTransitionCompleteValidation(t *testing.T) {
	f := newTicketFixture(t, baseTicket(domain.HandlingStatusAcknowledged))

	_, err := f.svc.Transition(context.Background(), actorID, ticketID, lifecycle.TransitionRequest{Target: domain.HandlingStatusCompleted})
	assert.ErrorIs(t, err, lifecycle.ErrNoCompletionActions)
	assert.Zero(t, f.catalog.calls)

	unknown := "9a9a9a9a-0000-4000-8000-000000000000"
	_, err = f.svc.Transition(context.Background(), actorID, ticketID, lifecycle.TransitionRequest{
		Target:  domain.HandlingStatusCompleted,
		Actions: []lifecycle.ActionSelection{{ActionID: &unknown}},
	})
	assert.ErrorIs(t, err, lifecycle.ErrUnknownAction)
	assert.Empty(t, f.logs.created)
	assert.Zero(t, f.tickets.writes)
}

func TestTransitionToCurrentStatusIsNoop(t *testing.T) {
	f := newTicketFixture(t, baseTicket(domain.HandlingStatusCompleted))
	id := actionID

	res, err := f.svc.Transition(context.Background(), actorID, ticketID, lifecycle.TransitionRequest{
		Target:  domain.HandlingStatusCompleted,
		Actions: []lifecycle.ActionSelection{{ActionID: &id}},
	})
	require.NoError(t, err)
	assert.True(t, res.Noop)
	assert.Zero(t, f.tickets.writes)
	assert.Empty(t, f.logs.created)
	assert.Empty(t, f.published)
}

func TestTransitionPartialCompletionRequiresRefetch(t *testing.T) {
	f := newTicketFixture(t, baseTicket(domain.HandlingStatusAlerted))
	f.logs.failAfter = 1
	id := actionID

	_, err := f.svc.Transition(context.Background(), actorID, ticketID, lifecycle.TransitionRequest{
		Target:  domain.HandlingStatusCompleted,
		Actions: []lifecycle.ActionSelection{{ActionID: &id}, {}},
	})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "REMOTE_WRITE_FAILED", de.Code)
	assert.Equal(t, true, de.Details["refetch"])
	assert.Equal(t, "503 Service Unavailable: action log store offline", de.Details["detail"])
	assert.Zero(t, f.tickets.writes)
	assert.Equal(t, domain.HandlingStatusAlerted, f.tickets.tickets[ticketID].Status.HandlingStatus)
}

func TestTransitionStatusWriteFailure(t *testing.T) {
	f := newTicketFixture(t, baseTicket(domain.HandlingStatusAlerted))
	f.tickets.statusErr = errors.New("connection reset")
	id := actionID

	_, err := f.svc.Transition(context.Background(), actorID, ticketID, lifecycle.TransitionRequest{
		Target:  domain.HandlingStatusCompleted,
		Actions: []lifecycle.ActionSelection{{ActionID: &id}},
	})
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, "REMOTE_WRITE_FAILED", de.Code)
	assert.Equal(t, true, de.Details["refetch"])
	assert.Equal(t, []string{"log-1"}, de.Details["logging_ids"])
	assert.Equal(t, domain.HandlingStatusAlerted, f.tickets.tickets[ticketID].Status.HandlingStatus)

	_, err = f.svc.Transition(context.Background(), actorID, ticketID, lifecycle.TransitionRequest{Target: domain.HandlingStatusAcknowledged})
	de = apperrors.ToDomainError(err)
	assert.Equal(t, false, de.Details["refetch"])
}

func TestTransitionFallsBackWhenReReadFails(t *testing.T) {
	f := newTicketFixture(t, baseTicket(domain.HandlingStatusAlerted))
	f.tickets.getErrAfter = 1

	res, err := f.svc.Transition(context.Background(), actorID, ticketID, lifecycle.TransitionRequest{Target: domain.HandlingStatusAcknowledged})
	require.NoError(t, err)
	assert.Equal(t, domain.HandlingStatusAcknowledged, res.Ticket.Status.HandlingStatus)
}

func TestTransitionUnknownTicket(t *testing.T) {
	f := newTicketFixture(t, baseTicket(domain.HandlingStatusAlerted))

	_, err := f.svc.Transition(context.Background(), actorID, "2f2f2f2f-0000-4000-8000-000000000000", lifecycle.TransitionRequest{Target: domain.HandlingStatusAcknowledged})
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))

	_, err = f.svc.Transition(context.Background(), actorID, "not-a-uuid", lifecycle.TransitionRequest{Target: domain.HandlingStatusAcknowledged})
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}

func TestUpdateAssignees(t *testing.T) {
	f := newTicketFixture(t, baseTicket(domain.HandlingStatusAlerted))

	updated, err := f.svc.UpdateAssignees(context.Background(), actorID, ticketID, []string{"zoe", "adam"})
	require.NoError(t, err)
	assert.Equal(t, []string{"adam", "zoe"}, updated.Status.Assignees)
	assert.Equal(t, 1, f.tickets.writes)

	_, err = f.svc.UpdateAssignees(context.Background(), actorID, ticketID, []string{"adam", "zoe"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.tickets.writes, "unchanged set is not written")

	_, err = f.svc.UpdateAssignees(context.Background(), actorID, ticketID, []string{"adam", "adam"})
	assert.ErrorIs(t, err, lifecycle.ErrDuplicateAssignee)
	assert.Equal(t, 1, f.tickets.writes)
}

func TestUpdateSafetyImpact(t *testing.T) {
	f := newTicketFixture(t, baseTicket(domain.HandlingStatusAlerted))
	impact := domain.SafetyImpactCritical
	reason := "controls physical actuators"

	_, err := f.svc.UpdateSafetyImpact(context.Background(), actorID, ticketID, &impact, nil)
	assert.ErrorIs(t, err, lifecycle.ErrSafetyImpactReasonRequired)
	assert.Zero(t, f.tickets.writes)

	updated, err := f.svc.UpdateSafetyImpact(context.Background(), actorID, ticketID, &impact, &reason)
	require.NoError(t, err)
	assert.Equal(t, domain.SafetyImpactCritical, *updated.SafetyImpact)
	assert.Equal(t, reason, *updated.SafetyImpactChangeReason)

	_, err = f.svc.UpdateSafetyImpact(context.Background(), actorID, ticketID, &impact, &reason)
	require.NoError(t, err)
	assert.Equal(t, 1, f.tickets.writes)

	reverted, err := f.svc.UpdateSafetyImpact(context.Background(), actorID, ticketID, nil, &reason)
	require.NoError(t, err)
	assert.Nil(t, reverted.SafetyImpact)
	assert.Nil(t, reverted.SafetyImpactChangeReason)
	assert.Equal(t, 2, f.tickets.writes)
}

func TestCompletionActionsAndLogs(t *testing.T) {
	f := newTicketFixture(t, baseTicket(domain.HandlingStatusAlerted))

	actions, err := f.svc.CompletionActions(context.Background(), ticketID)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Nil(t, actions[0].ActionID)
	assert.Equal(t, actionID, *actions[1].ActionID)

	logs, err := f.svc.ActionLogs(context.Background(), ticketID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
