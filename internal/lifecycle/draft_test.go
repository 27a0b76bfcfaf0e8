package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/vuln-remediation/internal/domain"
)

func TestDraftDoesNotTouchTicket(t *testing.T) {
	ticket := domain.Ticket{ID: "t-1", Status: domain.TicketStatus{HandlingStatus: domain.HandlingStatusAcknowledged}}
	draft := NewDraft(ticket, domain.HandlingStatusScheduled)
	draft.Schedule(fixedNow.Add(24 * time.Hour))

	plan, err := draft.Plan(newTestMachine())
	require.NoError(t, err)
	assert.Equal(t, domain.HandlingStatusScheduled, plan.To)
	assert.Equal(t, domain.HandlingStatusAcknowledged, ticket.Status.HandlingStatus)
	assert.Nil(t, ticket.Status.ScheduledAt)

	assert.Equal(t, domain.HandlingStatusScheduled, draft.Target())

	again := NewDraft(ticket, domain.HandlingStatusAcknowledged)
	plan, err = again.Plan(newTestMachine())
	require.NoError(t, err)
	assert.True(t, plan.Noop)
}

func TestDraftActionSelection(t *testing.T) {
	ticket := domain.Ticket{ID: "t-1"}
	draft := NewDraft(ticket, domain.HandlingStatusCompleted)
	a, b := "a", "b"

	draft.Select(ActionSelection{ActionID: &a, Action: "first"})
	draft.Select(ActionSelection{ActionID: &b, Action: "second"})
	draft.Select(ActionSelection{ActionID: &a, Action: "first, edited"})
	draft.Select(ActionSelection{Action: "Update x to 2"})
	draft.SetNote("evidence")

	req := draft.Request()
	require.Len(t, req.Actions, 3)
	assert.Equal(t, "first, edited", req.Actions[0].Action)
	assert.Equal(t, "evidence", *req.Note)

	draft.Deselect(ActionSelection{ActionID: &b})
	draft.Deselect(ActionSelection{Action: "Update x to 2"})
	draft.SetNote("")
	req = draft.Request()
	require.Len(t, req.Actions, 1)
	assert.Nil(t, req.Note)

	// a snapshot taken earlier is unaffected by later edits
	snapshot := draft.Request()
	draft.Deselect(ActionSelection{ActionID: &a})
	assert.Len(t, snapshot.Actions, 1)

	_, err := draft.Plan(newTestMachine())
	assert.ErrorIs(t, err, ErrNoCompletionActions)
}
