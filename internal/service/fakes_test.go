package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/vuln-remediation/internal/aggregate"
	"github.com/spec-kit/vuln-remediation/internal/domain"
	"github.com/spec-kit/vuln-remediation/internal/lifecycle"
	"github.com/spec-kit/vuln-remediation/internal/repository"
)

type fakeTicketRepo struct {
	tickets      map[string]domain.Ticket
	writes       int
	statusErr    error
	getErrAfter  int
	gets         int
	listFilter   repository.TicketFilter
	listCalls    int
	lastPatch    *lifecycle.StatusPatch
	lastSafety   *lifecycle.SafetyImpactPatch
	lastAssignee []string
}

func newFakeTicketRepo(tickets ...domain.Ticket) *fakeTicketRepo {
	r := &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
	for _, t := range tickets {
		r.tickets[t.ID] = t
	}
	return r
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.gets++
	if r.getErrAfter > 0 && r.gets > r.getErrAfter {
		return nil, errors.New("read failed")
	}
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.listCalls++
	r.listFilter = filter
	var result []domain.Ticket
	for _, t := range r.tickets {
		if t.PTeamID != filter.PTeamID {
			continue
		}
		if filter.ServiceID != nil && t.ServiceID != *filter.ServiceID {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, id string, patch lifecycle.StatusPatch) error {
	if r.statusErr != nil {
		return r.statusErr
	}
	r.writes++
	r.lastPatch = &patch
	t := r.tickets[id]
	t.Status = lifecycle.ApplyPatch(t.Status, patch)
	r.tickets[id] = t
	return nil
}

func (r *fakeTicketRepo) UpdateAssignees(_ context.Context, id string, assignees []string) error {
	r.writes++
	r.lastAssignee = assignees
	t := r.tickets[id]
	t.Status.Assignees = assignees
	r.tickets[id] = t
	return nil
}

func (r *fakeTicketRepo) UpdateSafetyImpact(_ context.Context, id string, patch lifecycle.SafetyImpactPatch) error {
	r.writes++
	r.lastSafety = &patch
	t := r.tickets[id]
	t.SafetyImpact = patch.SafetyImpact
	t.SafetyImpactChangeReason = patch.ChangeReason
	r.tickets[id] = t
	return nil
}

type fakeActionLogRepo struct {
	created   []domain.ActionLog
	failAfter int
}

func (r *fakeActionLogRepo) Create(_ context.Context, log *domain.ActionLog) error {
	if r.failAfter > 0 && len(r.created) >= r.failAfter {
		return errors.New("503 Service Unavailable: action log store offline")
	}
	log.ID = fmt.Sprintf("log-%d", len(r.created)+1)
	r.created = append(r.created, *log)
	return nil
}

func (r *fakeActionLogRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.ActionLog, error) {
	var result []domain.ActionLog
	for _, l := range r.created {
		if l.TicketID == ticketID {
			result = append(result, l)
		}
	}
	return result, nil
}

type fakeVulnActionRepo struct {
	actions []domain.VulnAction
	calls   int
}

func (r *fakeVulnActionRepo) ListByVuln(_ context.Context, vulnID string) ([]domain.VulnAction, error) {
	r.calls++
	var result []domain.VulnAction
	for _, a := range r.actions {
		if a.VulnID == vulnID {
			result = append(result, a)
		}
	}
	return result, nil
}

type fakeTeamRepo struct {
	teams map[string]domain.PTeam
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id string) (*domain.PTeam, error) {
	t, ok := r.teams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

type fakeSummaryCache struct {
	entries     map[string][]aggregate.GroupSummary
	invalidated []string
}

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{entries: make(map[string][]aggregate.GroupSummary)}
}

func (c *fakeSummaryCache) Get(_ context.Context, pteamID, scope string) ([]aggregate.GroupSummary, bool, error) {
	s, ok := c.entries[pteamID+"|"+scope]
	return s, ok, nil
}

func (c *fakeSummaryCache) Set(_ context.Context, pteamID, scope string, summaries []aggregate.GroupSummary) error {
	c.entries[pteamID+"|"+scope] = summaries
	return nil
}

func (c *fakeSummaryCache) InvalidatePTeam(_ context.Context, pteamID string) error {
	c.invalidated = append(c.invalidated, pteamID)
	for k := range c.entries {
		if len(k) > len(pteamID) && k[:len(pteamID)] == pteamID {
			delete(c.entries, k)
		}
	}
	return nil
}
