package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/vuln-remediation/internal/aggregate"
	"github.com/spec-kit/vuln-remediation/internal/domain"
)

func summaryTickets() []domain.Ticket {
	immediate := domain.PriorityImmediate
	deferred := domain.PriorityDefer

	a := baseTicket(domain.HandlingStatusAlerted)
	a.ID = "aaaaaaaa-0000-4000-8000-000000000001"
	a.SSVCDeployerPriority = &immediate

	b := baseTicket(domain.HandlingStatusCompleted)
	b.ID = "aaaaaaaa-0000-4000-8000-000000000002"
	b.PackageID, b.PackageName = "pkg-zlib", "zlib"
	b.SSVCDeployerPriority = &deferred

	c := baseTicket(domain.HandlingStatusAcknowledged)
	c.ID = "aaaaaaaa-0000-4000-8000-000000000003"
	c.ServiceID = "5b5b5b5b-0000-4000-8000-000000000000"

	other := baseTicket(domain.HandlingStatusAlerted)
	other.ID = "aaaaaaaa-0000-4000-8000-000000000004"
	other.PTeamID = "6c6c6c6c-0000-4000-8000-000000000000"
	return []domain.Ticket{a, b, c, other}
}

func newSummaryFixture(cache *fakeSummaryCache) (*SummaryService, *fakeTicketRepo) {
	repo := newFakeTicketRepo(summaryTickets()...)
	teams := &fakeTeamRepo{teams: map[string]domain.PTeam{
		pteamID: {ID: pteamID, Name: "platform", AlertSSVCPriority: domain.PriorityOutOfCycle},
	}}
	deps := SummaryDependencies{TicketRepo: repo, TeamRepo: teams}
	if cache != nil {
		deps.Cache = cache
	}
	return NewSummaryService(deps), repo
}

func TestPackageSummaries(t *testing.T) {
	svc, _ := newSummaryFixture(nil)

	res, err := svc.PackageSummaries(context.Background(), pteamID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityOutOfCycle, res.Threshold)
	require.Len(t, res.Groups, 2)

	openssl := res.Groups[0]
	assert.Equal(t, "openssl", openssl.Key.PackageName)
	assert.Equal(t, aggregate.StatusCount{Alerted: 1, Acknowledged: 1}, openssl.Counts)
	assert.Equal(t, domain.PriorityImmediate, openssl.WorstPriority)
	assert.True(t, openssl.Highlight)

	zlib := res.Groups[1]
	assert.Equal(t, "zlib", zlib.Key.PackageName)
	assert.Equal(t, domain.PrioritySafe, zlib.DisplayPriority)
	assert.False(t, zlib.Highlight)
}

func TestPackageSummariesForService(t *testing.T) {
	svc, repo := newSummaryFixture(nil)
	sid := serviceID

	res, err := svc.PackageSummaries(context.Background(), pteamID, &sid)
	require.NoError(t, err)
	require.NotNil(t, repo.listFilter.ServiceID)
	assert.Equal(t, serviceID, *repo.listFilter.ServiceID)
	require.Len(t, res.Groups, 2)
	for _, g := range res.Groups {
		assert.Equal(t, serviceID, g.Key.ServiceID)
	}
}

func TestPackageSummariesValidation(t *testing.T) {
	svc, repo := newSummaryFixture(nil)

	_, err := svc.PackageSummaries(context.Background(), "nope", nil)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	bad := "not-a-service"
	_, err = svc.PackageSummaries(context.Background(), pteamID, &bad)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = svc.PackageSummaries(context.Background(), "6c6c6c6c-0000-4000-8000-000000000000", nil)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	assert.Zero(t, repo.listCalls)
}

func TestPackageSummariesCache(t *testing.T) {
	cache := newFakeSummaryCache()
	svc, repo := newSummaryFixture(cache)
	ctx := context.Background()

	first, err := svc.PackageSummaries(ctx, pteamID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
	assert.Contains(t, cache.entries, pteamID+"|all")

	second, err := svc.PackageSummaries(ctx, pteamID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls, "served from cache")
	assert.Equal(t, first.Groups, second.Groups)

	require.NoError(t, svc.Invalidate(ctx, pteamID))
	assert.Equal(t, []string{pteamID}, cache.invalidated)

	_, err = svc.PackageSummaries(ctx, pteamID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestInvalidateWithoutCache(t *testing.T) {
	svc, _ := newSummaryFixture(nil)
	assert.NoError(t, svc.Invalidate(context.Background(), pteamID))
}

func TestCachedSummariesFollowThresholdChanges(t *testing.T) {
	cache := newFakeSummaryCache()
	repo := newFakeTicketRepo(summaryTickets()...)
	teams := &fakeTeamRepo{teams: map[string]domain.PTeam{
		pteamID: {ID: pteamID, AlertSSVCPriority: domain.PriorityImmediate},
	}}
	svc := NewSummaryService(SummaryDependencies{TicketRepo: repo, TeamRepo: teams, Cache: cache})
	ctx := context.Background()

	first, err := svc.PackageSummaries(ctx, pteamID, nil)
	require.NoError(t, err)
	require.NotEmpty(t, first.Groups)
	assert.Equal(t, "openssl", first.Groups[0].Key.PackageName)
	assert.True(t, first.Groups[0].Highlight)

	teams.teams[pteamID] = domain.PTeam{ID: pteamID, AlertSSVCPriority: domain.PriorityDefer}
	second, err := svc.PackageSummaries(ctx, pteamID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls, "served from cache")
	assert.Equal(t, domain.PriorityDefer, second.Threshold)
	for _, g := range second.Groups {
		assert.False(t, g.Highlight, "defer threshold never highlights %s", g.Key.PackageName)
	}
	assert.True(t, cache.entries[pteamID+"|all"][0].Highlight, "cached entry is not mutated")

	teams.teams[pteamID] = domain.PTeam{ID: pteamID, AlertSSVCPriority: domain.PriorityOutOfCycle}
	third, err := svc.PackageSummaries(ctx, pteamID, nil)
	require.NoError(t, err)
	assert.True(t, third.Groups[0].Highlight)
}
