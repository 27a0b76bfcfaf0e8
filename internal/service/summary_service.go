package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/vuln-remediation/internal/aggregate"
	"github.com/spec-kit/vuln-remediation/internal/domain"
	"github.com/spec-kit/vuln-remediation/internal/repository"
	apperrors "github.com/spec-kit/vuln-remediation/pkg/util/errorutil"
)

// SummaryService builds per-package status summaries for a team.
type SummaryService struct {
	tickets repository.TicketRepository
	teams   repository.TeamRepository
	cache   repository.SummaryCache
	bar     aggregate.BarConfig
	logger  *zap.Logger
}

// SummaryDependencies bundles collaborators for summary service.
type SummaryDependencies struct {
	TicketRepo repository.TicketRepository
	TeamRepo   repository.TeamRepository
	// Cache is optional.
	Cache     repository.SummaryCache
	BarConfig aggregate.BarConfig
	Logger    *zap.Logger
}

// PackageSummaries is a team's package rollup together with the threshold it was
// highlighted against.
type PackageSummaries struct {
	PTeamID   string
	ServiceID *string
	Threshold domain.SSVCPriority
	Groups    []aggregate.GroupSummary
}

// NewSummaryService constructs the service.
func NewSummaryService(deps SummaryDependencies) *SummaryService {
	s := &SummaryService{
		tickets: deps.TicketRepo,
		teams:   deps.TeamRepo,
		cache:   deps.Cache,
		bar:     deps.BarConfig,
		logger:  deps.Logger,
	}
	if s.bar.Displayed == nil {
		s.bar = aggregate.DefaultBarConfig()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// PackageSummaries groups a team's tickets by package, or by package within one
// service when serviceID is set.
func (s *SummaryService) PackageSummaries(ctx context.Context, pteamID string, serviceID *string) (*PackageSummaries, error) {
	if _, err := uuid.Parse(pteamID); err != nil {
		return nil, apperrors.NewValidationError("invalid pteam id", map[string]any{"pteam_id": pteamID})
	}
	if serviceID != nil {
		if _, err := uuid.Parse(*serviceID); err != nil {
			return nil, apperrors.NewValidationError("invalid service id", map[string]any{"service_id": *serviceID})
		}
	}

	team, err := s.teams.GetByID(ctx, pteamID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("pteam", map[string]any{"pteam_id": pteamID})
	}
	if err != nil {
		return nil, err
	}
	result := &PackageSummaries{PTeamID: team.ID, ServiceID: serviceID, Threshold: team.AlertThreshold()}

	scope := summaryScope(serviceID)
	if s.cache != nil {
		groups, ok, err := s.cache.Get(ctx, pteamID, scope)
		if err != nil {
			s.logger.Warn("summary cache read failed", zap.String("pteam_id", pteamID), zap.Error(err))
		} else if ok {
			result.Groups = highlightAgainst(groups, result.Threshold)
			return result, nil
		}
	}

	tickets, err := s.tickets.List(ctx, repository.TicketFilter{PTeamID: pteamID, ServiceID: serviceID})
	if err != nil {
		return nil, err
	}
	key := aggregate.ByPackage
	if serviceID != nil {
		key = aggregate.ByServicePackage
	}
	result.Groups = aggregate.Summarize(tickets, key, result.Threshold, s.bar)

	if s.cache != nil {
		if err := s.cache.Set(ctx, pteamID, scope, result.Groups); err != nil {
			s.logger.Warn("summary cache write failed", zap.String("pteam_id", pteamID), zap.Error(err))
		}
	}
	return result, nil
}

// Invalidate drops cached summaries of a team.
func (s *SummaryService) Invalidate(ctx context.Context, pteamID string) error {
	if s.cache == nil || pteamID == "" {
		return nil
	}
	return s.cache.InvalidatePTeam(ctx, pteamID)
}

// highlightAgainst re-derives each group's highlight from the team's current threshold.
// Cached groups only carry threshold-independent data that is safe to reuse.
func highlightAgainst(groups []aggregate.GroupSummary, threshold domain.SSVCPriority) []aggregate.GroupSummary {
	out := make([]aggregate.GroupSummary, len(groups))
	for i, g := range groups {
		g.Highlight = aggregate.ShouldHighlight(g.WorstPriority, threshold)
		out[i] = g
	}
	return out
}

func summaryScope(serviceID *string) string {
	if serviceID == nil {
		return "all"
	}
	return "service:" + *serviceID
}
