package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/vuln-remediation/internal/api/dto"
	"github.com/spec-kit/vuln-remediation/internal/service"
)

// SummaryOperations builds package summaries.
type SummaryOperations interface {
	PackageSummaries(ctx context.Context, pteamID string, serviceID *string) (*service.PackageSummaries, error)
}

// SummaryHandler serves team package summaries.
type SummaryHandler struct {
	summaries SummaryOperations
}

// NewSummaryHandler constructs handler.
func NewSummaryHandler(summaries SummaryOperations) *SummaryHandler {
	return &SummaryHandler{summaries: summaries}
}

// PackageSummary GET /pteams/:pteamID/summary/packages.
func (h *SummaryHandler) PackageSummary(c *fiber.Ctx) error {
	var serviceID *string
	if sid := c.Query("service_id"); sid != "" {
		serviceID = &sid
	}
	res, err := h.summaries.PackageSummaries(c.UserContext(), c.Params("pteamID"), serviceID)
	if err != nil {
		return err
	}
	packages := make([]dto.PackageGroupResponse, 0, len(res.Groups))
	for _, g := range res.Groups {
		packages = append(packages, dto.NewPackageGroupResponse(g))
	}
	return c.JSON(fiber.Map{"data": dto.PackageSummaryResponse{
		PTeamID:           res.PTeamID,
		ServiceID:         res.ServiceID,
		AlertSSVCPriority: res.Threshold,
		Packages:          packages,
	}})
}
