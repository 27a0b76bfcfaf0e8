package auth

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/vuln-remediation/pkg/util/errorutil"
)

// MemberOf reports whether the principal belongs to the team.
func (p *Principal) MemberOf(pteamID string) bool {
	return p != nil && slices.Contains(p.PTeams, pteamID)
}

// RequirePTeamMember ensures the caller belongs to the team named by the route param.
func RequirePTeamMember(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.MemberOf(c.Params(param)) {
			return apperrors.NewForbidden("not a member of this team")
		}
		return c.Next()
	}
}
