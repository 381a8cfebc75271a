package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/ai-ticket-assistant/internal/domain"
	apperrors "github.com/deskflow/ai-ticket-assistant/pkg/util"
)

// RequireRole ensures the caller holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		session, ok := SessionFromContext(c.UserContext())
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, permitted := allowedSet[session.User.Role]; !permitted {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
