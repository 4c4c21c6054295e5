package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// RequireActive rejects blocked accounts before any mutating operation.
// Login already refuses blocked users, but a live token can outlast a block.
func RequireActive() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if actor.Blocked() {
			return apperrors.NewForbidden("account is blocked")
		}
		return c.Next()
	}
}

// RequireAdmin ensures the actor holds admin or globaladmin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !actor.Role.IsAdmin() {
			return apperrors.NewForbidden("admin only")
		}
		return c.Next()
	}
}

// RequireGlobalAdmin ensures the actor is a global admin.
func RequireGlobalAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if actor.Role != domain.RoleGlobalAdmin {
			return apperrors.NewForbidden("global admin only")
		}
		return c.Next()
	}
}
