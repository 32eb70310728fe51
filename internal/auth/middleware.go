package auth

import (
	"strings"

	"erp-backend/internal/authz"
	"erp-backend/internal/config"
	"erp-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	CtxActorKey    = "actor"
	CtxUserNameKey = "user_name"
)

// JWTMiddleware resolves the bearer token to an Actor. The user row is
// re-read on every request so disabling a user or changing their role
// takes effect before the token expires.
func JWTMiddleware(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		if !user.Enabled {
			return fiber.NewError(fiber.StatusUnauthorized, "account is disabled")
		}

		SetActor(c, authz.NewActor(user.ID, string(user.Role)), user.DisplayName)
		return c.Next()
	}
}

// SetActor stores the authenticated actor for downstream handlers.
func SetActor(c *fiber.Ctx, actor authz.Actor, userName string) {
	c.Locals(CtxActorKey, actor)
	c.Locals(CtxUserNameKey, userName)
}

// ActorFrom returns the zero Actor when no middleware ran; authz denies it.
func ActorFrom(c *fiber.Ctx) authz.Actor {
	a, _ := c.Locals(CtxActorKey).(authz.Actor)
	return a
}

func UserNameFrom(c *fiber.Ctx) string {
	n, _ := c.Locals(CtxUserNameKey).(string)
	return n
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		if actor.UserID == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
		}

		for _, r := range allowedRoles {
			if r == actor.Role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "you are not allowed to perform this action")
	}
}

// RequireAction gates a route with the roles that may perform action.
// Ownership is still checked by the service.
func RequireAction(action authz.Action) fiber.Handler {
	return RequireRole(authz.RolesFor(action)...)
}
