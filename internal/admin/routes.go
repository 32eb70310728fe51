package admin

import (
	"erp-backend/internal/audit"
	"erp-backend/internal/auth"
	"erp-backend/internal/authz"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RegisterRoutes mounts /users on r. Only the boss manages accounts.
func RegisterRoutes(r fiber.Router, db *gorm.DB, w *audit.Writer) {
	users := r.Group("/users", auth.RequireAction(authz.ManageUsers))
	users.Get("", ListUsersHandler(db))
	users.Post("", CreateUserHandler(db, w))
	users.Put("/:id/enabled", SetUserEnabledHandler(db, w))
	users.Put("/:id/password", ResetPasswordHandler(db, w))
}
