package admin

import (
	"errors"
	"strings"

	"erp-backend/internal/apperror"
	"erp-backend/internal/audit"
	"erp-backend/internal/auth"
	"erp-backend/internal/models"
	"erp-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	DisplayName string `json:"display_name" validate:"max=100"`
	Role        string `json:"role" validate:"required"`
	Password    string `json:"password" validate:"required,min=8"`
}

type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// GET /api/admin/users
func ListUsersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := db.WithContext(c.UserContext()).Order("id ASC").Find(&users).Error; err != nil {
			return apperror.Store(err)
		}

		res := make([]auth.UserResponse, 0, len(users))
		for i := range users {
			res = append(res, auth.NewUserResponse(&users[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/admin/users
func CreateUserHandler(db *gorm.DB, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		role := models.ParseRole(body.Role)
		if !role.Valid() {
			return apperror.Validation("role must be one of boss, op, sales")
		}
		username := strings.TrimSpace(body.Username)

		err := db.WithContext(c.UserContext()).Where("username = ?", username).First(&models.User{}).Error
		if err == nil {
			return apperror.Conflict("username is already taken")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Store(err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
		}

		displayName := strings.TrimSpace(body.DisplayName)
		if displayName == "" {
			displayName = username
		}
		user := models.User{
			Username:     username,
			DisplayName:  displayName,
			Role:         role,
			PasswordHash: string(hash),
			Enabled:      true,
		}
		if err := db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
			return apperror.Store(err)
		}

		resp := auth.NewUserResponse(&user)
		w.Write(c.UserContext(), audit.LogOptions{
			Actor:       auth.ActorFrom(c),
			UserName:    auth.UserNameFrom(c),
			EntityType:  audit.EntityUser,
			EntityID:    user.ID,
			Action:      models.AuditActionCreate,
			Description: "user created: " + user.Username,
			After:       resp,
		})
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/admin/users/:id/enabled
func SetUserEnabledHandler(db *gorm.DB, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body SetEnabledRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		actor := auth.ActorFrom(c)
		if id == actor.UserID && !*body.Enabled {
			return apperror.Validation("you cannot disable your own account")
		}

		user, err := findUser(c, db, id)
		if err != nil {
			return err
		}
		before := auth.NewUserResponse(&user)

		// Update with a column name so false is not skipped as a zero value.
		if err := db.WithContext(c.UserContext()).Model(&user).Update("enabled", *body.Enabled).Error; err != nil {
			return apperror.Store(err)
		}
		user.Enabled = *body.Enabled

		after := auth.NewUserResponse(&user)
		w.Write(c.UserContext(), audit.LogOptions{
			Actor:       actor,
			UserName:    auth.UserNameFrom(c),
			EntityType:  audit.EntityUser,
			EntityID:    user.ID,
			Action:      models.AuditActionUpdate,
			Description: "user enabled flag changed: " + user.Username,
			Before:      before,
			After:       after,
		})
		return c.JSON(after)
	}
}

// PUT /api/admin/users/:id/password
func ResetPasswordHandler(db *gorm.DB, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body ResetPasswordRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		user, err := findUser(c, db, id)
		if err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
		}
		if err := db.WithContext(c.UserContext()).Model(&user).Update("password_hash", string(hash)).Error; err != nil {
			return apperror.Store(err)
		}

		w.Write(c.UserContext(), audit.LogOptions{
			Actor:       auth.ActorFrom(c),
			UserName:    auth.UserNameFrom(c),
			EntityType:  audit.EntityUser,
			EntityID:    user.ID,
			Action:      models.AuditActionUpdate,
			Description: "password reset: " + user.Username,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func findUser(c *fiber.Ctx, db *gorm.DB, id uint) (models.User, error) {
	var user models.User
	if err := db.WithContext(c.UserContext()).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, apperror.NotFound("user not found")
		}
		return user, apperror.Store(err)
	}
	return user, nil
}
