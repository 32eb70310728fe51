package auth

import (
	"errors"
	"strings"

	"erp-backend/internal/apperror"
	"erp-backend/internal/config"
	"erp-backend/internal/models"
	"erp-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type SetupBossRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	DisplayName string `json:"display_name" validate:"max=100"`
	Password    string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateMeRequest struct {
	Username        *string `json:"username" validate:"omitempty,min=3,max=64"`
	DisplayName     *string `json:"display_name" validate:"omitempty,max=100"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password" validate:"omitempty,min=8"`
}

type UserResponse struct {
	ID          uint            `json:"id"`
	Username    string          `json:"username"`
	DisplayName string          `json:"display_name"`
	Role        models.UserRole `json:"role"`
	Enabled     bool            `json:"enabled"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Enabled:     u.Enabled,
	}
}

// POST /api/auth/setup-boss creates the first boss account. It is refused
// once any boss exists.
func SetupBossHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SetupBossRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		body.Username = strings.TrimSpace(body.Username)

		var count int64
		if err := db.Model(&models.User{}).Where("role = ?", models.RoleBoss).Count(&count).Error; err != nil {
			return apperror.Store(err)
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "a boss account already exists")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
		}

		displayName := strings.TrimSpace(body.DisplayName)
		if displayName == "" {
			displayName = body.Username
		}
		user := models.User{
			Username:     body.Username,
			DisplayName:  displayName,
			PasswordHash: string(hash),
			Role:         models.RoleBoss,
			Enabled:      true,
		}
		if err := db.Create(&user).Error; err != nil {
			return apperror.Store(err)
		}

		return c.Status(fiber.StatusCreated).JSON(NewUserResponse(&user))
	}
}

func LoginHandler(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		var user models.User
		if err := db.Where("username = ?", strings.TrimSpace(body.Username)).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong username or password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong username or password")
		}
		if !user.Enabled {
			return fiber.NewError(fiber.StatusUnauthorized, "account is disabled")
		}

		token, err := GenerateToken(cfg.JWTSecret, cfg.TokenTTL, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  NewUserResponse(&user),
		})
	}
}

func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user models.User
		if err := db.First(&user, ActorFrom(c).UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return c.JSON(NewUserResponse(&user))
	}
}

// PUT /api/auth/me lets a user rename themself or change their password.
// A password change requires the current password.
func UpdateMeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateMeRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		var user models.User
		if err := db.First(&user, ActorFrom(c).UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}

		if body.Username != nil {
			name := strings.TrimSpace(*body.Username)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "username cannot be empty")
			}
			if name != user.Username {
				err := db.Where("username = ? AND id <> ?", name, user.ID).First(&models.User{}).Error
				if err == nil {
					return fiber.NewError(fiber.StatusConflict, "username is already taken")
				}
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.Store(err)
				}
				user.Username = name
			}
		}
		if body.DisplayName != nil {
			user.DisplayName = strings.TrimSpace(*body.DisplayName)
		}
		if body.NewPassword != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.CurrentPassword)); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "current password is wrong")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
			}
			user.PasswordHash = string(hash)
		}

		if err := db.Save(&user).Error; err != nil {
			return apperror.Store(err)
		}
		return c.JSON(NewUserResponse(&user))
	}
}
