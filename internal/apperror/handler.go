package apperror

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ErrorHandler renders every error as {"error": message}. Server-side
// failures are logged with their full cause, which the client never sees.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		fe := ToFiber(err)
		if fe.Code >= fiber.StatusInternalServerError {
			log.WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).WithError(err).Error("request failed")
		}
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
}
