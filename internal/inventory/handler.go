package inventory

import (
	"time"

	"erp-backend/internal/audit"
	"erp-backend/internal/auth"
	"erp-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

func record(c *fiber.Ctx, w *audit.Writer, entity string, id uint, action models.AuditAction, desc string, before, after any) {
	w.Write(c.UserContext(), audit.LogOptions{
		Actor:       auth.ActorFrom(c),
		UserName:    auth.UserNameFrom(c),
		EntityType:  entity,
		EntityID:    id,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

// endOfDay makes a date filter inclusive of the whole day.
func endOfDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	e := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return &e
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
