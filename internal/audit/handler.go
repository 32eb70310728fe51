package audit

import (
	"erp-backend/internal/apperror"
	"erp-backend/internal/models"
	"erp-backend/internal/request"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"before_data"`
	AfterData   string             `json:"after_data"`
}

// GET /api/audit-logs?entity_type=production_order&entity_id=1&user_id=2
func ListAuditLogsHandler(w *Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entityID, err := request.QueryUint(c, "entity_id")
		if err != nil {
			return err
		}
		userID, err := request.QueryUint(c, "user_id")
		if err != nil {
			return err
		}

		logs, total, err := w.List(c.UserContext(), Filter{
			EntityType: c.Query("entity_type"),
			EntityID:   entityID,
			UserID:     userID,
			Limit:      c.QueryInt("limit", 100),
			Offset:     c.QueryInt("offset", 0),
		})
		if err != nil {
			return apperror.Store(err)
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				UserID:      l.UserID,
				UserName:    l.UserName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
				BeforeData:  l.BeforeData,
				AfterData:   l.AfterData,
			})
		}

		return c.JSON(fiber.Map{"items": resp, "total": total})
	}
}
