package production

import (
	"erp-backend/internal/audit"
	"erp-backend/internal/auth"
	"erp-backend/internal/models"
	"erp-backend/internal/request"

	"github.com/gofiber/fiber/v2"
)

type StatusRequest struct {
	Name      string `json:"name" validate:"required,max=64"`
	KeyName   string `json:"key_name" validate:"required,max=64"`
	SortOrder int    `json:"sort_order"`
	IsFinal   bool   `json:"is_final"`
}

func (r StatusRequest) input() StatusInput {
	return StatusInput{Name: r.Name, KeyName: r.KeyName, SortOrder: r.SortOrder, IsFinal: r.IsFinal}
}

// GET /api/production/statuses
func ListStatusesHandler(s *Statuses) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := s.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// POST /api/production/statuses
func CreateStatusHandler(s *Statuses, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body StatusRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		st, err := s.Create(c.UserContext(), auth.ActorFrom(c), body.input())
		if err != nil {
			return err
		}
		record(c, w, audit.EntityStatus, st.ID, models.AuditActionCreate, "status created: "+st.KeyName, nil, st)
		return c.Status(fiber.StatusCreated).JSON(st)
	}
}

// PUT /api/production/statuses/:id
func UpdateStatusHandler(s *Statuses, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body StatusRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		before, after, err := s.Update(c.UserContext(), auth.ActorFrom(c), id, body.input())
		if err != nil {
			return err
		}
		record(c, w, audit.EntityStatus, id, models.AuditActionUpdate, "status updated: "+after.KeyName, before, after)
		return c.JSON(after)
	}
}

// DELETE /api/production/statuses/:id
func DeleteStatusHandler(s *Statuses, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		st, err := s.Delete(c.UserContext(), auth.ActorFrom(c), id)
		if err != nil {
			return err
		}
		record(c, w, audit.EntityStatus, id, models.AuditActionDelete, "status deleted: "+st.KeyName, st, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
