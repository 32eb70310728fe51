package inventory

import (
	"erp-backend/internal/audit"
	"erp-backend/internal/auth"
	"erp-backend/internal/models"
	"erp-backend/internal/request"

	"github.com/gofiber/fiber/v2"
)

type CategoryRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	SortOrder int    `json:"sort_order"`
}

type SubcategoryRequest struct {
	CategoryID uint   `json:"category_id"`
	Name       string `json:"name" validate:"required,max=100"`
	SortOrder  int    `json:"sort_order"`
}

// GET /api/categories
func ListCategoriesHandler(s *Categories) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tree, err := s.Tree(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(tree)
	}
}

// POST /api/categories
func CreateCategoryHandler(s *Categories, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CategoryRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		cat, err := s.CreateCategory(c.UserContext(), auth.ActorFrom(c), body.Name, body.SortOrder)
		if err != nil {
			return err
		}
		record(c, w, audit.EntityCategory, cat.ID, models.AuditActionCreate, "category created: "+cat.Name, nil, cat)
		return c.Status(fiber.StatusCreated).JSON(cat)
	}
}

// PUT /api/categories/:id
func UpdateCategoryHandler(s *Categories, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body CategoryRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		cat, err := s.UpdateCategory(c.UserContext(), auth.ActorFrom(c), id, body.Name, body.SortOrder)
		if err != nil {
			return err
		}
		record(c, w, audit.EntityCategory, id, models.AuditActionUpdate, "category updated: "+cat.Name, nil, cat)
		return c.JSON(cat)
	}
}

// DELETE /api/categories/:id
func DeleteCategoryHandler(s *Categories, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := s.DeleteCategory(c.UserContext(), auth.ActorFrom(c), id); err != nil {
			return err
		}
		record(c, w, audit.EntityCategory, id, models.AuditActionDelete, "category deleted", nil, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/subcategories
func CreateSubcategoryHandler(s *Categories, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SubcategoryRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		sc, err := s.CreateSubcategory(c.UserContext(), auth.ActorFrom(c), body.CategoryID, body.Name, body.SortOrder)
		if err != nil {
			return err
		}
		record(c, w, audit.EntitySubcategory, sc.ID, models.AuditActionCreate, "subcategory created: "+sc.Name, nil, sc)
		return c.Status(fiber.StatusCreated).JSON(sc)
	}
}

// PUT /api/subcategories/:id
func UpdateSubcategoryHandler(s *Categories, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body SubcategoryRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		sc, err := s.UpdateSubcategory(c.UserContext(), auth.ActorFrom(c), id, body.Name, body.SortOrder)
		if err != nil {
			return err
		}
		record(c, w, audit.EntitySubcategory, id, models.AuditActionUpdate, "subcategory updated: "+sc.Name, nil, sc)
		return c.JSON(sc)
	}
}

// DELETE /api/subcategories/:id
func DeleteSubcategoryHandler(s *Categories, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := s.DeleteSubcategory(c.UserContext(), auth.ActorFrom(c), id); err != nil {
			return err
		}
		record(c, w, audit.EntitySubcategory, id, models.AuditActionDelete, "subcategory deleted", nil, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
