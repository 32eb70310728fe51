package inventory

import (
	"erp-backend/internal/auth"
	"erp-backend/internal/request"

	"github.com/gofiber/fiber/v2"
)

type AvailabilityRow struct {
	ProductID   uint         `json:"product_id"`
	ProductName string       `json:"product_name"`
	SKU         *string      `json:"sku"`
	Category    string       `json:"category"`
	Unit        string       `json:"unit"`
	Availability
	Formatted  Display `json:"display"`
	IsOversold bool    `json:"oversold"`
}

// GET /api/inventory/availability?product_id=1,2&category_id=&subcategory_id=&q=
//
// Without product_id every product matching the filters is returned.
func AvailabilityHandler(products *Products, calc *Calculator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids, err := request.QueryUints(c, "product_id")
		if err != nil {
			return err
		}
		categoryID, err := request.QueryUint(c, "category_id")
		if err != nil {
			return err
		}
		subcategoryID, err := request.QueryUint(c, "subcategory_id")
		if err != nil {
			return err
		}

		list, err := products.List(c.UserContext(), ProductFilter{
			ProductIDs:    ids,
			CategoryID:    categoryID,
			SubcategoryID: subcategoryID,
			Query:         c.Query("q"),
		})
		if err != nil {
			return err
		}

		found := make([]uint, 0, len(list))
		for _, p := range list {
			found = append(found, p.ID)
		}
		result, err := calc.Compute(c.UserContext(), auth.ActorFrom(c), found)
		if err != nil {
			return err
		}

		rows := make([]AvailabilityRow, 0, len(list))
		for _, p := range list {
			a := result.Get(p.ID)
			rows = append(rows, AvailabilityRow{
				ProductID:    p.ID,
				ProductName:  p.Name,
				SKU:          p.SKU,
				Category:     p.Category.Name,
				Unit:         p.Unit,
				Availability: a,
				Formatted:    a.Display(),
				IsOversold:   a.Oversold(),
			})
		}

		return c.JSON(fiber.Map{
			"source": result.Source,
			"items":  rows,
		})
	}
}
