package inventory

import (
	"time"

	"erp-backend/internal/audit"
	"erp-backend/internal/auth"
	"erp-backend/internal/models"
	"erp-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	Name          string              `json:"name" validate:"required,max=200"`
	SKU           *string             `json:"sku" validate:"omitempty,max=100"`
	CategoryID    uint                `json:"category_id" validate:"required"`
	SubcategoryID *uint               `json:"subcategory_id"`
	Unit          string              `json:"unit" validate:"max=20"`
	Price         decimal.Decimal     `json:"price"`
	Color         string              `json:"color" validate:"max=64"`
	Spec          string              `json:"spec" validate:"max=255"`
	Weight        decimal.NullDecimal `json:"weight"`
	Brand         string              `json:"brand" validate:"max=100"`
	Supplier      string              `json:"supplier" validate:"max=100"`
	ProductDate   string              `json:"product_date"`
	Note          string              `json:"note" validate:"max=500"`
}

func (r ProductRequest) fields(loc *time.Location) (ProductFields, error) {
	date, err := request.ParseDate(r.ProductDate, loc)
	if err != nil {
		return ProductFields{}, err
	}
	return ProductFields{
		Name:          r.Name,
		SKU:           r.SKU,
		CategoryID:    r.CategoryID,
		SubcategoryID: r.SubcategoryID,
		Unit:          r.Unit,
		Price:         r.Price,
		Color:         r.Color,
		Spec:          r.Spec,
		Weight:        r.Weight,
		Brand:         r.Brand,
		Supplier:      r.Supplier,
		ProductDate:   date,
		Note:          r.Note,
	}, nil
}

type CreateProductRequest struct {
	ProductRequest
	InitStock    decimal.Decimal `json:"init_stock"`
	InitReserved decimal.Decimal `json:"init_reserved"`
}

type UpdateProductRequest struct {
	ProductRequest
	StockQty    *decimal.Decimal `json:"stock_qty"`
	ReservedQty *decimal.Decimal `json:"reserved_qty"`
}

type ProductResponse struct {
	models.Product
	CategoryName string  `json:"category_name"`
	ProductDate  *string `json:"product_date"`
}

func newProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		Product:      *p,
		CategoryName: p.Category.Name,
		ProductDate:  formatDate(p.ProductDate),
	}
}

// GET /api/products?category_id=&subcategory_id=&q=
func ListProductsHandler(s *Products) fiber.Handler {
	return func(c *fiber.Ctx) error {
		categoryID, err := request.QueryUint(c, "category_id")
		if err != nil {
			return err
		}
		subcategoryID, err := request.QueryUint(c, "subcategory_id")
		if err != nil {
			return err
		}

		list, err := s.List(c.UserContext(), ProductFilter{
			CategoryID:    categoryID,
			SubcategoryID: subcategoryID,
			Query:         c.Query("q"),
		})
		if err != nil {
			return err
		}

		res := make([]ProductResponse, 0, len(list))
		for i := range list {
			res = append(res, newProductResponse(&list[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/products/:id
func GetProductHandler(s *Products) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		p, err := s.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(newProductResponse(p))
	}
}

// POST /api/products
func CreateProductHandler(s *Products, w *audit.Writer, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		fields, err := body.fields(loc)
		if err != nil {
			return err
		}

		p, err := s.Create(c.UserContext(), auth.ActorFrom(c), NewProduct{
			ProductFields: fields,
			InitStock:     body.InitStock,
			InitReserved:  body.InitReserved,
		})
		if err != nil {
			return err
		}

		record(c, w, audit.EntityProduct, p.ID, models.AuditActionCreate, "product created: "+p.Name, nil, p)
		if full, err := s.Get(c.UserContext(), p.ID); err == nil {
			p = full
		}
		return c.Status(fiber.StatusCreated).JSON(newProductResponse(p))
	}
}

// PUT /api/products/:id
//
// stock_qty and reserved_qty are targets. The service writes the
// difference as new ledger and reservation rows.
func UpdateProductHandler(s *Products, w *audit.Writer, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateProductRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		fields, err := body.fields(loc)
		if err != nil {
			return err
		}

		before, after, err := s.Update(c.UserContext(), auth.ActorFrom(c), id, ProductUpdate{
			ProductFields:  fields,
			TargetStock:    body.StockQty,
			TargetReserved: body.ReservedQty,
		})
		if err != nil {
			return err
		}

		record(c, w, audit.EntityProduct, id, models.AuditActionUpdate, "product updated: "+after.Name, before, after)
		if full, err := s.Get(c.UserContext(), id); err == nil {
			after = *full
		}
		return c.JSON(newProductResponse(&after))
	}
}

// DELETE /api/products/:id removes the product with its movements and
// reservations.
func DeleteProductHandler(s *Products, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		p, err := s.Delete(c.UserContext(), auth.ActorFrom(c), id)
		if err != nil {
			return err
		}

		record(c, w, audit.EntityProduct, id, models.AuditActionDelete, "product deleted: "+p.Name, p, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
