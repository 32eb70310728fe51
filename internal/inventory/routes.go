package inventory

import (
	"time"

	"erp-backend/internal/audit"
	"erp-backend/internal/auth"
	"erp-backend/internal/authz"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Services struct {
	Ledger       *Ledger
	Reservations *Reservations
	Calculator   *Calculator
	Products     *Products
	Categories   *Categories
	Audit        *audit.Writer
	Location     *time.Location
}

func NewServices(db *gorm.DB, log *logrus.Logger, w *audit.Writer, loc *time.Location) Services {
	return Services{
		Ledger:       NewLedger(db),
		Reservations: NewReservations(db),
		Calculator:   NewCalculator(db, log),
		Products:     NewProducts(db),
		Categories:   NewCategories(db),
		Audit:        w,
		Location:     loc,
	}
}

// RegisterRoutes mounts the inventory API on an authenticated router.
func RegisterRoutes(r fiber.Router, s Services) {
	view := auth.RequireAction(authz.ViewInventory)
	manage := auth.RequireAction(authz.ManageInventory)
	categories := auth.RequireAction(authz.ManageCategories)

	r.Get("/inventory/availability", view, AvailabilityHandler(s.Products, s.Calculator))
	r.Get("/inventory/movements", manage, ListMovementsHandler(s.Ledger, s.Location))
	r.Post("/inventory/movements", manage, CreateMovementHandler(s.Ledger, s.Audit))

	r.Get("/reservations", manage, ListReservationsHandler(s.Reservations, s.Location))
	r.Post("/reservations", manage, CreateReservationHandler(s.Reservations, s.Audit, s.Location))
	r.Put("/reservations/:id/status", manage, UpdateReservationStatusHandler(s.Reservations, s.Audit))

	r.Get("/products", view, ListProductsHandler(s.Products))
	r.Get("/products/:id", view, GetProductHandler(s.Products))
	r.Post("/products", manage, CreateProductHandler(s.Products, s.Audit, s.Location))
	r.Put("/products/:id", manage, UpdateProductHandler(s.Products, s.Audit, s.Location))
	r.Delete("/products/:id", manage, DeleteProductHandler(s.Products, s.Audit))

	r.Get("/categories", view, ListCategoriesHandler(s.Categories))
	r.Post("/categories", categories, CreateCategoryHandler(s.Categories, s.Audit))
	r.Put("/categories/:id", categories, UpdateCategoryHandler(s.Categories, s.Audit))
	r.Delete("/categories/:id", categories, DeleteCategoryHandler(s.Categories, s.Audit))
	r.Post("/subcategories", categories, CreateSubcategoryHandler(s.Categories, s.Audit))
	r.Put("/subcategories/:id", categories, UpdateSubcategoryHandler(s.Categories, s.Audit))
	r.Delete("/subcategories/:id", categories, DeleteSubcategoryHandler(s.Categories, s.Audit))
}
