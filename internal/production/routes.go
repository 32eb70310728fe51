package production

import (
	"time"

	"erp-backend/internal/audit"
	"erp-backend/internal/auth"
	"erp-backend/internal/authz"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Services struct {
	Statuses *Statuses
	Orders   *Orders
	Audit    *audit.Writer
	Location *time.Location
}

func NewServices(db *gorm.DB, w *audit.Writer, loc *time.Location) Services {
	statuses := NewStatuses(db)
	return Services{
		Statuses: statuses,
		Orders:   NewOrders(db, statuses, loc),
		Audit:    w,
		Location: loc,
	}
}

// RegisterRoutes mounts /production on an authenticated router. Ownership
// of individual orders is enforced by Orders itself.
func RegisterRoutes(r fiber.Router, s Services) {
	g := r.Group("/production", auth.RequireAction(authz.ViewOrder))

	g.Get("/statuses", ListStatusesHandler(s.Statuses))
	g.Post("/statuses", CreateStatusHandler(s.Statuses, s.Audit))
	g.Put("/statuses/:id", UpdateStatusHandler(s.Statuses, s.Audit))
	g.Delete("/statuses/:id", DeleteStatusHandler(s.Statuses, s.Audit))

	g.Get("/orders", ListOrdersHandler(s.Orders, s.Location))
	g.Post("/orders", CreateOrderHandler(s.Orders, s.Audit, s.Location))
	g.Get("/orders/:id", GetOrderHandler(s.Orders, s.Location))
	g.Put("/orders/:id", UpdateOrderHandler(s.Orders, s.Audit, s.Location))
	g.Put("/orders/:id/status", UpdateOrderStatusHandler(s.Orders, s.Audit, s.Location))
}
