package inventory

import (
	"strings"
	"time"

	"erp-backend/internal/apperror"
	"erp-backend/internal/audit"
	"erp-backend/internal/auth"
	"erp-backend/internal/models"
	"erp-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateReservationRequest struct {
	ProductID    uint            `json:"product_id" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	Customer     string          `json:"customer" validate:"max=100"`
	ExpectedDate string          `json:"expected_date"`
	Note         string          `json:"note" validate:"max=255"`
}

type UpdateReservationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending fulfilled cancelled"`
}

type ReservationResponse struct {
	ID           uint                     `json:"id"`
	ProductID    uint                     `json:"product_id"`
	ProductName  string                   `json:"product_name"`
	Quantity     string                   `json:"quantity"`
	Customer     *string                  `json:"customer"`
	ExpectedDate *string                  `json:"expected_date"`
	Status       models.ReservationStatus `json:"status"`
	Note         string                   `json:"note"`
	CreatedAt    string                   `json:"created_at"`
}

// POST /api/reservations
func CreateReservationHandler(r *Reservations, w *audit.Writer, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateReservationRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		if !body.Quantity.IsPositive() {
			return apperror.Validation("quantity must be greater than zero")
		}
		expected, err := request.ParseDate(body.ExpectedDate, loc)
		if err != nil {
			return err
		}

		var customer *string
		if s := strings.TrimSpace(body.Customer); s != "" {
			customer = &s
		}

		id, err := r.Create(c.UserContext(), auth.ActorFrom(c), NewReservation{
			ProductID:    body.ProductID,
			Quantity:     body.Quantity,
			Customer:     customer,
			ExpectedDate: expected,
			Note:         body.Note,
		})
		if err != nil {
			return err
		}

		record(c, w, audit.EntityReservation, id, models.AuditActionCreate,
			"reservation created: "+FormatQty(body.Quantity), nil, body)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	}
}

// PUT /api/reservations/:id/status
func UpdateReservationStatusHandler(r *Reservations, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateReservationStatusRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		status := models.ReservationStatus(body.Status)
		before, err := r.SetStatus(c.UserContext(), auth.ActorFrom(c), id, status)
		if err != nil {
			return err
		}

		record(c, w, audit.EntityReservation, id, models.AuditActionUpdate,
			"reservation status: "+string(before.Status)+" -> "+body.Status,
			fiber.Map{"status": before.Status}, fiber.Map{"status": status})
		return c.JSON(fiber.Map{"id": id, "status": status})
	}
}

// GET /api/reservations?product_id=&status=
func ListReservationsHandler(r *Reservations, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := request.QueryUint(c, "product_id")
		if err != nil {
			return err
		}

		list, err := r.List(c.UserContext(), auth.ActorFrom(c), ReservationFilter{
			ProductID: productID,
			Status:    models.ReservationStatus(c.Query("status")),
		})
		if err != nil {
			return err
		}

		res := make([]ReservationResponse, 0, len(list))
		for _, rv := range list {
			res = append(res, ReservationResponse{
				ID:           rv.ID,
				ProductID:    rv.ProductID,
				ProductName:  rv.Product.Name,
				Quantity:     FormatQty(rv.Quantity),
				Customer:     rv.Customer,
				ExpectedDate: formatDate(rv.ExpectedDate),
				Status:       rv.Status,
				Note:         rv.Note,
				CreatedAt:    rv.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}
