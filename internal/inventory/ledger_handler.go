package inventory

import (
	"time"

	"erp-backend/internal/apperror"
	"erp-backend/internal/audit"
	"erp-backend/internal/auth"
	"erp-backend/internal/models"
	"erp-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateMovementRequest struct {
	ProductID uint            `json:"product_id" validate:"required"`
	MoveType  string          `json:"move_type" validate:"required,oneof=in out adjust"`
	Quantity  decimal.Decimal `json:"quantity"`
	Note      string          `json:"note" validate:"max=255"`
}

type MovementResponse struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	MoveType    models.MoveType `json:"move_type"`
	Quantity    string          `json:"quantity"`
	Note        string          `json:"note"`
	CreatedAt   string          `json:"created_at"`
}

// POST /api/inventory/movements
func CreateMovementHandler(l *Ledger, w *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMovementRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		if body.Quantity.IsZero() {
			return apperror.Validation("quantity must not be zero")
		}

		moveType := models.MoveType(body.MoveType)
		id, err := l.AppendMovement(c.UserContext(), auth.ActorFrom(c), body.ProductID, moveType, body.Quantity, body.Note)
		if err != nil {
			return err
		}

		record(c, w, audit.EntityMovement, id, models.AuditActionCreate,
			"inventory movement: "+body.MoveType+" "+FormatQty(body.Quantity), nil, body)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	}
}

// GET /api/inventory/movements?product_id=&category_id=&move_type=&from=&to=
func ListMovementsHandler(l *Ledger, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := request.QueryUint(c, "product_id")
		if err != nil {
			return err
		}
		categoryID, err := request.QueryUint(c, "category_id")
		if err != nil {
			return err
		}
		from, err := request.QueryDate(c, "from", loc)
		if err != nil {
			return err
		}
		to, err := request.QueryDate(c, "to", loc)
		if err != nil {
			return err
		}

		moves, total, err := l.ListMovements(c.UserContext(), auth.ActorFrom(c), MovementFilter{
			ProductID:  productID,
			CategoryID: categoryID,
			MoveType:   models.MoveType(c.Query("move_type")),
			From:       from,
			To:         endOfDay(to),
			Limit:      c.QueryInt("limit", 100),
			Offset:     c.QueryInt("offset", 0),
		})
		if err != nil {
			return err
		}

		res := make([]MovementResponse, 0, len(moves))
		for _, m := range moves {
			res = append(res, MovementResponse{
				ID:          m.ID,
				ProductID:   m.ProductID,
				ProductName: m.Product.Name,
				MoveType:    m.MoveType,
				Quantity:    FormatQty(m.Quantity),
				Note:        m.Note,
				CreatedAt:   m.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(fiber.Map{"items": res, "total": total})
	}
}
