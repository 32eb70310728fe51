package production

import (
	"strconv"
	"time"

	"erp-backend/internal/audit"
	"erp-backend/internal/auth"
	"erp-backend/internal/models"
	"erp-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ItemRequest struct {
	ProductSKU  string          `json:"product_sku" validate:"max=100"`
	ProductName string          `json:"product_name" validate:"max=200"`
	Spec        string          `json:"spec" validate:"max=255"`
	Color       string          `json:"color" validate:"max=64"`
	Qty         decimal.Decimal `json:"qty"`
	Unit        string          `json:"unit" validate:"max=20"`
	Note        string          `json:"note" validate:"max=255"`
}

type OrderRequest struct {
	OrderNo       string        `json:"order_no" validate:"max=40"`
	CustomerName  string        `json:"customer_name" validate:"max=200"`
	PlannerUserID *uint         `json:"planner_user_id"`
	StatusID      uint          `json:"status_id"`
	ScheduledDate string        `json:"scheduled_date"`
	DueDate       string        `json:"due_date"`
	Note          string        `json:"note" validate:"max=1000"`
	Items         []ItemRequest `json:"items" validate:"dive"`
}

type UpdateOrderRequest struct {
	OrderRequest
	Version int `json:"version" validate:"required,min=1"`
}

type UpdateStatusRequest struct {
	StatusID uint `json:"status_id" validate:"required"`
	Version  int  `json:"version" validate:"required,min=1"`
}

func (r OrderRequest) input(loc *time.Location) (OrderInput, error) {
	scheduled, err := request.ParseDate(r.ScheduledDate, loc)
	if err != nil {
		return OrderInput{}, err
	}
	due, err := request.ParseDate(r.DueDate, loc)
	if err != nil {
		return OrderInput{}, err
	}

	items := make([]ItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, ItemInput{
			ProductSKU:  it.ProductSKU,
			ProductName: it.ProductName,
			Spec:        it.Spec,
			Color:       it.Color,
			Qty:         it.Qty,
			Unit:        it.Unit,
			Note:        it.Note,
		})
	}
	return OrderInput{
		OrderNo:       r.OrderNo,
		CustomerName:  r.CustomerName,
		PlannerUserID: r.PlannerUserID,
		StatusID:      r.StatusID,
		ScheduledDate: scheduled,
		DueDate:       due,
		Note:          r.Note,
		Items:         items,
	}, nil
}

type ItemResponse struct {
	ID          uint   `json:"id"`
	ProductSKU  string `json:"product_sku"`
	ProductName string `json:"product_name"`
	Spec        string `json:"spec"`
	Color       string `json:"color"`
	Qty         string `json:"qty"`
	Unit        string `json:"unit"`
	Note        string `json:"note"`
}

type OrderResponse struct {
	ID            uint           `json:"id"`
	OrderNo       string         `json:"order_no"`
	CustomerName  string         `json:"customer_name"`
	SalesUserID   uint           `json:"sales_user_id"`
	PlannerUserID *uint          `json:"planner_user_id"`
	StatusID      uint           `json:"status_id"`
	StatusName    string         `json:"status_name"`
	StatusKey     string         `json:"status_key"`
	ScheduledDate *string        `json:"scheduled_date"`
	DueDate       *string        `json:"due_date"`
	Note          string         `json:"note"`
	Version       int            `json:"version"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
	Items         []ItemResponse `json:"items,omitempty"`
}

func newOrderResponse(o *models.ProductionOrder, loc *time.Location) OrderResponse {
	res := OrderResponse{
		ID:            o.ID,
		OrderNo:       o.OrderNo,
		CustomerName:  o.CustomerName,
		SalesUserID:   o.SalesUserID,
		PlannerUserID: o.PlannerUserID,
		StatusID:      o.StatusID,
		StatusName:    o.Status.Name,
		StatusKey:     o.Status.KeyName,
		ScheduledDate: formatDate(o.ScheduledDate),
		DueDate:       formatDate(o.DueDate),
		Note:          o.Note,
		Version:       o.Version,
		CreatedAt:     o.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
		UpdatedAt:     o.UpdatedAt.In(loc).Format("2006-01-02 15:04:05"),
	}
	for _, it := range o.Items {
		res.Items = append(res.Items, ItemResponse{
			ID:          it.ID,
			ProductSKU:  it.ProductSKU,
			ProductName: it.ProductName,
			Spec:        it.Spec,
			Color:       it.Color,
			Qty:         it.Qty.Round(3).String(),
			Unit:        it.Unit,
			Note:        it.Note,
		})
	}
	return res
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(request.DateLayout)
	return &s
}

// POST /api/production/orders
func CreateOrderHandler(o *Orders, w *audit.Writer, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OrderRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		in, err := body.input(loc)
		if err != nil {
			return err
		}

		order, err := o.Create(c.UserContext(), auth.ActorFrom(c), in)
		if err != nil {
			return err
		}

		res := newOrderResponse(order, loc)
		record(c, w, audit.EntityProductionOrder, order.ID, models.AuditActionCreate,
			"production order created: "+order.OrderNo, nil, res)
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// GET /api/production/orders?q=&status_id=&date_from=&date_to=&page=
func ListOrdersHandler(o *Orders, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		statusID, err := request.QueryUint(c, "status_id")
		if err != nil {
			return err
		}
		from, err := request.QueryDate(c, "date_from", loc)
		if err != nil {
			return err
		}
		to, err := request.QueryDate(c, "date_to", loc)
		if err != nil {
			return err
		}
		page := c.QueryInt("page", 1)
		size := c.QueryInt("page_size", DefaultPageSize)

		list, total, err := o.List(c.UserContext(), auth.ActorFrom(c), OrderFilter{
			Query:    c.Query("q"),
			StatusID: statusID,
			DateFrom: from,
			DateTo:   to,
			Page:     page,
			PageSize: size,
		})
		if err != nil {
			return err
		}

		items := make([]OrderResponse, 0, len(list))
		for i := range list {
			items = append(items, newOrderResponse(&list[i], loc))
		}
		return c.JSON(fiber.Map{
			"items":     items,
			"total":     total,
			"page":      page,
			"page_size": size,
		})
	}
}

// GET /api/production/orders/:id
func GetOrderHandler(o *Orders, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		order, err := o.Get(c.UserContext(), auth.ActorFrom(c), id)
		if err != nil {
			return err
		}
		return c.JSON(newOrderResponse(order, loc))
	}
}

// PUT /api/production/orders/:id
//
// The body carries the version the client last read. A stale version
// answers 409 and nothing is written.
func UpdateOrderHandler(o *Orders, w *audit.Writer, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateOrderRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		in, err := body.input(loc)
		if err != nil {
			return err
		}

		before, after, err := o.Update(c.UserContext(), auth.ActorFrom(c), id, body.Version, in)
		if err != nil {
			return err
		}

		res := newOrderResponse(after, loc)
		record(c, w, audit.EntityProductionOrder, id, models.AuditActionUpdate,
			"production order updated: "+after.OrderNo+" v"+strconv.Itoa(after.Version),
			newOrderResponse(before, loc), res)
		return c.JSON(res)
	}
}

// PUT /api/production/orders/:id/status
func UpdateOrderStatusHandler(o *Orders, w *audit.Writer, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateStatusRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		before, after, err := o.UpdateStatus(c.UserContext(), auth.ActorFrom(c), id, body.Version, body.StatusID)
		if err != nil {
			return err
		}

		res := newOrderResponse(after, loc)
		record(c, w, audit.EntityProductionOrder, id, models.AuditActionUpdate,
			"production order status: "+before.Status.KeyName+" -> "+after.Status.KeyName,
			fiber.Map{"status_id": before.StatusID, "version": before.Version},
			fiber.Map{"status_id": after.StatusID, "version": after.Version})
		return c.JSON(res)
	}
}

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
