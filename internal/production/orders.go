package production

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"erp-backend/internal/apperror"
	"erp-backend/internal/authz"
	"erp-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 10
	maxPageSize     = 100

	conflictMessage = "this production order was modified by someone else, refresh and retry"
)

type ItemInput struct {
	ProductSKU  string
	ProductName string
	Spec        string
	Color       string
	Qty         decimal.Decimal
	Unit        string
	Note        string
}

type OrderInput struct {
	// OrderNo is only read on create; blank means generate one.
	OrderNo       string
	CustomerName  string
	PlannerUserID *uint
	// StatusID 0 keeps the current status on update and picks the default
	// status on create.
	StatusID      uint
	ScheduledDate *time.Time
	DueDate       *time.Time
	Note          string
	Items         []ItemInput
}

// Orders is the production order aggregate. Every header write is a
// conditional update on (id, version); a stale version is a Conflict and
// is never retried here.
type Orders struct {
	db       *gorm.DB
	statuses *Statuses
	loc      *time.Location
	now      func() time.Time
	suffix   func() int
}

func NewOrders(db *gorm.DB, statuses *Statuses, loc *time.Location) *Orders {
	if loc == nil {
		loc = time.UTC
	}
	return &Orders{
		db:       db,
		statuses: statuses,
		loc:      loc,
		now:      time.Now,
		suffix:   func() int { return 100 + rand.Intn(900) },
	}
}

// OrderNo formats PO + YYYYMMDDHHMMSS in the configured zone + a three
// digit suffix.
func (o *Orders) OrderNo() string {
	return o.orderNo(o.now())
}

func (o *Orders) orderNo(at time.Time) string {
	return fmt.Sprintf("PO%s%03d", at.In(o.loc).Format("20060102150405"), o.suffix())
}

func (o *Orders) Create(ctx context.Context, actor authz.Actor, in OrderInput) (*models.ProductionOrder, error) {
	if err := authz.Require(actor, authz.CreateOrder, actor.UserID); err != nil {
		return nil, err
	}
	in.normalize()
	if err := o.checkPlanner(ctx, in.PlannerUserID); err != nil {
		return nil, err
	}

	statusID, err := o.createStatus(ctx, in.StatusID)
	if err != nil {
		return nil, err
	}

	now := o.now()
	orderNo := in.OrderNo
	if orderNo == "" {
		orderNo = o.orderNo(now)
	}
	var taken int64
	if err := o.db.WithContext(ctx).Model(&models.ProductionOrder{}).Where("order_no = ?", orderNo).Count(&taken).Error; err != nil {
		return nil, apperror.Store(err)
	}
	if taken > 0 {
		return nil, apperror.Conflict("order number " + orderNo + " is already taken, retry")
	}

	order := models.ProductionOrder{
		OrderNo:       orderNo,
		CustomerName:  in.CustomerName,
		SalesUserID:   actor.UserID,
		PlannerUserID: in.PlannerUserID,
		StatusID:      statusID,
		ScheduledDate: in.ScheduledDate,
		DueDate:       in.DueDate,
		Note:          in.Note,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("order number " + orderNo + " is already taken, retry")
			}
			return apperror.Store(err)
		}
		return insertItems(tx, order.ID, in.Items)
	})
	if err != nil {
		return nil, apperror.Store(err)
	}
	return o.load(ctx, order.ID)
}

// createStatus keeps a valid requested status and otherwise falls back to
// the default one.
func (o *Orders) createStatus(ctx context.Context, requested uint) (uint, error) {
	ok, err := o.statuses.Exists(ctx, requested)
	if err != nil {
		return 0, err
	}
	if ok {
		return requested, nil
	}
	def, err := o.statuses.Default(ctx)
	if err != nil {
		return 0, err
	}
	return def.ID, nil
}

func (o *Orders) Get(ctx context.Context, actor authz.Actor, id uint) (*models.ProductionOrder, error) {
	order, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(actor, authz.ViewOrder, order.SalesUserID); err != nil {
		return nil, err
	}
	return order, nil
}

type OrderFilter struct {
	Query    string
	StatusID uint
	DateFrom *time.Time
	DateTo   *time.Time // inclusive day
	Page     int
	PageSize int
}

// List returns one page of orders, most recently updated first. Sales only
// ever see their own orders.
func (o *Orders) List(ctx context.Context, actor authz.Actor, f OrderFilter) ([]models.ProductionOrder, int64, error) {
	if err := authz.Require(actor, authz.ViewOrder, actor.UserID); err != nil {
		return nil, 0, err
	}

	q := o.db.WithContext(ctx).Model(&models.ProductionOrder{})
	if actor.Role == models.RoleSales {
		q = q.Where("sales_user_id = ?", actor.UserID)
	}
	if kw := strings.TrimSpace(f.Query); kw != "" {
		like := "%" + kw + "%"
		q = q.Where("order_no LIKE ? OR customer_name LIKE ? OR note LIKE ?", like, like, like)
	}
	if f.StatusID > 0 {
		q = q.Where("status_id = ?", f.StatusID)
	}
	if f.DateFrom != nil {
		q = q.Where("created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("created_at < ?", f.DateTo.AddDate(0, 0, 1))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperror.Store(err)
	}

	size := f.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page := f.Page
	if page < 1 {
		page = 1
	}

	var list []models.ProductionOrder
	err := q.Preload("Status").
		Order("updated_at DESC, id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&list).Error
	if err != nil {
		return nil, 0, apperror.Store(err)
	}
	return list, total, nil
}

// Update rewrites the header and replaces every item in one transaction.
// Item ids are not stable across saves.
func (o *Orders) Update(ctx context.Context, actor authz.Actor, id uint, expectedVersion int, in OrderInput) (before, after *models.ProductionOrder, err error) {
	before, err = o.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err = authz.Require(actor, authz.EditOrder, before.SalesUserID); err != nil {
		return nil, nil, err
	}
	in.normalize()
	if err = o.checkPlanner(ctx, in.PlannerUserID); err != nil {
		return nil, nil, err
	}
	if in.StatusID != 0 {
		if err = o.requireStatus(ctx, in.StatusID); err != nil {
			return nil, nil, err
		}
	}

	fields := map[string]interface{}{
		"customer_name":   in.CustomerName,
		"planner_user_id": in.PlannerUserID,
		"scheduled_date":  in.ScheduledDate,
		"due_date":        in.DueDate,
		"note":            in.Note,
	}
	if in.StatusID != 0 {
		fields["status_id"] = in.StatusID
	}

	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := o.bumpVersion(tx, id, expectedVersion, fields); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.ProductionOrderItem{}).Error; err != nil {
			return apperror.Store(err)
		}
		return insertItems(tx, id, in.Items)
	})
	if err != nil {
		return nil, nil, apperror.Store(err)
	}

	after, err = o.load(ctx, id)
	return before, after, err
}

// UpdateStatus changes only the status, under the same version check as
// a full update.
func (o *Orders) UpdateStatus(ctx context.Context, actor authz.Actor, id uint, expectedVersion int, statusID uint) (before, after *models.ProductionOrder, err error) {
	before, err = o.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err = authz.Require(actor, authz.EditOrder, before.SalesUserID); err != nil {
		return nil, nil, err
	}
	if err = o.requireStatus(ctx, statusID); err != nil {
		return nil, nil, err
	}

	err = o.bumpVersion(o.db.WithContext(ctx), id, expectedVersion, map[string]interface{}{"status_id": statusID})
	if err != nil {
		return nil, nil, err
	}

	after, err = o.load(ctx, id)
	return before, after, err
}

func (o *Orders) bumpVersion(db *gorm.DB, id uint, expectedVersion int, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")
	fields["updated_at"] = o.now()

	res := db.Model(&models.ProductionOrder{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(fields)
	if res.Error != nil {
		return apperror.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.Conflict(conflictMessage)
	}
	return nil
}

func (o *Orders) requireStatus(ctx context.Context, statusID uint) error {
	ok, err := o.statuses.Exists(ctx, statusID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Validation("status does not exist")
	}
	return nil
}

func (o *Orders) checkPlanner(ctx context.Context, plannerID *uint) error {
	if plannerID == nil {
		return nil
	}
	var n int64
	if err := o.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", *plannerID).Count(&n).Error; err != nil {
		return apperror.Store(err)
	}
	if n == 0 {
		return apperror.Validation("planner does not exist")
	}
	return nil
}

func (o *Orders) load(ctx context.Context, id uint) (*models.ProductionOrder, error) {
	var order models.ProductionOrder
	err := o.db.WithContext(ctx).
		Preload("Status").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("production order not found")
	}
	if err != nil {
		return nil, apperror.Store(err)
	}
	return &order, nil
}

func (in *OrderInput) normalize() {
	in.OrderNo = strings.TrimSpace(in.OrderNo)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Note = strings.TrimSpace(in.Note)
	if in.PlannerUserID != nil && *in.PlannerUserID == 0 {
		in.PlannerUserID = nil
	}

	var items []ItemInput
	for _, it := range in.Items {
		it.ProductSKU = strings.TrimSpace(it.ProductSKU)
		it.ProductName = strings.TrimSpace(it.ProductName)
		if it.ProductSKU == "" && it.ProductName == "" {
			continue
		}
		it.Unit = strings.TrimSpace(it.Unit)
		if it.Unit == "" {
			it.Unit = "pcs"
		}
		it.Spec = strings.TrimSpace(it.Spec)
		it.Color = strings.TrimSpace(it.Color)
		it.Note = strings.TrimSpace(it.Note)
		items = append(items, it)
	}
	in.Items = items
}

func insertItems(tx *gorm.DB, orderID uint, in []ItemInput) error {
	if len(in) == 0 {
		return nil
	}
	items := make([]models.ProductionOrderItem, 0, len(in))
	for _, it := range in {
		items = append(items, models.ProductionOrderItem{
			OrderID:     orderID,
			ProductSKU:  it.ProductSKU,
			ProductName: it.ProductName,
			Spec:        it.Spec,
			Color:       it.Color,
			Qty:         it.Qty,
			Unit:        it.Unit,
			Note:        it.Note,
		})
	}
	if err := tx.Create(&items).Error; err != nil {
		return apperror.Store(err)
	}
	return nil
}
