package inventory

import (
	"context"
	"errors"
	"time"

	"erp-backend/internal/apperror"
	"erp-backend/internal/authz"
	"erp-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger is the append-only movement log. It exposes no update or delete:
// corrections are new compensating rows.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// AppendMovement writes one row. A zero quantity is accepted here; callers
// that need a non-zero quantity filter before calling.
func (l *Ledger) AppendMovement(ctx context.Context, actor authz.Actor, productID uint, moveType models.MoveType, quantity decimal.Decimal, note string) (uint, error) {
	if err := authz.Require(actor, authz.ManageInventory, 0); err != nil {
		return 0, err
	}
	return l.appendRow(ctx, productID, moveType, quantity, note)
}

// appendRow is shared with product reconciliation, which has already
// authorized the actor.
func (l *Ledger) appendRow(ctx context.Context, productID uint, moveType models.MoveType, quantity decimal.Decimal, note string) (uint, error) {
	if !moveType.Valid() {
		return 0, apperror.Validation("move type must be one of in, out, adjust")
	}
	if err := ensureProduct(ctx, l.db, productID); err != nil {
		return 0, err
	}

	m := models.InventoryMovement{
		ProductID: productID,
		MoveType:  moveType,
		Quantity:  quantity,
		Note:      note,
	}
	if err := l.db.WithContext(ctx).Omit("Product").Create(&m).Error; err != nil {
		return 0, apperror.Store(err)
	}
	return m.ID, nil
}

type MovementFilter struct {
	ProductID  uint
	CategoryID uint
	MoveType   models.MoveType
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// ListMovements returns movements newest first together with the total
// number of matching rows.
func (l *Ledger) ListMovements(ctx context.Context, actor authz.Actor, f MovementFilter) ([]models.InventoryMovement, int64, error) {
	if err := authz.Require(actor, authz.ManageInventory, 0); err != nil {
		return nil, 0, err
	}
	q := l.db.WithContext(ctx).Model(&models.InventoryMovement{})

	if f.ProductID > 0 {
		q = q.Where("inventory_moves.product_id = ?", f.ProductID)
	}
	if f.CategoryID > 0 {
		q = q.Joins("JOIN products ON products.id = inventory_moves.product_id").
			Where("products.category_id = ?", f.CategoryID)
	}
	if f.MoveType != "" {
		if !f.MoveType.Valid() {
			return nil, 0, apperror.Validation("move type must be one of in, out, adjust")
		}
		q = q.Where("inventory_moves.move_type = ?", f.MoveType)
	}
	if f.From != nil {
		q = q.Where("inventory_moves.created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("inventory_moves.created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperror.Store(err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var moves []models.InventoryMovement
	err := q.Preload("Product").
		Order("inventory_moves.created_at DESC, inventory_moves.id DESC").
		Limit(limit).
		Offset(f.Offset).
		Find(&moves).Error
	if err != nil {
		return nil, 0, apperror.Store(err)
	}
	return moves, total, nil
}

func ensureProduct(ctx context.Context, db *gorm.DB, productID uint) error {
	if productID == 0 {
		return apperror.Validation("product is required")
	}
	var p models.Product
	err := db.WithContext(ctx).Select("id").First(&p, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Validation("product not found")
	}
	if err != nil {
		return apperror.Store(err)
	}
	return nil
}
