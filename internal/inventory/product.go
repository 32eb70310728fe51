package inventory

import (
	"context"
	"errors"
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
	noteInitStock     = "initial stock"
	noteInitReserved  = "initial reservation"
	noteTargetStock   = "product edit: stock adjusted to target"
	noteTargetReserve = "product edit: reservation adjusted to target"
	customerInit      = "init"
	customerAdjust    = "adjust"
)

// Products owns the product rows and the seed/reconciliation rows that
// product edits write into the ledger and reservation store.
type Products struct {
	db *gorm.DB
}

func NewProducts(db *gorm.DB) *Products {
	return &Products{db: db}
}

// ProductFields are the editable product attributes.
type ProductFields struct {
	Name          string
	SKU           *string
	CategoryID    uint
	SubcategoryID *uint
	Unit          string
	Price         decimal.Decimal
	Color         string
	Spec          string
	Weight        decimal.NullDecimal
	Brand         string
	Supplier      string
	ProductDate   *time.Time
	Note          string
}

type NewProduct struct {
	ProductFields
	InitStock    decimal.Decimal
	InitReserved decimal.Decimal
}

type ProductUpdate struct {
	ProductFields
	// Targets are absolute; the difference to the current value is written
	// as a new row. nil leaves the quantity alone.
	TargetStock    *decimal.Decimal
	TargetReserved *decimal.Decimal
}

func (f *ProductFields) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Unit = strings.TrimSpace(f.Unit)
	if f.Unit == "" {
		f.Unit = "pcs"
	}
	if f.SKU != nil {
		sku := strings.TrimSpace(*f.SKU)
		if sku == "" {
			f.SKU = nil
		} else {
			f.SKU = &sku
		}
	}
	if f.SubcategoryID != nil && *f.SubcategoryID == 0 {
		f.SubcategoryID = nil
	}
	f.Color = strings.TrimSpace(f.Color)
	f.Spec = strings.TrimSpace(f.Spec)
	f.Brand = strings.TrimSpace(f.Brand)
	f.Supplier = strings.TrimSpace(f.Supplier)
	f.Note = strings.TrimSpace(f.Note)
}

func (f ProductFields) validate(ctx context.Context, db *gorm.DB) error {
	if f.Name == "" || f.CategoryID == 0 {
		return apperror.Validation("product name and category are required")
	}
	if f.Price.IsNegative() {
		return apperror.Validation("price cannot be negative")
	}

	var cat models.Category
	err := db.WithContext(ctx).Select("id").First(&cat, f.CategoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Validation("category not found")
	}
	if err != nil {
		return apperror.Store(err)
	}

	if f.SubcategoryID != nil {
		var sub models.Subcategory
		err := db.WithContext(ctx).First(&sub, *f.SubcategoryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Validation("subcategory not found")
		}
		if err != nil {
			return apperror.Store(err)
		}
		if sub.CategoryID != f.CategoryID {
			return apperror.Validation("subcategory does not belong to the selected category")
		}
	}
	return nil
}

func (f ProductFields) apply(p *models.Product) {
	p.Name = f.Name
	p.SKU = f.SKU
	p.CategoryID = f.CategoryID
	p.SubcategoryID = f.SubcategoryID
	p.Unit = f.Unit
	p.Price = f.Price
	p.Color = f.Color
	p.Spec = f.Spec
	p.Weight = f.Weight
	p.Brand = f.Brand
	p.Supplier = f.Supplier
	p.ProductDate = f.ProductDate
	p.Note = f.Note
}

// Create inserts the product and its optional seed rows in one
// transaction: an adjust movement for a non-zero initial stock and a
// pending reservation for a positive initial reservation.
func (s *Products) Create(ctx context.Context, actor authz.Actor, in NewProduct) (*models.Product, error) {
	if err := authz.Require(actor, authz.ManageInventory, 0); err != nil {
		return nil, err
	}
	in.normalize()
	if err := in.validate(ctx, s.db); err != nil {
		return nil, err
	}

	var p models.Product
	in.apply(&p)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&p).Error; err != nil {
			return apperror.Store(err)
		}

		if !in.InitStock.IsZero() {
			if _, err := NewLedger(tx).appendRow(ctx, p.ID, models.MoveAdjust, in.InitStock, noteInitStock); err != nil {
				return err
			}
		}
		if in.InitReserved.IsPositive() {
			customer := customerInit
			_, err := NewReservations(tx).create(ctx, NewReservation{
				ProductID: p.ID,
				Quantity:  in.InitReserved,
				Customer:  &customer,
				Note:      noteInitReserved,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperror.Store(err)
	}
	return &p, nil
}

// Update saves the attributes and reconciles stock and reservations to the
// requested targets. Negative targets are clamped to zero. Reconciliation
// never edits existing rows: it appends an adjust movement and a pending
// reservation carrying the signed delta.
func (s *Products) Update(ctx context.Context, actor authz.Actor, id uint, in ProductUpdate) (before, after models.Product, err error) {
	if err = authz.Require(actor, authz.ManageInventory, 0); err != nil {
		return before, after, err
	}
	in.normalize()
	if err = in.validate(ctx, s.db); err != nil {
		return before, after, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&before, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("product not found")
			}
			return apperror.Store(err)
		}

		after = before
		in.apply(&after)
		if err := tx.Omit(clause.Associations).Save(&after).Error; err != nil {
			return apperror.Store(err)
		}

		if in.TargetStock == nil && in.TargetReserved == nil {
			return nil
		}

		current, err := Fallback(ctx, tx, []uint{id})
		if err != nil {
			return err
		}
		curr := current[id]

		if in.TargetStock != nil {
			delta := clampZero(*in.TargetStock).Sub(curr.Stock)
			if !delta.IsZero() {
				if _, err := NewLedger(tx).appendRow(ctx, id, models.MoveAdjust, delta, noteTargetStock); err != nil {
					return err
				}
			}
		}
		if in.TargetReserved != nil {
			delta := clampZero(*in.TargetReserved).Sub(curr.Reserved)
			if !delta.IsZero() {
				customer := customerAdjust
				_, err := NewReservations(tx).create(ctx, NewReservation{
					ProductID: id,
					Quantity:  delta,
					Customer:  &customer,
					Note:      noteTargetReserve,
				})
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return before, after, apperror.Store(err)
	}
	return before, after, nil
}

// Delete removes the product together with its movements and reservations
// in one transaction. This is a hard delete.
func (s *Products) Delete(ctx context.Context, actor authz.Actor, id uint) (models.Product, error) {
	var p models.Product
	if err := authz.Require(actor, authz.ManageInventory, 0); err != nil {
		return p, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("product not found")
			}
			return apperror.Store(err)
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Reservation{}).Error; err != nil {
			return apperror.Store(err)
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.InventoryMovement{}).Error; err != nil {
			return apperror.Store(err)
		}
		if err := tx.Delete(&models.Product{}, id).Error; err != nil {
			return apperror.Store(err)
		}
		return nil
	})
	if err != nil {
		return p, apperror.Store(err)
	}
	return p, nil
}

func (s *Products) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Preload("Category").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("product not found")
	}
	if err != nil {
		return nil, apperror.Store(err)
	}
	return &p, nil
}

type ProductFilter struct {
	ProductIDs    []uint
	CategoryID    uint
	SubcategoryID uint
	Query         string
}

func (s *Products) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{}).Preload("Category")
	if len(f.ProductIDs) > 0 {
		q = q.Where("id IN ?", f.ProductIDs)
	}
	if f.CategoryID > 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.SubcategoryID > 0 {
		q = q.Where("subcategory_id = ?", f.SubcategoryID)
	}
	if kw := strings.TrimSpace(f.Query); kw != "" {
		like := "%" + kw + "%"
		q = q.Where("name LIKE ? OR sku LIKE ?", like, like)
	}

	var list []models.Product
	if err := q.Order("name ASC").Order("id ASC").Find(&list).Error; err != nil {
		return nil, apperror.Store(err)
	}
	return list, nil
}

// IDs returns the ids of the products matching f.
func (s *Products) IDs(ctx context.Context, f ProductFilter) ([]uint, error) {
	list, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
