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

// Reservations stores claims against stock. Quantities are signed: a
// reconciliation row with a negative quantity releases reserved units.
type Reservations struct {
	db *gorm.DB
}

func NewReservations(db *gorm.DB) *Reservations {
	return &Reservations{db: db}
}

type NewReservation struct {
	ProductID    uint
	Quantity     decimal.Decimal
	Customer     *string
	ExpectedDate *time.Time
	Note         string
}

// Create inserts a pending reservation.
func (r *Reservations) Create(ctx context.Context, actor authz.Actor, in NewReservation) (uint, error) {
	if err := authz.Require(actor, authz.ManageInventory, 0); err != nil {
		return 0, err
	}
	return r.create(ctx, in)
}

func (r *Reservations) create(ctx context.Context, in NewReservation) (uint, error) {
	if err := ensureProduct(ctx, r.db, in.ProductID); err != nil {
		return 0, err
	}

	res := models.Reservation{
		ProductID:    in.ProductID,
		Quantity:     in.Quantity,
		Customer:     in.Customer,
		ExpectedDate: in.ExpectedDate,
		Status:       models.ReservationPending,
		Note:         in.Note,
	}
	if err := r.db.WithContext(ctx).Omit("Product").Create(&res).Error; err != nil {
		return 0, apperror.Store(err)
	}
	return res.ID, nil
}

// SetStatus moves a reservation to status. Terminal states are not
// guarded: a fulfilled or cancelled reservation can be set again.
func (r *Reservations) SetStatus(ctx context.Context, actor authz.Actor, id uint, status models.ReservationStatus) (before models.Reservation, err error) {
	if err = authz.Require(actor, authz.ManageInventory, 0); err != nil {
		return before, err
	}
	if !status.Valid() {
		return before, apperror.Validation("status must be one of pending, fulfilled, cancelled")
	}

	err = r.db.WithContext(ctx).First(&before, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return before, apperror.NotFound("reservation not found")
	}
	if err != nil {
		return before, apperror.Store(err)
	}

	err = r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return before, apperror.Store(err)
	}
	return before, nil
}

type ReservationFilter struct {
	ProductID uint
	Status    models.ReservationStatus
}

// List orders pending reservations first, then by expected date.
func (r *Reservations) List(ctx context.Context, actor authz.Actor, f ReservationFilter) ([]models.Reservation, error) {
	if err := authz.Require(actor, authz.ManageInventory, 0); err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx).Model(&models.Reservation{})
	if f.ProductID > 0 {
		q = q.Where("product_id = ?", f.ProductID)
	}
	if f.Status != "" {
		if !f.Status.Valid() {
			return nil, apperror.Validation("status must be one of pending, fulfilled, cancelled")
		}
		q = q.Where("status = ?", f.Status)
	}

	var list []models.Reservation
	err := q.Preload("Product").
		Order("CASE WHEN status = 'pending' THEN 0 ELSE 1 END").
		Order("expected_date ASC").
		Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, apperror.Store(err)
	}
	return list, nil
}
