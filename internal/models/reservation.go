package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationFulfilled ReservationStatus = "fulfilled"
	ReservationCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	return s == ReservationPending || s == ReservationFulfilled || s == ReservationCancelled
}

// Reservation is a claim against stock. Only pending rows count as reserved.
// Reconciliation rows may carry a negative quantity (a release).
type Reservation struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	ProductID    uint              `gorm:"index;not null" json:"product_id"`
	Product      Product           `json:"-"`
	Quantity     decimal.Decimal   `gorm:"type:decimal(18,3);not null" json:"quantity"`
	Customer     *string           `gorm:"size:100" json:"customer"`
	ExpectedDate *time.Time        `gorm:"type:date" json:"expected_date"`
	Status       ReservationStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	Note         string            `gorm:"size:255" json:"note"`
	CreatedAt    time.Time         `json:"created_at"`
}
