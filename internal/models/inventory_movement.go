package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MoveType string

const (
	MoveIn     MoveType = "in"
	MoveOut    MoveType = "out"
	MoveAdjust MoveType = "adjust"
)

func (m MoveType) Valid() bool {
	return m == MoveIn || m == MoveOut || m == MoveAdjust
}

// Contribution is the signed effect of a movement on stock. adjust rows
// carry their own sign.
func (m MoveType) Contribution(qty decimal.Decimal) decimal.Decimal {
	if m == MoveOut {
		return qty.Neg()
	}
	return qty
}

// InventoryMovement is a ledger row. Rows are append-only: there is no
// UpdatedAt and nothing in the code base updates or deletes a single row.
type InventoryMovement struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ProductID uint            `gorm:"index;not null" json:"product_id"`
	Product   Product         `json:"-"`
	MoveType  MoveType        `gorm:"size:10;not null;index" json:"move_type"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"quantity"`
	Note      string          `gorm:"size:255" json:"note"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

func (InventoryMovement) TableName() string { return "inventory_moves" }
