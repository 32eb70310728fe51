package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	Name          string              `gorm:"size:200;not null;index" json:"name"`
	SKU           *string             `gorm:"size:100;index" json:"sku"` // not unique
	CategoryID    uint                `gorm:"index;not null" json:"category_id"`
	Category      Category            `json:"-"`
	SubcategoryID *uint               `gorm:"index" json:"subcategory_id"`
	Unit          string              `gorm:"size:20;not null;default:pcs" json:"unit"`
	Price         decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Color         string              `gorm:"size:64" json:"color"`
	Spec          string              `gorm:"size:255" json:"spec"`
	Weight        decimal.NullDecimal `gorm:"type:decimal(18,3)" json:"weight"`
	Brand         string              `gorm:"size:100" json:"brand"`
	Supplier      string              `gorm:"size:100" json:"supplier"`
	ProductDate   *time.Time          `gorm:"type:date" json:"product_date"`
	Note          string              `gorm:"size:500" json:"note"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}
