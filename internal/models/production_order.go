package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductionOrder struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	OrderNo       string           `gorm:"size:40;not null;uniqueIndex" json:"order_no"`
	CustomerName  string           `gorm:"size:200" json:"customer_name"`
	SalesUserID   uint             `gorm:"index;not null" json:"sales_user_id"`
	PlannerUserID *uint            `gorm:"index" json:"planner_user_id"`
	StatusID      uint             `gorm:"index;not null" json:"status_id"`
	Status        ProductionStatus `json:"status"`
	ScheduledDate *time.Time       `gorm:"type:date" json:"scheduled_date"`
	DueDate       *time.Time       `gorm:"type:date" json:"due_date"`
	Note          string           `gorm:"size:1000" json:"note"`
	// Version is compared and incremented on every write to the header.
	Version   int                   `gorm:"not null;default:1" json:"version"`
	Items     []ProductionOrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt time.Time             `gorm:"index" json:"created_at"`
	UpdatedAt time.Time             `gorm:"index" json:"updated_at"`
}

type ProductionOrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"index;not null" json:"order_id"`
	ProductSKU  string          `gorm:"size:100" json:"product_sku"`
	ProductName string          `gorm:"size:200" json:"product_name"`
	Spec        string          `gorm:"size:255" json:"spec"`
	Color       string          `gorm:"size:64" json:"color"`
	Qty         decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0" json:"qty"`
	Unit        string          `gorm:"size:20;not null;default:pcs" json:"unit"`
	Note        string          `gorm:"size:255" json:"note"`
	CreatedAt   time.Time       `json:"created_at"`
}
