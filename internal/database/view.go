package database

import (
	"fmt"

	"gorm.io/gorm"
)

const AvailabilityView = "v_available_stock"

// availabilitySelect must stay numerically identical to the manual
// aggregation in inventory.Calculator: in and adjust add, out subtracts,
// only pending reservations count.
const availabilitySelect = `
SELECT p.id AS product_id,
       COALESCE(m.stock_qty, 0) AS stock_qty,
       COALESCE(r.reserved_qty, 0) AS reserved_qty,
       COALESCE(m.stock_qty, 0) - COALESCE(r.reserved_qty, 0) AS available_qty
FROM products p
LEFT JOIN (
    SELECT product_id,
           SUM(CASE WHEN move_type = 'out' THEN -quantity ELSE quantity END) AS stock_qty
    FROM inventory_moves
    GROUP BY product_id
) m ON m.product_id = p.id
LEFT JOIN (
    SELECT product_id, SUM(quantity) AS reserved_qty
    FROM reservations
    WHERE status = 'pending'
    GROUP BY product_id
) r ON r.product_id = p.id`

func EnsureAvailabilityView(db *gorm.DB) error {
	var stmt string
	switch db.Dialector.Name() {
	case "postgres":
		stmt = fmt.Sprintf("CREATE OR REPLACE VIEW %s AS %s", AvailabilityView, availabilitySelect)
	default:
		stmt = fmt.Sprintf("CREATE VIEW IF NOT EXISTS %s AS %s", AvailabilityView, availabilitySelect)
	}
	return db.Exec(stmt).Error
}

func DropAvailabilityView(db *gorm.DB) error {
	return db.Exec(fmt.Sprintf("DROP VIEW IF EXISTS %s", AvailabilityView)).Error
}
