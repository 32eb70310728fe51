package models

// ProductionStatus is a dictionary row. Ordering and IsFinal are
// informational; nothing guards transitions between statuses.
type ProductionStatus struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:64;not null" json:"name"`
	KeyName   string `gorm:"size:64;not null;uniqueIndex" json:"key_name"`
	SortOrder int    `gorm:"not null;default:0;index" json:"sort_order"`
	IsFinal   bool   `gorm:"not null;default:false" json:"is_final"`
}
