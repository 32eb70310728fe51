package models

import "time"

type Category struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:100;not null;unique" json:"name"`
	SortOrder int    `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Subcategory struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	CategoryID uint     `gorm:"index;not null" json:"category_id"`
	Category   Category `json:"-"`
	Name       string   `gorm:"size:100;not null" json:"name"`
	SortOrder  int      `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
