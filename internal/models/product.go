package models

import "time"

type Product struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"size:150;not null;index" json:"name"`
	Description   string       `gorm:"size:500" json:"description"`
	ImageURL      string       `gorm:"size:500" json:"image_url"`
	Price         float64      `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock         int          `gorm:"not null;default:0" json:"stock"`
	CategoryID    uint         `gorm:"not null;index" json:"category_id"`
	Category      Category     `json:"-"`
	SubCategoryID *uint        `gorm:"index" json:"sub_category_id"`
	SubCategory   *SubCategory `json:"-"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
