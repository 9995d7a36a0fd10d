package models

import "time"

type RewardProduct struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:150;not null" json:"name"`
	Description    string    `gorm:"size:500" json:"description"`
	ImageURL       string    `gorm:"size:500" json:"image_url"`
	PointsRequired int64     `gorm:"not null" json:"points_required"`
	Stock          int       `gorm:"not null;default:0" json:"stock"`
	IsActive       bool      `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RewardRedemption: points ledger entry written on every redemption
type RewardRedemption struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UserID          uint          `gorm:"index;not null" json:"user_id"`
	User            User          `json:"-"`
	RewardProductID uint          `gorm:"index;not null" json:"reward_product_id"`
	RewardProduct   RewardProduct `json:"-"`
	PointsSpent     int64         `gorm:"not null" json:"points_spent"`
	PointsAfter     int64         `gorm:"not null" json:"points_after"`
	CreatedAt       time.Time     `json:"created_at"`
}
