package models

import "time"

// Order: table order placed inside the restaurant
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Date        time.Time   `gorm:"type:date;index;not null" json:"date"`
	Time        string      `gorm:"size:8;not null" json:"time"` // 15:04:05
	TotalPrice  float64     `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Status      bool        `gorm:"not null;default:false" json:"status"` // true: completed
	TableNumber int         `gorm:"not null" json:"table_number"`
	UserID      uint        `gorm:"index;not null" json:"user_id"`
	User        User        `json:"-"`
	Items       []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`

	PaymentStatus   PaymentStatus `gorm:"size:20;index;not null;default:PENDING" json:"payment_status"`
	PaymentMethod   PaymentMethod `gorm:"size:20;not null;default:CASH" json:"payment_method"`
	PaymentProofURL string        `gorm:"size:500" json:"payment_proof_url"`
	VerifiedByID    *uint         `json:"verified_by_id"`
	VerifiedBy      *Admin        `json:"-"`
	VerifiedAt      *time.Time    `json:"verified_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `gorm:"index;not null" json:"order_id"`
	ProductID uint    `gorm:"index;not null" json:"product_id"`
	Product   Product `json:"-"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	UnitPrice float64 `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Subtotal  float64 `gorm:"type:decimal(12,2);not null" json:"subtotal"`
}
