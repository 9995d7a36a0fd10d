package models

import "time"

type UserRole string

const (
	RoleClient   UserRole = "client"
	RoleEmployee UserRole = "employee"
	RoleAdmin    UserRole = "admin"
)

// User: restaurant customer (client role)
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"size:100;not null" json:"name"`
	LastName       string     `gorm:"size:100;not null" json:"last_name"`
	DocumentType   string     `gorm:"size:20" json:"document_type"`
	DocumentNumber string     `gorm:"size:50;uniqueIndex" json:"document_number"`
	Phone          string     `gorm:"size:30;uniqueIndex" json:"phone"`
	Email          string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash   string     `gorm:"size:255;not null" json:"-"`
	DateOfBirth    *time.Time `gorm:"type:date" json:"date_of_birth"`

	Points               int64      `gorm:"not null;default:0" json:"points"`
	NumberOfOrders       int64      `gorm:"not null;default:0" json:"number_of_orders"`
	TotalSpent           float64    `gorm:"type:decimal(12,2);not null;default:0" json:"total_spent"`
	LastOrderDate        *time.Time `gorm:"type:date" json:"last_order_date"`
	NumberOfReservations int64      `gorm:"not null;default:0" json:"number_of_reservations"`

	ResetPasswordCode      string     `gorm:"size:8" json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`
	ResetPasswordAttempts  int        `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) FullName() string {
	return u.Name + " " + u.LastName
}
