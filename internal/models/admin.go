package models

import "time"

type Admin struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	LastName       string    `gorm:"size:100;not null" json:"last_name"`
	DocumentType   string    `gorm:"size:20" json:"document_type"`
	DocumentNumber string    `gorm:"size:50" json:"document_number"`
	Email          string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"size:255;not null" json:"-"`
	Phone          string    `gorm:"size:30" json:"phone"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (a Admin) FullName() string {
	return a.Name + " " + a.LastName
}
