package models

import "time"

type Reservation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Date           time.Time `gorm:"type:date;index;not null" json:"date"`
	Time           string    `gorm:"size:8;not null" json:"time"`
	NumberOfPeople int       `gorm:"not null" json:"number_of_people"`
	Status         bool      `gorm:"index;not null;default:false" json:"status"` // true: confirmed
	Notes          string    `gorm:"size:500" json:"notes"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	User           User      `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
