package models

import "time"

const DefaultLowBalanceThreshold = 100000.0

// Balance: single row holding the restaurant's running cash balance
type Balance struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	CurrentBalance      float64   `gorm:"type:decimal(14,2);not null;default:0" json:"current_balance"`
	LowBalanceThreshold float64   `gorm:"type:decimal(14,2);not null" json:"low_balance_threshold"`
	LastUpdated         time.Time `json:"last_updated"`
	CreatedAt           time.Time `json:"created_at"`
}

func (b Balance) IsLow() bool {
	return b.CurrentBalance < b.LowBalanceThreshold
}
