package models

import "time"

type SalaryPayment struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	EmployeeID    uint             `gorm:"index;not null" json:"employee_id"`
	Employee      Employee         `json:"-"`
	Amount        float64          `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentDate   time.Time        `gorm:"type:date;index;not null" json:"payment_date"`
	PeriodStart   time.Time        `gorm:"type:date;not null" json:"period_start"`
	PeriodEnd     time.Time        `gorm:"type:date;not null" json:"period_end"`
	Frequency     PaymentFrequency `gorm:"size:20;not null" json:"frequency"`
	Status        PaymentStatus    `gorm:"size:20;index;not null" json:"status"` // PENDING / PAID / FAILED
	ProcessedAt   *time.Time       `json:"processed_at"`
	FailureReason string           `gorm:"size:500" json:"failure_reason"`
	ExpenseID     *uint            `json:"expense_id"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
