package models

import "time"

// PayrollExpenseCategory marks expenses created by payroll. They reach the ledger
// as SALARY_PAYMENT transactions, never as EXPENSE.
const PayrollExpenseCategory = "Nómina"

type Expense struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Description   string    `gorm:"size:255;not null" json:"description"`
	Category      string    `gorm:"size:100;index;not null" json:"category"`
	Amount        float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	ExpenseDate   time.Time `gorm:"type:date;index;not null" json:"expense_date"`
	PaymentMethod string    `gorm:"size:50" json:"payment_method"`
	Notes         string    `gorm:"size:500" json:"notes"`
	ReceiptURL    string    `gorm:"size:500" json:"receipt_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
