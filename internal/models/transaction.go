package models

import "time"

type TransactionType string

const (
	TransactionTypeIncome        TransactionType = "INCOME"
	TransactionTypeExpense       TransactionType = "EXPENSE"
	TransactionTypeSalaryPayment TransactionType = "SALARY_PAYMENT"
	TransactionTypeAdjustment    TransactionType = "ADJUSTMENT"
	TransactionTypeRefund        TransactionType = "REFUND"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeSalaryPayment,
		TransactionTypeAdjustment, TransactionTypeRefund:
		return true
	}
	return false
}

// Credits reports whether the transaction adds its amount to the balance.
// ADJUSTMENT amounts are signed, so they are always added.
func (t TransactionType) Credits() bool {
	return t == TransactionTypeIncome || t == TransactionTypeAdjustment || t == TransactionTypeRefund
}

type ReferenceType string

const (
	ReferenceOrder         ReferenceType = "ORDER"
	ReferenceDelivery      ReferenceType = "DELIVERY"
	ReferenceExpense       ReferenceType = "EXPENSE"
	ReferenceSalaryPayment ReferenceType = "SALARY_PAYMENT"
	ReferenceBalance       ReferenceType = "BALANCE"
)

// Transaction: one balance-affecting event in the ledger
type Transaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Type          TransactionType `gorm:"size:20;index;not null" json:"type"`
	Amount        float64         `gorm:"type:decimal(14,2);not null" json:"amount"`
	BalanceBefore float64         `gorm:"type:decimal(14,2);not null" json:"balance_before"`
	BalanceAfter  float64         `gorm:"type:decimal(14,2);not null" json:"balance_after"`
	Description   string          `gorm:"size:255;not null" json:"description"`
	ReferenceID   *uint           `gorm:"index:idx_transaction_reference" json:"reference_id"`
	ReferenceType ReferenceType   `gorm:"size:20;index:idx_transaction_reference" json:"reference_type"`
	Notes         string          `gorm:"size:500" json:"notes"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}
