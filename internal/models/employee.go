package models

import "time"

type PaymentFrequency string

const (
	PaymentFrequencyMonthly  PaymentFrequency = "MONTHLY"
	PaymentFrequencyBiweekly PaymentFrequency = "BIWEEKLY"
)

func (f PaymentFrequency) Valid() bool {
	return f == PaymentFrequencyMonthly || f == PaymentFrequencyBiweekly
}

type Employee struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Name           string `gorm:"size:100;not null" json:"name"`
	LastName       string `gorm:"size:100;not null" json:"last_name"`
	DocumentType   string `gorm:"size:20" json:"document_type"`
	DocumentNumber string `gorm:"size:50" json:"document_number"`
	Email          string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash   string `gorm:"size:255;not null" json:"-"`
	Phone          string `gorm:"size:30" json:"phone"`

	// Salary settings; payroll skips the employee unless all three are set
	Salary           *float64          `gorm:"type:decimal(12,2)" json:"salary"`
	PaymentFrequency *PaymentFrequency `gorm:"size:20" json:"payment_frequency"`
	PaymentDay       *int              `json:"payment_day"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e Employee) FullName() string {
	return e.Name + " " + e.LastName
}

// HasSalaryConfig reports whether payroll can pay this employee automatically.
func (e Employee) HasSalaryConfig() bool {
	return e.Salary != nil && *e.Salary > 0 && e.PaymentFrequency != nil && e.PaymentDay != nil
}
