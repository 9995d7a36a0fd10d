package models

import "time"

// MonthlyReport: closed snapshot of one calendar month
type MonthlyReport struct {
	ID                uint    `gorm:"primaryKey" json:"id"`
	Year              int     `gorm:"uniqueIndex:idx_monthly_report_period;not null" json:"year"`
	Month             int     `gorm:"uniqueIndex:idx_monthly_report_period;not null" json:"month"` // 1-12
	OrdersCount       int64   `json:"orders_count"`
	DeliveriesCount   int64   `json:"deliveries_count"`
	ReservationsCount int64   `json:"reservations_count"`
	OrdersRevenue     float64 `gorm:"type:decimal(14,2);default:0" json:"orders_revenue"`
	DeliveriesRevenue float64 `gorm:"type:decimal(14,2);default:0" json:"deliveries_revenue"`
	TotalExpenses     float64 `gorm:"type:decimal(14,2);default:0" json:"total_expenses"`
	SalaryExpenses    float64 `gorm:"type:decimal(14,2);default:0" json:"salary_expenses"`
	NetProfit         float64 `gorm:"type:decimal(14,2);default:0" json:"net_profit"`
	ClosingBalance    float64 `gorm:"type:decimal(14,2);default:0" json:"closing_balance"`

	// Per-category expense breakdown (JSON)
	ReportData string `gorm:"type:jsonb" json:"report_data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
