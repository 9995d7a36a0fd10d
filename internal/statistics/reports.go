package statistics

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"restaurant-backend/internal/ledger"
	"restaurant-backend/internal/models"

	"gorm.io/gorm"
)

const (
	topLimit = 10
	// DailyWindow caps the per-day breakdown of the financial report.
	DailyWindow = 15
	topDays     = 30
)

var ErrReportExists = errors.New("a report for this month already exists")

type Financial struct {
	StartDate          string            `json:"start_date"`
	EndDate            string            `json:"end_date"`
	OrdersRevenue      float64           `json:"orders_revenue"`
	DeliveriesRevenue  float64           `json:"deliveries_revenue"`
	TotalRevenue       float64           `json:"total_revenue"`
	TotalExpenses      float64           `json:"total_expenses"`
	NetProfit          float64           `json:"net_profit"`
	ExpensesByCategory []CategoryExpense `json:"expenses_by_category"`
	DailyStats         []DailyStat       `json:"daily_stats"`
}

type MonthSummary struct {
	Summary
	Year  int `json:"year"`
	Month int `json:"month"`
}

type Business struct {
	TotalOrders       int64         `json:"total_orders"`
	TotalDeliveries   int64         `json:"total_deliveries"`
	TotalReservations int64         `json:"total_reservations"`
	TotalCustomers    int64         `json:"total_customers"`
	TotalProducts     int64         `json:"total_products"`
	TopProducts       []TopProduct  `json:"top_products"`
	TopCustomers      []TopCustomer `json:"top_customers"`
	Today             Summary       `json:"today_stats"`
	Month             MonthSummary  `json:"monthly_stats"`
}

// FinancialReport covers [from, to]; the daily breakdown keeps only the last
// DailyWindow days of the range.
func FinancialReport(db *gorm.DB, from, to time.Time) (*Financial, error) {
	from, to = Day(from), Day(to)
	s, err := Summarize(db, from, to)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	byCat, err := ExpensesByCategory(db, from, to)
	if err != nil {
		return nil, fmt.Errorf("expenses by category: %w", err)
	}

	dailyFrom := to.AddDate(0, 0, -(DailyWindow - 1))
	if dailyFrom.Before(from) {
		dailyFrom = from
	}
	daily, err := Daily(db, dailyFrom, to)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}

	return &Financial{
		StartDate:          from.Format("2006-01-02"),
		EndDate:            to.Format("2006-01-02"),
		OrdersRevenue:      s.OrdersRevenue,
		DeliveriesRevenue:  s.DeliveriesRevenue,
		TotalRevenue:       s.Revenue,
		TotalExpenses:      s.Expenses,
		NetProfit:          s.Profit,
		ExpensesByCategory: byCat,
		DailyStats:         daily,
	}, nil
}

// BusinessReport gathers the catalog-wide counters and rankings as of now.
func BusinessReport(db *gorm.DB, now time.Time) (*Business, error) {
	var b Business
	for _, c := range []struct {
		model interface{}
		dest  *int64
	}{
		{&models.Order{}, &b.TotalOrders},
		{&models.Delivery{}, &b.TotalDeliveries},
		{&models.Reservation{}, &b.TotalReservations},
		{&models.User{}, &b.TotalCustomers},
		{&models.Product{}, &b.TotalProducts},
	} {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	today := Day(now)
	var err error
	if b.TopProducts, err = TopProducts(db, today.AddDate(0, 0, -topDays), today, topLimit); err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	if b.TopCustomers, err = TopCustomers(db, topLimit); err != nil {
		return nil, fmt.Errorf("top customers: %w", err)
	}
	if b.Today, err = Summarize(db, today, today); err != nil {
		return nil, err
	}
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	month, err := Summarize(db, monthStart, today)
	if err != nil {
		return nil, err
	}
	b.Month = MonthSummary{Summary: month, Year: today.Year(), Month: int(today.Month())}
	return &b, nil
}

// CreateMonthlyReport snapshots year/month. Each month can be reported once.
func CreateMonthlyReport(db *gorm.DB, year, month int) (*models.MonthlyReport, error) {
	var existing int64
	if err := db.Model(&models.MonthlyReport{}).Where("year = ? AND month = ?", year, month).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrReportExists
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	s, err := Summarize(db, first, last)
	if err != nil {
		return nil, fmt.Errorf("summarize month: %w", err)
	}
	salaries, err := sum(between(db.Model(&models.Expense{}), "expense_date", first, last).
		Where("category = ?", models.PayrollExpenseCategory), "amount")
	if err != nil {
		return nil, fmt.Errorf("salary expenses: %w", err)
	}
	byCat, err := ExpensesByCategory(db, first, last)
	if err != nil {
		return nil, err
	}
	closing, err := ledger.BalanceAt(db, first.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("closing balance: %w", err)
	}
	data, err := json.Marshal(map[string]interface{}{"expenses_by_category": byCat})
	if err != nil {
		return nil, err
	}

	r := models.MonthlyReport{
		Year:              year,
		Month:             month,
		OrdersCount:       s.OrdersCount,
		DeliveriesCount:   s.DeliveriesCount,
		ReservationsCount: s.ReservationsCount,
		OrdersRevenue:     s.OrdersRevenue,
		DeliveriesRevenue: s.DeliveriesRevenue,
		TotalExpenses:     s.Expenses,
		SalaryExpenses:    salaries,
		NetProfit:         s.Profit,
		ClosingBalance:    closing,
		ReportData:        string(data),
	}
	if err := db.Create(&r).Error; err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	return &r, nil
}
