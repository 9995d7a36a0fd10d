// Package statistics computes the financial and business reports shown on
// the admin dashboard, and the persisted monthly report snapshots.
package statistics

import (
	"sort"
	"time"

	"restaurant-backend/internal/ledger"
	"restaurant-backend/internal/models"

	"gorm.io/gorm"
)

// Day truncates t to local midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Summary aggregates one date range. Revenue counts completed orders and
// deliveries only.
type Summary struct {
	OrdersCount       int64   `json:"orders_count"`
	DeliveriesCount   int64   `json:"deliveries_count"`
	ReservationsCount int64   `json:"reservations_count"`
	OrdersRevenue     float64 `json:"orders_revenue"`
	DeliveriesRevenue float64 `json:"deliveries_revenue"`
	Revenue           float64 `json:"revenue"`
	Expenses          float64 `json:"expenses"`
	Profit            float64 `json:"profit"`
}

type CategoryExpense struct {
	Category    string  `json:"category"`
	TotalAmount float64 `json:"total_amount"`
}

type DailyStat struct {
	Date            string  `json:"date"`
	Revenue         float64 `json:"revenue"`
	Expenses        float64 `json:"expenses"`
	Profit          float64 `json:"profit"`
	OrdersCount     int64   `json:"orders_count"`
	DeliveriesCount int64   `json:"deliveries_count"`
}

type TopProduct struct {
	ProductID     uint    `json:"product_id"`
	ProductName   string  `json:"product_name"`
	TotalQuantity int64   `json:"total_quantity"`
	TotalRevenue  float64 `json:"total_revenue"`
}

type TopCustomer struct {
	UserID      uint    `json:"user_id"`
	Name        string  `json:"name"`
	LastName    string  `json:"last_name"`
	TotalOrders int64   `json:"total_orders"`
	TotalSpent  float64 `json:"total_spent"`
}

// between restricts column to the inclusive day range [from, to].
func between(q *gorm.DB, column string, from, to time.Time) *gorm.DB {
	return q.Where(column+" >= ? AND "+column+" < ?", Day(from), Day(to).AddDate(0, 0, 1))
}

func sum(q *gorm.DB, column string) (float64, error) {
	var total float64
	err := q.Select("COALESCE(SUM(" + column + "), 0)").Scan(&total).Error
	return ledger.Round(total), err
}

// Summarize counts and sums orders, deliveries, reservations and expenses
// dated within [from, to].
func Summarize(db *gorm.DB, from, to time.Time) (Summary, error) {
	var s Summary
	var err error

	if err = between(db.Model(&models.Order{}), "date", from, to).Count(&s.OrdersCount).Error; err != nil {
		return s, err
	}
	if err = between(db.Model(&models.Delivery{}), "date", from, to).Count(&s.DeliveriesCount).Error; err != nil {
		return s, err
	}
	if err = between(db.Model(&models.Reservation{}), "date", from, to).Count(&s.ReservationsCount).Error; err != nil {
		return s, err
	}
	if s.OrdersRevenue, err = sum(between(db.Model(&models.Order{}), "date", from, to).Where("status = ?", true), "total_price"); err != nil {
		return s, err
	}
	if s.DeliveriesRevenue, err = sum(between(db.Model(&models.Delivery{}), "date", from, to).Where("status = ?", true), "total_price"); err != nil {
		return s, err
	}
	if s.Expenses, err = sum(between(db.Model(&models.Expense{}), "expense_date", from, to), "amount"); err != nil {
		return s, err
	}

	s.Revenue = ledger.Round(s.OrdersRevenue + s.DeliveriesRevenue)
	s.Profit = ledger.Round(s.Revenue - s.Expenses)
	return s, nil
}

// ExpensesByCategory totals expenses per category, largest first.
func ExpensesByCategory(db *gorm.DB, from, to time.Time) ([]CategoryExpense, error) {
	out := []CategoryExpense{}
	err := between(db.Model(&models.Expense{}), "expense_date", from, to).
		Select("category, SUM(amount) AS total_amount").
		Group("category").
		Order("total_amount desc").
		Scan(&out).Error
	for i := range out {
		out[i].TotalAmount = ledger.Round(out[i].TotalAmount)
	}
	return out, err
}

// Daily breaks [from, to] down per day, oldest first. Every day in the range
// is present even when nothing happened.
func Daily(db *gorm.DB, from, to time.Time) ([]DailyStat, error) {
	from, to = Day(from), Day(to)
	index := map[string]*DailyStat{}
	var out []DailyStat
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, DailyStat{Date: d.Format("2006-01-02")})
	}
	for i := range out {
		index[out[i].Date] = &out[i]
	}

	var orders []models.Order
	if err := between(db.Select("date", "status", "total_price"), "date", from, to).Find(&orders).Error; err != nil {
		return nil, err
	}
	for _, o := range orders {
		if s := index[o.Date.UTC().Format("2006-01-02")]; s != nil {
			s.OrdersCount++
			if o.Status {
				s.Revenue += o.TotalPrice
			}
		}
	}

	var deliveries []models.Delivery
	if err := between(db.Select("date", "status", "total_price"), "date", from, to).Find(&deliveries).Error; err != nil {
		return nil, err
	}
	for _, d := range deliveries {
		if s := index[d.Date.UTC().Format("2006-01-02")]; s != nil {
			s.DeliveriesCount++
			if d.Status {
				s.Revenue += d.TotalPrice
			}
		}
	}

	var expenses []models.Expense
	if err := between(db.Select("expense_date", "amount"), "expense_date", from, to).Find(&expenses).Error; err != nil {
		return nil, err
	}
	for _, e := range expenses {
		if s := index[e.ExpenseDate.UTC().Format("2006-01-02")]; s != nil {
			s.Expenses += e.Amount
		}
	}

	for i := range out {
		out[i].Revenue = ledger.Round(out[i].Revenue)
		out[i].Expenses = ledger.Round(out[i].Expenses)
		out[i].Profit = ledger.Round(out[i].Revenue - out[i].Expenses)
	}
	return out, nil
}

// TopProducts ranks products by units sold across both channels.
func TopProducts(db *gorm.DB, from, to time.Time, limit int) ([]TopProduct, error) {
	merged := map[uint]*TopProduct{}
	for _, ch := range []struct{ items, parent, fk string }{
		{"order_items", "orders", "order_id"},
		{"delivery_items", "deliveries", "delivery_id"},
	} {
		var rows []TopProduct
		q := db.Table(ch.items+" AS i").
			Select("i.product_id AS product_id, p.name AS product_name, SUM(i.quantity) AS total_quantity, SUM(i.subtotal) AS total_revenue").
			Joins("JOIN "+ch.parent+" AS o ON o.id = i."+ch.fk).
			Joins("JOIN products AS p ON p.id = i.product_id").
			Group("i.product_id, p.name")
		if err := between(q, "o.date", from, to).Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			if m, ok := merged[r.ProductID]; ok {
				m.TotalQuantity += r.TotalQuantity
				m.TotalRevenue += r.TotalRevenue
				continue
			}
			r := r
			merged[r.ProductID] = &r
		}
	}

	out := make([]TopProduct, 0, len(merged))
	for _, p := range merged {
		p.TotalRevenue = ledger.Round(p.TotalRevenue)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalQuantity != out[j].TotalQuantity {
			return out[i].TotalQuantity > out[j].TotalQuantity
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TopCustomers ranks customers with at least one order by order count, then spend.
func TopCustomers(db *gorm.DB, limit int) ([]TopCustomer, error) {
	var users []models.User
	err := db.Where("number_of_orders > 0").
		Order("number_of_orders desc, total_spent desc, id asc").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	out := make([]TopCustomer, 0, len(users))
	for _, u := range users {
		out = append(out, TopCustomer{
			UserID: u.ID, Name: u.Name, LastName: u.LastName,
			TotalOrders: u.NumberOfOrders, TotalSpent: u.TotalSpent,
		})
	}
	return out, nil
}
