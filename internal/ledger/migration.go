package ledger

import (
	"fmt"
	"time"

	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"

	"gorm.io/gorm"
)

type MigrationResult struct {
	OrdersMigrated     int     `json:"orders_migrated"`
	DeliveriesMigrated int     `json:"deliveries_migrated"`
	ExpensesMigrated   int     `json:"expenses_migrated"`
	TotalIncome        float64 `json:"total_income"`
	TotalExpenses      float64 `json:"total_expenses"`
	Net                float64 `json:"net"`
	FinalBalance       float64 `json:"final_balance"`
}

// at joins a calendar date with a "15:04:05" time of day.
func at(date time.Time, clock string) time.Time {
	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		return time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, time.UTC)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func missingReference(refType models.ReferenceType, column string) string {
	return fmt.Sprintf("NOT EXISTS (SELECT 1 FROM transactions t WHERE t.reference_type = '%s' AND t.reference_id = %s)", refType, column)
}

// MigrateHistoricalData backfills ledger rows for sales and expenses recorded
// before the ledger existed, then rebuilds the balance. Running it twice adds nothing.
func MigrateHistoricalData(db *gorm.DB) (*MigrationResult, error) {
	res := &MigrationResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		var orders []models.Order
		if err := tx.
			Where("(payment_status = ? OR status = ?)", models.PaymentStatusVerified, true).
			Where(missingReference(models.ReferenceOrder, "orders.id")).
			Order("date asc, id asc").
			Find(&orders).Error; err != nil {
			return fmt.Errorf("load orders: %w", err)
		}
		for _, o := range orders {
			id := o.ID
			if err := tx.Create(&models.Transaction{
				Type:          models.TransactionTypeIncome,
				Amount:        Round(o.TotalPrice),
				Description:   fmt.Sprintf("Income from table order #%d - Table %d (historical migration)", o.ID, o.TableNumber),
				ReferenceID:   &id,
				ReferenceType: models.ReferenceOrder,
				CreatedAt:     at(o.Date, o.Time),
			}).Error; err != nil {
				return err
			}
			res.OrdersMigrated++
			res.TotalIncome += o.TotalPrice
		}

		var deliveries []models.Delivery
		if err := tx.
			Where("(payment_status = ? OR status = ?)", models.PaymentStatusVerified, true).
			Where(missingReference(models.ReferenceDelivery, "deliveries.id")).
			Order("date asc, id asc").
			Find(&deliveries).Error; err != nil {
			return fmt.Errorf("load deliveries: %w", err)
		}
		for _, d := range deliveries {
			id := d.ID
			if err := tx.Create(&models.Transaction{
				Type:          models.TransactionTypeIncome,
				Amount:        Round(d.TotalPrice),
				Description:   fmt.Sprintf("Income from delivery #%d - Address: %s (historical migration)", d.ID, d.DeliveryAddress),
				ReferenceID:   &id,
				ReferenceType: models.ReferenceDelivery,
				CreatedAt:     at(d.Date, d.Time),
			}).Error; err != nil {
				return err
			}
			res.DeliveriesMigrated++
			res.TotalIncome += d.TotalPrice
		}

		var expenses []models.Expense
		if err := tx.
			Where("category <> ?", models.PayrollExpenseCategory).
			Where(missingReference(models.ReferenceExpense, "expenses.id")).
			Order("expense_date asc, id asc").
			Find(&expenses).Error; err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		for _, e := range expenses {
			id := e.ID
			if err := tx.Create(&models.Transaction{
				Type:          models.TransactionTypeExpense,
				Amount:        Round(e.Amount),
				Description:   fmt.Sprintf("Expense: %s (historical migration)", e.Description),
				ReferenceID:   &id,
				ReferenceType: models.ReferenceExpense,
				Notes:         "Category: " + e.Category,
				CreatedAt:     at(e.ExpenseDate, "12:00:00"),
			}).Error; err != nil {
				return err
			}
			res.ExpensesMigrated++
			res.TotalExpenses += e.Amount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	bal, err := Recalculate(db)
	if err != nil {
		return nil, err
	}

	res.TotalIncome = Round(res.TotalIncome)
	res.TotalExpenses = Round(res.TotalExpenses)
	res.Net = Round(res.TotalIncome - res.TotalExpenses)
	res.FinalBalance = bal.CurrentBalance

	logger.Info("historical ledger migration finished",
		"orders", res.OrdersMigrated, "deliveries", res.DeliveriesMigrated,
		"expenses", res.ExpensesMigrated, "net", res.Net)
	return res, nil
}
