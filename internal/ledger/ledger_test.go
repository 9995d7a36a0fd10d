package ledger

import (
	"net/http"
	"testing"
	"time"

	"restaurant-backend/internal/apptest"
	"restaurant-backend/internal/database/dbtest"
	"restaurant-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func balanceOf(t *testing.T, db *gorm.DB) float64 {
	t.Helper()
	b, err := GetBalance(db)
	require.NoError(t, err)
	return b.CurrentBalance
}

func TestRound(t *testing.T) {
	assert.Equal(t, 10.13, Round(10.125))
	assert.Equal(t, -10.13, Round(-10.125))
	assert.Equal(t, 0.3, Round(0.1+0.2))
}

func TestGetBalanceCreatesDefaultRow(t *testing.T) {
	db := dbtest.Setup(t)

	b, err := GetBalance(db)
	require.NoError(t, err)
	assert.Zero(t, b.CurrentBalance)
	assert.Equal(t, models.DefaultLowBalanceThreshold, b.LowBalanceThreshold)

	again, err := GetBalance(db)
	require.NoError(t, err)
	assert.Equal(t, b.ID, again.ID)
}

func TestRecordMovesBalance(t *testing.T) {
	db := dbtest.Setup(t)

	in, err := RecordIncome(db, 1500.556, "Income from table order #1 - Table 3", 1, models.ReferenceOrder, "")
	require.NoError(t, err)
	assert.Equal(t, 1500.56, in.Amount)
	assert.Zero(t, in.BalanceBefore)
	assert.Equal(t, 1500.56, in.BalanceAfter)

	out, err := RecordExpense(db, 500, "Gas", 7, "")
	require.NoError(t, err)
	assert.Equal(t, 1500.56, out.BalanceBefore)
	assert.Equal(t, 1000.56, out.BalanceAfter)

	sal, err := RecordSalaryPayment(db, 1000, 3, "Ana Diaz", "")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeSalaryPayment, sal.Type)
	assert.Equal(t, "Salary payment - Ana Diaz", sal.Description)

	assert.Equal(t, 0.56, balanceOf(t, db))
}

func TestRecordRejectsInvalidAmounts(t *testing.T) {
	db := dbtest.Setup(t)

	_, err := RecordIncome(db, 0, "x", 1, models.ReferenceOrder, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = RecordExpense(db, -5, "x", 1, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Adjust(db, 0, "nothing", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Record(db, Entry{Type: "BONUS", Amount: 10})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestInitializeOnlyOnce(t *testing.T) {
	db := dbtest.Setup(t)

	threshold := 5000.0
	b, err := Initialize(db, 20000, &threshold)
	require.NoError(t, err)
	assert.Equal(t, 20000.0, b.CurrentBalance)
	assert.Equal(t, 5000.0, b.LowBalanceThreshold)

	var txs []models.Transaction
	require.NoError(t, db.Find(&txs).Error)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionTypeAdjustment, txs[0].Type)
	assert.Equal(t, models.ReferenceBalance, txs[0].ReferenceType)

	_, err = Initialize(db, 100, nil)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	_, err = Initialize(db, -1, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSufficientFundsAndLowBalance(t *testing.T) {
	db := dbtest.Setup(t)
	_, err := Initialize(db, 1000, nil)
	require.NoError(t, err)

	ok, err := HasSufficientFunds(db, 1000)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasSufficientFunds(db, 1000.01)
	require.NoError(t, err)
	assert.False(t, ok)

	low, err := IsLowBalance(db)
	require.NoError(t, err)
	assert.True(t, low)

	_, err = UpdateThreshold(db, 500)
	require.NoError(t, err)
	low, err = IsLowBalance(db)
	require.NoError(t, err)
	assert.False(t, low)

	_, err = UpdateThreshold(db, -1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRecalculateReplaysSignedAdjustments(t *testing.T) {
	db := dbtest.Setup(t)

	_, err := Initialize(db, 1000, nil)
	require.NoError(t, err)
	_, err = Adjust(db, -200, "Cash count correction", "")
	require.NoError(t, err)
	_, err = RecordIncome(db, 500, "Income", 1, models.ReferenceOrder, "")
	require.NoError(t, err)
	_, err = RecordExpense(db, 50, "Napkins", 2, "")
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Balance{}).Where("1 = 1").Update("current_balance", 99999).Error)
	require.NoError(t, db.Model(&models.Transaction{}).Where("1 = 1").Update("balance_after", 0).Error)

	b, err := Recalculate(db)
	require.NoError(t, err)
	assert.Equal(t, 1250.0, b.CurrentBalance)

	var txs []models.Transaction
	require.NoError(t, db.Order("created_at asc, id asc").Find(&txs).Error)
	require.Len(t, txs, 4)
	assert.Equal(t, []float64{1000, 800, 1300, 1250}, []float64{
		txs[0].BalanceAfter, txs[1].BalanceAfter, txs[2].BalanceAfter, txs[3].BalanceAfter,
	})
	assert.Equal(t, 800.0, txs[2].BalanceBefore)
}

func TestRecalculateEmptyLedger(t *testing.T) {
	db := dbtest.Setup(t)
	require.NoError(t, db.Create(&models.Balance{CurrentBalance: 750, LowBalanceThreshold: 10}).Error)

	b, err := Recalculate(db)
	require.NoError(t, err)
	assert.Zero(t, b.CurrentBalance)
}

func TestDeleteTransactionRecalculates(t *testing.T) {
	db := dbtest.Setup(t)

	_, err := Initialize(db, 1000, nil)
	require.NoError(t, err)
	exp, err := RecordExpense(db, 300, "Rent share", 9, "")
	require.NoError(t, err)
	_, err = RecordIncome(db, 100, "Income", 4, models.ReferenceDelivery, "")
	require.NoError(t, err)
	assert.Equal(t, 800.0, balanceOf(t, db))

	require.NoError(t, DeleteTransaction(db, exp.ID))
	assert.Equal(t, 1100.0, balanceOf(t, db))

	assert.ErrorIs(t, DeleteTransaction(db, exp.ID), gorm.ErrRecordNotFound)
}

func TestReferenceSync(t *testing.T) {
	db := dbtest.Setup(t)

	_, err := Initialize(db, 1000, nil)
	require.NoError(t, err)
	_, err = RecordExpense(db, 300, "Vegetables", 5, "")
	require.NoError(t, err)

	found, err := SyncReferenceAmount(db, models.ReferenceExpense, 5, 120, "Expense: Vegetables")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 880.0, balanceOf(t, db))

	found, err = SyncReferenceAmount(db, models.ReferenceExpense, 77, 10, "")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, DeleteByReference(db, models.ReferenceExpense, 5))
	assert.Equal(t, 1000.0, balanceOf(t, db))
}

func TestMigrateHistoricalData(t *testing.T) {
	db := dbtest.Setup(t)
	user := dbtest.CreateUser(t, db)
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&models.Order{
		Date: day, Time: "12:30:00", TotalPrice: 40000, TableNumber: 2, UserID: user.ID,
		PaymentStatus: models.PaymentStatusVerified, PaymentMethod: models.PaymentMethodCash,
	}).Error)
	require.NoError(t, db.Create(&models.Order{
		Date: day, Time: "13:00:00", TotalPrice: 9999, TableNumber: 3, UserID: user.ID,
		PaymentStatus: models.PaymentStatusPending, PaymentMethod: models.PaymentMethodCash,
	}).Error)
	require.NoError(t, db.Create(&models.Delivery{
		Date: day, Time: "19:00:00", TotalPrice: 20000, Status: true, UserID: user.ID,
		DeliveryAddress: "Calle 1", DeliveryPhone: "300",
		PaymentStatus: models.PaymentStatusPending, PaymentMethod: models.PaymentMethodCash,
	}).Error)
	require.NoError(t, db.Create(&models.Expense{
		Description: "Meat", Category: "Supplies", Amount: 15000, ExpenseDate: day.AddDate(0, 0, 1),
	}).Error)
	require.NoError(t, db.Create(&models.Expense{
		Description: "Salary payment - Ana", Category: models.PayrollExpenseCategory, Amount: 1000, ExpenseDate: day,
	}).Error)

	res, err := MigrateHistoricalData(db)
	require.NoError(t, err)
	assert.Equal(t, 1, res.OrdersMigrated)
	assert.Equal(t, 1, res.DeliveriesMigrated)
	assert.Equal(t, 1, res.ExpensesMigrated)
	assert.Equal(t, 60000.0, res.TotalIncome)
	assert.Equal(t, 15000.0, res.TotalExpenses)
	assert.Equal(t, 45000.0, res.Net)
	assert.Equal(t, 45000.0, res.FinalBalance)

	again, err := MigrateHistoricalData(db)
	require.NoError(t, err)
	assert.Zero(t, again.OrdersMigrated+again.DeliveriesMigrated+again.ExpensesMigrated)
	assert.Equal(t, 45000.0, again.FinalBalance)
}

func TestSummarize(t *testing.T) {
	db := dbtest.Setup(t)

	_, err := Initialize(db, 1000, nil)
	require.NoError(t, err)
	_, err = RecordIncome(db, 400, "Income", 1, models.ReferenceOrder, "")
	require.NoError(t, err)
	_, err = Adjust(db, -100, "Correction", "")
	require.NoError(t, err)

	now := time.Now()
	s, err := Summarize(db, now.Year(), int(now.Month()))
	require.NoError(t, err)
	assert.Equal(t, 1400.0, s.TotalIn)
	assert.Equal(t, 100.0, s.TotalOut)
	assert.Equal(t, 1300.0, s.Net)
	assert.Zero(t, s.OpeningBalance)
	assert.Equal(t, 1300.0, s.ClosingBalance)

	points, err := DailyBalances(db, 7, now)
	require.NoError(t, err)
	require.Len(t, points, 7)
	assert.Equal(t, 1300.0, points[6].Balance)
	assert.Zero(t, points[0].Balance)
}

func newLedgerApp() *fiber.App {
	app := apptest.NewApp()
	g := app.Group("/api/admin/balance", apptest.As(models.RoleAdmin, 1))
	g.Get("/", GetBalanceHandler())
	g.Post("/initialize", InitializeHandler())
	g.Put("/threshold", UpdateThresholdHandler())
	g.Post("/adjust", AdjustHandler())
	g.Post("/recalculate", RecalculateHandler())
	g.Get("/transactions", ListTransactionsHandler())
	g.Delete("/transactions/:id", DeleteTransactionHandler())
	return app
}

func TestBalanceHandlers(t *testing.T) {
	db := dbtest.Setup(t)
	dbtest.CreateAdmin(t, db)
	app := newLedgerApp()

	resp := apptest.Do(t, app, http.MethodPost, "/api/admin/balance/initialize", map[string]any{"amount": 5000})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = apptest.Do(t, app, http.MethodPost, "/api/admin/balance/initialize", map[string]any{"amount": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = apptest.Do(t, app, http.MethodPost, "/api/admin/balance/adjust", map[string]any{"amount": -500})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = apptest.Do(t, app, http.MethodPost, "/api/admin/balance/adjust", map[string]any{"amount": -500, "description": "Petty cash"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = apptest.Do(t, app, http.MethodGet, "/api/admin/balance/", nil)
	var bal BalanceResponse
	apptest.Decode(t, resp, &bal)
	assert.Equal(t, 4500.0, bal.CurrentBalance)
	assert.True(t, bal.IsLow)

	resp = apptest.Do(t, app, http.MethodGet, "/api/admin/balance/transactions?type=adjustment", nil)
	var txs []models.Transaction
	apptest.Decode(t, resp, &txs)
	require.Len(t, txs, 2)
	assert.Equal(t, -500.0, txs[0].Amount)

	resp = apptest.Do(t, app, http.MethodGet, "/api/admin/balance/transactions?type=bonus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = apptest.Do(t, app, http.MethodDelete, "/api/admin/balance/transactions/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var logs []models.AuditLog
	require.NoError(t, db.Where("entity_type = ?", "balance").Find(&logs).Error)
	assert.Len(t, logs, 2)
}

func TestSalaryPaymentRequiresFunds(t *testing.T) {
	db := dbtest.Setup(t)
	_, err := Initialize(db, 300, nil)
	require.NoError(t, err)

	_, err = RecordSalaryPayment(db, 500, 1, "Ana Ruiz", "")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 300.0, balanceOf(t, db))

	// expenses may still overdraw
	_, err = RecordExpense(db, 500, "Supplies", 1, "")
	require.NoError(t, err)
	assert.Equal(t, -200.0, balanceOf(t, db))
}

func TestRecordIncomeOnce(t *testing.T) {
	db := dbtest.Setup(t)

	first, err := RecordIncomeOnce(db, 100, "Income from table order #7 - Table 1", 7, models.ReferenceOrder, "")
	require.NoError(t, err)
	require.NotNil(t, first)

	again, err := RecordIncomeOnce(db, 100, "Income from table order #7 - Table 1", 7, models.ReferenceOrder, "")
	require.NoError(t, err)
	assert.Nil(t, again)

	booked, err := HasReference(db, models.ReferenceDelivery, 7)
	require.NoError(t, err)
	assert.False(t, booked)
	assert.Equal(t, 100.0, balanceOf(t, db))
}
