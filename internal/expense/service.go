package expense

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"restaurant-backend/internal/audit"
	"restaurant-backend/internal/ledger"
	"restaurant-backend/internal/models"

	"gorm.io/gorm"
)

func init() {
	audit.Register("expense", restorer{})
}

func isPayroll(category string) bool {
	return strings.EqualFold(strings.TrimSpace(category), models.PayrollExpenseCategory)
}

func ledgerDescription(e *models.Expense) string {
	return "Expense: " + e.Description
}

// Create stores the expense and, outside payroll, its EXPENSE transaction.
func Create(db *gorm.DB, e *models.Expense) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(e).Error; err != nil {
			return fmt.Errorf("create expense: %w", err)
		}
		if isPayroll(e.Category) {
			return nil
		}
		_, err := ledger.RecordExpense(tx, e.Amount, ledgerDescription(e), e.ID, "Category: "+e.Category)
		return err
	})
}

// Update saves e and brings its ledger transaction in line with the new amount.
// An expense moved out of payroll gets a transaction, one moved into it loses it.
func Update(db *gorm.DB, e *models.Expense) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(e).Error; err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		return syncLedger(tx, e)
	})
}

func syncLedger(tx *gorm.DB, e *models.Expense) error {
	if isPayroll(e.Category) {
		return ledger.DeleteByReference(tx, models.ReferenceExpense, e.ID)
	}
	found, err := ledger.SyncReferenceAmount(tx, models.ReferenceExpense, e.ID, e.Amount, ledgerDescription(e))
	if err != nil || found {
		return err
	}
	_, err = ledger.RecordExpense(tx, e.Amount, ledgerDescription(e), e.ID, "Category: "+e.Category)
	return err
}

// Delete removes the expense and its ledger transactions.
func Delete(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Expense{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete expense: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return ledger.DeleteByReference(tx, models.ReferenceExpense, id)
	})
}

// CreateSalaryExpense books a payroll expense. It never touches the ledger,
// payroll records the SALARY_PAYMENT transaction itself.
func CreateSalaryExpense(db *gorm.DB, emp *models.Employee, amount float64, date time.Time) (*models.Expense, error) {
	e := models.Expense{
		Description:   "Salary payment - " + emp.FullName(),
		Category:      models.PayrollExpenseCategory,
		Amount:        ledger.Round(amount),
		ExpenseDate:   date,
		PaymentMethod: "Transfer",
		Notes:         fmt.Sprintf("Automatic salary payment for employee #%d", emp.ID),
	}
	if err := db.Create(&e).Error; err != nil {
		return nil, fmt.Errorf("create salary expense: %w", err)
	}
	return &e, nil
}

type restorer struct{}

func (restorer) Delete(tx *gorm.DB, id uint) error {
	return Delete(tx, id)
}

func (restorer) Restore(tx *gorm.DB, id uint, data []byte) error {
	var snap models.Expense
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	var e models.Expense
	if err := tx.First(&e, id).Error; err != nil {
		return err
	}
	e.Description = snap.Description
	e.Category = snap.Category
	e.Amount = snap.Amount
	e.ExpenseDate = snap.ExpenseDate
	e.PaymentMethod = snap.PaymentMethod
	e.Notes = snap.Notes
	e.ReceiptURL = snap.ReceiptURL
	return Update(tx, &e)
}

func (restorer) Recreate(tx *gorm.DB, data []byte) error {
	var e models.Expense
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	return Create(tx, &e)
}
