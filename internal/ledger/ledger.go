// Package ledger keeps the restaurant's running cash balance. Every change to
// the balance is a Transaction row carrying the balance before and after it,
// so the balance can always be rebuilt by replaying the rows in order.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/metrics"
	"restaurant-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAlreadyInitialized = errors.New("balance is already initialized")
	ErrInvalidAmount      = errors.New("amount is invalid")
	ErrInsufficientFunds  = errors.New("insufficient funds")
)

// Round rounds to cents, halves away from zero.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

// Entry describes a transaction to record.
type Entry struct {
	Type          models.TransactionType
	Amount        float64
	Description   string
	ReferenceID   *uint
	ReferenceType models.ReferenceType
	Notes         string

	// RequireFunds refuses a debit larger than the current balance.
	RequireFunds bool
}

// Apply returns the balance after a transaction of type t and amount.
func Apply(balance float64, t models.TransactionType, amount float64) float64 {
	if t.Credits() {
		return Round(balance + amount)
	}
	return Round(balance - amount)
}

// GetBalance returns the balance row, creating it with zero funds and the
// default threshold on first use.
func GetBalance(db *gorm.DB) (*models.Balance, error) {
	var b models.Balance
	err := db.Order("id asc").First(&b).Error
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load balance: %w", err)
	}

	b = models.Balance{
		CurrentBalance:      0,
		LowBalanceThreshold: models.DefaultLowBalanceThreshold,
		LastUpdated:         time.Now(),
	}
	if err := db.Create(&b).Error; err != nil {
		return nil, fmt.Errorf("create balance: %w", err)
	}
	logger.Warn("balance row missing, created with zero funds")
	return &b, nil
}

// lockBalance reads the balance row for update inside tx.
func lockBalance(tx *gorm.DB) (*models.Balance, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var b models.Balance
	err := q.Order("id asc").First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return GetBalance(tx)
	}
	if err != nil {
		return nil, fmt.Errorf("lock balance: %w", err)
	}
	return &b, nil
}

// Record writes the transaction and moves the balance, atomically.
func Record(db *gorm.DB, e Entry) (*models.Transaction, error) {
	if !e.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidAmount, e.Type)
	}
	e.Amount = Round(e.Amount)
	if e.Type == models.TransactionTypeAdjustment {
		if e.Amount == 0 {
			return nil, fmt.Errorf("%w: adjustment must not be zero", ErrInvalidAmount)
		}
	} else if e.Amount <= 0 {
		return nil, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}

	var out models.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		bal, err := lockBalance(tx)
		if err != nil {
			return err
		}

		before := Round(bal.CurrentBalance)
		if e.RequireFunds && !e.Type.Credits() && before < e.Amount {
			return fmt.Errorf("%w: available %.2f, required %.2f", ErrInsufficientFunds, before, e.Amount)
		}
		after := Apply(before, e.Type, e.Amount)
		now := time.Now()

		out = models.Transaction{
			Type:          e.Type,
			Amount:        e.Amount,
			BalanceBefore: before,
			BalanceAfter:  after,
			Description:   e.Description,
			ReferenceID:   e.ReferenceID,
			ReferenceType: e.ReferenceType,
			Notes:         e.Notes,
			CreatedAt:     now,
		}
		if err := tx.Create(&out).Error; err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		return tx.Model(bal).Updates(map[string]interface{}{
			"current_balance": after,
			"last_updated":    now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.LedgerTransactions.WithLabelValues(string(out.Type)).Inc()
	metrics.CurrentBalance.Set(out.BalanceAfter)
	logger.Info("ledger transaction recorded",
		"type", out.Type, "amount", out.Amount,
		"balance_before", out.BalanceBefore, "balance_after", out.BalanceAfter)
	return &out, nil
}

func RecordIncome(db *gorm.DB, amount float64, description string, refID uint, refType models.ReferenceType, notes string) (*models.Transaction, error) {
	return Record(db, Entry{
		Type:          models.TransactionTypeIncome,
		Amount:        amount,
		Description:   description,
		ReferenceID:   &refID,
		ReferenceType: refType,
		Notes:         notes,
	})
}

// HasReference reports whether a transaction already points at refType/refID.
func HasReference(db *gorm.DB, refType models.ReferenceType, refID uint) (bool, error) {
	var n int64
	err := db.Model(&models.Transaction{}).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Count(&n).Error
	return n > 0, err
}

// RecordIncomeOnce is RecordIncome for references that may already have been
// booked, e.g. by the historical migration. It returns nil, nil in that case.
func RecordIncomeOnce(db *gorm.DB, amount float64, description string, refID uint, refType models.ReferenceType, notes string) (*models.Transaction, error) {
	booked, err := HasReference(db, refType, refID)
	if err != nil {
		return nil, fmt.Errorf("check income reference: %w", err)
	}
	if booked {
		logger.Info("income already booked", "reference_type", refType, "reference_id", refID)
		return nil, nil
	}
	return RecordIncome(db, amount, description, refID, refType, notes)
}

func RecordExpense(db *gorm.DB, amount float64, description string, expenseID uint, notes string) (*models.Transaction, error) {
	return Record(db, Entry{
		Type:          models.TransactionTypeExpense,
		Amount:        amount,
		Description:   description,
		ReferenceID:   &expenseID,
		ReferenceType: models.ReferenceExpense,
		Notes:         notes,
	})
}

func RecordSalaryPayment(db *gorm.DB, amount float64, salaryPaymentID uint, employeeName, notes string) (*models.Transaction, error) {
	return Record(db, Entry{
		Type:          models.TransactionTypeSalaryPayment,
		Amount:        amount,
		Description:   "Salary payment - " + employeeName,
		ReferenceID:   &salaryPaymentID,
		ReferenceType: models.ReferenceSalaryPayment,
		Notes:         notes,
		RequireFunds:  true,
	})
}

// Initialize sets the opening balance. It is allowed while no transaction has
// been recorded yet; the opening amount becomes the first ADJUSTMENT.
func Initialize(db *gorm.DB, amount float64, threshold *float64) (*models.Balance, error) {
	amount = Round(amount)
	if amount < 0 {
		return nil, fmt.Errorf("%w: initial balance must not be negative", ErrInvalidAmount)
	}
	if threshold != nil && *threshold < 0 {
		return nil, fmt.Errorf("%w: threshold must not be negative", ErrInvalidAmount)
	}

	var bal *models.Balance
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Transaction{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyInitialized
		}

		var err error
		bal, err = lockBalance(tx)
		if err != nil {
			return err
		}

		now := time.Now()
		bal.CurrentBalance = amount
		bal.LastUpdated = now
		if threshold != nil {
			bal.LowBalanceThreshold = Round(*threshold)
		}
		if err := tx.Save(bal).Error; err != nil {
			return err
		}

		// a zero opening balance leaves nothing to replay
		if amount == 0 {
			return nil
		}
		return tx.Create(&models.Transaction{
			Type:          models.TransactionTypeAdjustment,
			Amount:        amount,
			BalanceBefore: 0,
			BalanceAfter:  amount,
			Description:   "Balance initialization",
			ReferenceType: models.ReferenceBalance,
			Notes:         "Opening balance",
			CreatedAt:     now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.CurrentBalance.Set(bal.CurrentBalance)
	logger.Info("balance initialized", "amount", amount)
	return bal, nil
}

// Adjust records a manual correction. Negative amounts take money out.
func Adjust(db *gorm.DB, amount float64, description, notes string) (*models.Transaction, error) {
	if description == "" {
		description = "Manual balance adjustment"
	}
	return Record(db, Entry{
		Type:          models.TransactionTypeAdjustment,
		Amount:        amount,
		Description:   description,
		ReferenceType: models.ReferenceBalance,
		Notes:         notes,
	})
}

func UpdateThreshold(db *gorm.DB, threshold float64) (*models.Balance, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("%w: threshold must not be negative", ErrInvalidAmount)
	}
	bal, err := GetBalance(db)
	if err != nil {
		return nil, err
	}
	if err := db.Model(bal).Update("low_balance_threshold", Round(threshold)).Error; err != nil {
		return nil, fmt.Errorf("update threshold: %w", err)
	}
	bal.LowBalanceThreshold = Round(threshold)
	return bal, nil
}

func HasSufficientFunds(db *gorm.DB, amount float64) (bool, error) {
	bal, err := GetBalance(db)
	if err != nil {
		return false, err
	}
	return bal.CurrentBalance >= Round(amount), nil
}

func IsLowBalance(db *gorm.DB) (bool, error) {
	bal, err := GetBalance(db)
	if err != nil {
		return false, err
	}
	return bal.IsLow(), nil
}
