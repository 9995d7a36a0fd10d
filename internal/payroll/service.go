package payroll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"restaurant-backend/internal/alert"
	"restaurant-backend/internal/expense"
	"restaurant-backend/internal/ledger"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/metrics"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/notify"

	"gorm.io/gorm"
)

type Outcome string

const (
	OutcomePaid      Outcome = "paid"
	OutcomePending   Outcome = "pending"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeDuplicate Outcome = "duplicate"
)

type RunResult struct {
	Date       string `json:"date"`
	Considered int    `json:"considered"`
	Paid       int    `json:"paid"`
	Pending    int    `json:"pending"`
	Failed     int    `json:"failed"`
	Duplicates int    `json:"duplicates"`
}

type PendingResult struct {
	Pending   int  `json:"pending"`
	Paid      int  `json:"paid"`
	Failed    int  `json:"failed"`
	Skipped   int  `json:"skipped"`
	Remaining int  `json:"remaining"`
	Stopped   bool `json:"stopped_for_funds"`
}

type SalaryPaidEvent struct {
	PaymentID   uint    `json:"payment_id"`
	EmployeeID  uint    `json:"employee_id"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
}

func periodNotes(p *models.SalaryPayment) string {
	return fmt.Sprintf("Automatic payment - Period: %s to %s",
		p.PeriodStart.Format("2006-01-02"), p.PeriodEnd.Format("2006-01-02"))
}

// ProcessSalaryPayments pays every configured employee whose pay day is today.
// One employee failing never stops the others.
func ProcessSalaryPayments(ctx context.Context, db *gorm.DB, now time.Time) (*RunResult, error) {
	runMu.Lock()
	defer runMu.Unlock()

	today := Day(now)
	res := &RunResult{Date: today.Format("2006-01-02")}

	var employees []models.Employee
	if err := db.Where("salary IS NOT NULL AND payment_frequency IS NOT NULL AND payment_day IS NOT NULL").
		Order("id asc").Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}

	for i := range employees {
		emp := &employees[i]
		if !emp.HasSalaryConfig() {
			continue
		}
		res.Considered++

		out, err := processEmployee(ctx, db, emp, today)
		if err != nil {
			logger.Error("salary payment failed", "employee_id", emp.ID, "error", err)
		}
		switch out {
		case OutcomePaid:
			res.Paid++
		case OutcomePending:
			res.Pending++
		case OutcomeFailed:
			res.Failed++
		case OutcomeDuplicate:
			res.Duplicates++
		}
	}

	logger.Info("salary payments processed",
		"date", res.Date, "considered", res.Considered, "paid", res.Paid,
		"pending", res.Pending, "failed", res.Failed, "duplicates", res.Duplicates)
	return res, nil
}

func processEmployee(ctx context.Context, db *gorm.DB, emp *models.Employee, today time.Time) (Outcome, error) {
	if today.Day() != PayDay(*emp.PaymentDay, today) {
		return OutcomeSkipped, nil
	}

	var existing int64
	if err := db.Model(&models.SalaryPayment{}).
		Where("employee_id = ? AND payment_date = ?", emp.ID, today).
		Count(&existing).Error; err != nil {
		return OutcomeFailed, err
	}
	if existing > 0 {
		logger.Info("salary already processed", "employee_id", emp.ID, "date", today.Format("2006-01-02"))
		return OutcomeDuplicate, nil
	}

	freq := *emp.PaymentFrequency
	start, end := Period(freq, today)
	payment := models.SalaryPayment{
		EmployeeID:  emp.ID,
		Amount:      Amount(*emp.Salary, freq),
		PaymentDate: today,
		PeriodStart: start,
		PeriodEnd:   end,
		Frequency:   freq,
		Status:      models.PaymentStatusPending,
	}

	bal, err := ledger.GetBalance(db)
	if err != nil {
		return OutcomeFailed, err
	}
	if bal.CurrentBalance < payment.Amount {
		payment.FailureReason = fmt.Sprintf("Insufficient funds. Available balance: %.2f", bal.CurrentBalance)
		if err := db.Create(&payment).Error; err != nil {
			return OutcomeFailed, fmt.Errorf("create pending payment: %w", err)
		}
		if _, err := alert.LowBalance(ctx, db, payment.Amount, bal.CurrentBalance); err != nil {
			logger.Error("low balance alert failed", "error", err)
		}
		metrics.SalaryPayments.WithLabelValues(string(models.PaymentStatusPending)).Inc()
		logger.Warn("salary payment pending for funds",
			"employee_id", emp.ID, "amount", payment.Amount, "available", bal.CurrentBalance)
		return OutcomePending, nil
	}

	if err := db.Create(&payment).Error; err != nil {
		return OutcomeFailed, fmt.Errorf("create payment: %w", err)
	}
	if err := pay(ctx, db, &payment, emp); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return OutcomePending, nil
		}
		return OutcomeFailed, err
	}
	return OutcomePaid, nil
}

// ErrNotPending is returned by pay when another run already settled the payment.
var ErrNotPending = errors.New("salary payment is no longer pending")

// runMu serialises payroll runs started from the scheduler, HTTP and the CLI
// within one process. Across processes the PENDING claim in pay decides.
var runMu sync.Mutex

// pay claims a PENDING payment, books the expense and the ledger transaction
// and marks it PAID. On failure nothing is booked and the payment is marked
// FAILED.
func pay(ctx context.Context, db *gorm.DB, p *models.SalaryPayment, emp *models.Employee) error {
	now := time.Now()
	var expenseID uint
	err := db.Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&models.SalaryPayment{}).
			Where("id = ? AND status = ?", p.ID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":         models.PaymentStatusPaid,
				"processed_at":   now,
				"failure_reason": "",
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return ErrNotPending
		}

		exp, err := expense.CreateSalaryExpense(tx, emp, p.Amount, p.PaymentDate)
		if err != nil {
			return err
		}
		if _, err := ledger.RecordSalaryPayment(tx, p.Amount, p.ID, emp.FullName(), periodNotes(p)); err != nil {
			return err
		}
		expenseID = exp.ID
		return tx.Model(&models.SalaryPayment{}).Where("id = ?", p.ID).Update("expense_id", exp.ID).Error
	})
	if errors.Is(err, ErrNotPending) {
		logger.Info("salary payment already settled", "payment_id", p.ID)
		return err
	}
	if errors.Is(err, ledger.ErrInsufficientFunds) {
		logger.Warn("salary payment left pending for funds", "payment_id", p.ID, "error", err)
		if uerr := db.Model(&models.SalaryPayment{}).
			Where("id = ? AND status = ?", p.ID, models.PaymentStatusPending).
			Update("failure_reason", "Insufficient funds").Error; uerr != nil {
			err = errors.Join(err, uerr)
		}
		return err
	}
	if err != nil {
		reason := "Error processing payment: " + err.Error()
		if uerr := db.Model(&models.SalaryPayment{}).
			Where("id = ? AND status = ?", p.ID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":         models.PaymentStatusFailed,
				"failure_reason": reason,
			}).Error; uerr != nil {
			err = errors.Join(err, uerr)
		}
		p.Status = models.PaymentStatusFailed
		p.FailureReason = reason
		metrics.SalaryPayments.WithLabelValues(string(models.PaymentStatusFailed)).Inc()
		return err
	}

	p.Status = models.PaymentStatusPaid
	p.ProcessedAt = &now
	p.FailureReason = ""
	p.ExpenseID = &expenseID
	metrics.SalaryPayments.WithLabelValues(string(models.PaymentStatusPaid)).Inc()
	logger.Info("salary paid", "employee_id", emp.ID, "payment_id", p.ID, "amount", p.Amount)
	notify.Publish(ctx, notify.EventSalaryPaid, SalaryPaidEvent{
		PaymentID:   p.ID,
		EmployeeID:  emp.ID,
		Email:       emp.Email,
		Name:        emp.FullName(),
		Amount:      p.Amount,
		PeriodStart: p.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   p.PeriodEnd.Format("2006-01-02"),
	})
	return nil
}

// ProcessPendingPayments pays PENDING payments oldest first and stops at the
// first one the balance cannot cover.
func ProcessPendingPayments(ctx context.Context, db *gorm.DB) (*PendingResult, error) {
	runMu.Lock()
	defer runMu.Unlock()

	var pending []models.SalaryPayment
	if err := db.Preload("Employee").
		Where("status = ?", models.PaymentStatusPending).
		Order("payment_date asc, id asc").
		Find(&pending).Error; err != nil {
		return nil, fmt.Errorf("load pending payments: %w", err)
	}

	res := &PendingResult{Pending: len(pending)}
	for i := range pending {
		p := &pending[i]
		ok, err := ledger.HasSufficientFunds(db, p.Amount)
		if err != nil {
			return nil, err
		}
		if !ok {
			res.Stopped = true
			break
		}
		if err := pay(ctx, db, p, &p.Employee); err != nil {
			if errors.Is(err, ErrNotPending) {
				res.Skipped++
				continue
			}
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				res.Stopped = true
				break
			}
			logger.Error("pending salary payment failed", "payment_id", p.ID, "error", err)
			res.Failed++
			continue
		}
		res.Paid++
	}
	res.Remaining = res.Pending - res.Paid - res.Failed - res.Skipped

	logger.Info("pending salary payments processed",
		"pending", res.Pending, "paid", res.Paid, "failed", res.Failed, "stopped_for_funds", res.Stopped)
	return res, nil
}
