// Package alert raises and resolves balance alerts.
package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restaurant-backend/internal/ledger"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/metrics"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/notify"

	"gorm.io/gorm"
)

var ErrAlreadyResolved = errors.New("alert is already resolved")

func Create(ctx context.Context, db *gorm.DB, t models.AlertType, message string, severity models.AlertSeverity) (*models.Alert, error) {
	a := models.Alert{
		Type:      t,
		Status:    models.AlertStatusActive,
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}

	metrics.AlertsCreated.WithLabelValues(string(t)).Inc()
	logger.Warn("alert created", "type", t, "severity", severity, "message", message)
	notify.Publish(ctx, notify.EventAlertCreated, a)
	return &a, nil
}

// LowBalance records that a payment could not be covered.
func LowBalance(ctx context.Context, db *gorm.DB, required, available float64) (*models.Alert, error) {
	msg := fmt.Sprintf("Insufficient funds to process payment. Required: %.2f, available: %.2f", required, available)
	return Create(ctx, db, models.AlertTypeLowBalance, msg, models.SeverityHigh)
}

func ListActive(db *gorm.DB) ([]models.Alert, error) {
	var out []models.Alert
	err := db.Where("status = ?", models.AlertStatusActive).Order("created_at desc, id desc").Find(&out).Error
	return out, err
}

func ListAll(db *gorm.DB) ([]models.Alert, error) {
	var out []models.Alert
	err := db.Order("created_at desc, id desc").Find(&out).Error
	return out, err
}

func Resolve(db *gorm.DB, id uint) (*models.Alert, error) {
	var a models.Alert
	if err := db.First(&a, id).Error; err != nil {
		return nil, err
	}
	if a.Status == models.AlertStatusResolved {
		return nil, ErrAlreadyResolved
	}

	now := time.Now()
	a.Status = models.AlertStatusResolved
	a.ResolvedAt = &now
	if err := db.Model(&a).Updates(map[string]interface{}{
		"status":      a.Status,
		"resolved_at": now,
	}).Error; err != nil {
		return nil, fmt.Errorf("resolve alert: %w", err)
	}
	return &a, nil
}

func hasActive(db *gorm.DB, t models.AlertType) (bool, error) {
	var n int64
	err := db.Model(&models.Alert{}).
		Where("type = ? AND status = ?", t, models.AlertStatusActive).
		Count(&n).Error
	return n > 0, err
}

type CheckResult struct {
	Created  []models.Alert `json:"created"`
	Resolved int64          `json:"resolved"`
}

// CheckAndCreate raises threshold and pending-payment alerts at most once
// while active, and resolves threshold alerts once the balance recovers.
func CheckAndCreate(ctx context.Context, db *gorm.DB) (*CheckResult, error) {
	res := &CheckResult{Created: []models.Alert{}}

	bal, err := ledger.GetBalance(db)
	if err != nil {
		return nil, err
	}

	if bal.IsLow() {
		active, err := hasActive(db, models.AlertTypeBalanceThreshold)
		if err != nil {
			return nil, err
		}
		if !active {
			msg := fmt.Sprintf("Current balance %.2f is below the threshold of %.2f", bal.CurrentBalance, bal.LowBalanceThreshold)
			a, err := Create(ctx, db, models.AlertTypeBalanceThreshold, msg, models.SeverityMedium)
			if err != nil {
				return nil, err
			}
			res.Created = append(res.Created, *a)
		}
	} else {
		upd := db.Model(&models.Alert{}).
			Where("type = ? AND status = ?", models.AlertTypeBalanceThreshold, models.AlertStatusActive).
			Updates(map[string]interface{}{"status": models.AlertStatusResolved, "resolved_at": time.Now()})
		if upd.Error != nil {
			return nil, fmt.Errorf("resolve threshold alerts: %w", upd.Error)
		}
		res.Resolved = upd.RowsAffected
	}

	var pending int64
	if err := db.Model(&models.SalaryPayment{}).Where("status = ?", models.PaymentStatusPending).Count(&pending).Error; err != nil {
		return nil, fmt.Errorf("count pending payments: %w", err)
	}
	if pending > 0 {
		active, err := hasActive(db, models.AlertTypePendingPayments)
		if err != nil {
			return nil, err
		}
		if !active {
			msg := fmt.Sprintf("There are %d pending salary payment(s) awaiting funds", pending)
			a, err := Create(ctx, db, models.AlertTypePendingPayments, msg, models.SeverityHigh)
			if err != nil {
				return nil, err
			}
			res.Created = append(res.Created, *a)
		}
	}

	return res, nil
}
