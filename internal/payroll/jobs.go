package payroll

import (
	"context"
	"errors"
	"time"

	"restaurant-backend/internal/alert"
	"restaurant-backend/internal/config"
	"restaurant-backend/internal/scheduler"

	"gorm.io/gorm"
)

// Jobs are the scheduled payroll runs.
type Jobs struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (j Jobs) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

// Hourly pays today's salaries, retries pending ones and refreshes alerts.
func (j Jobs) Hourly(ctx context.Context) error {
	_, err1 := ProcessSalaryPayments(ctx, j.DB, j.now())
	_, err2 := ProcessPendingPayments(ctx, j.DB)
	_, err3 := alert.CheckAndCreate(ctx, j.DB)
	return errors.Join(err1, err2, err3)
}

// Pending retries pending payments and refreshes alerts.
func (j Jobs) Pending(ctx context.Context) error {
	_, err1 := ProcessPendingPayments(ctx, j.DB)
	_, err2 := alert.CheckAndCreate(ctx, j.DB)
	return errors.Join(err1, err2)
}

// Register adds the payroll jobs to s on the configured cron expressions.
func Register(s *scheduler.Scheduler, cfg config.SchedulerConfig, db *gorm.DB) error {
	j := Jobs{DB: db}
	if err := s.Add("salary-payments", cfg.PayrollCron, j.Hourly); err != nil {
		return err
	}
	return s.Add("pending-payments", cfg.PendingCron, j.Pending)
}
