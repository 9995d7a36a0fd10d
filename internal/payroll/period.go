// Package payroll pays employee salaries from the cash balance.
package payroll

import (
	"time"

	"restaurant-backend/internal/ledger"
	"restaurant-backend/internal/models"
)

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// PayDay clamps the configured day to the length of today's month, so day 31
// pays on Feb 28.
func PayDay(configured int, today time.Time) int {
	if n := daysIn(today.Year(), today.Month()); configured > n {
		return n
	}
	return configured
}

// Period returns the inclusive dates a payment made today covers.
// MONTHLY covers the previous month. BIWEEKLY paid on day 1-15 covers the
// 16th to the end of the previous month, otherwise the 1st-15th of this month.
func Period(freq models.PaymentFrequency, today time.Time) (time.Time, time.Time) {
	today = Day(today)
	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevFirst := firstOfMonth.AddDate(0, -1, 0)
	prevLast := firstOfMonth.AddDate(0, 0, -1)

	if freq == models.PaymentFrequencyMonthly {
		return prevFirst, prevLast
	}
	if today.Day() <= 15 {
		return prevFirst.AddDate(0, 0, 15), prevLast
	}
	return firstOfMonth, firstOfMonth.AddDate(0, 0, 14)
}

// Amount is the salary for MONTHLY, half of it for BIWEEKLY.
func Amount(salary float64, freq models.PaymentFrequency) float64 {
	if freq == models.PaymentFrequencyBiweekly {
		return ledger.Round(salary / 2)
	}
	return ledger.Round(salary)
}
