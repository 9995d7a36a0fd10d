package models

import "time"

type AlertType string

const (
	AlertTypeLowBalance       AlertType = "LOW_BALANCE"
	AlertTypeBalanceThreshold AlertType = "BALANCE_THRESHOLD"
	AlertTypePendingPayments  AlertType = "PENDING_PAYMENTS"
)

type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "ACTIVE"
	AlertStatusResolved AlertStatus = "RESOLVED"
)

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "LOW"
	SeverityMedium   AlertSeverity = "MEDIUM"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityCritical AlertSeverity = "CRITICAL"
)

type Alert struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	Type       AlertType     `gorm:"size:30;index;not null" json:"type"`
	Status     AlertStatus   `gorm:"size:20;index;not null" json:"status"`
	Message    string        `gorm:"size:500;not null" json:"message"`
	Severity   AlertSeverity `gorm:"size:20;not null" json:"severity"`
	CreatedAt  time.Time     `json:"created_at"`
	ResolvedAt *time.Time    `json:"resolved_at"`
}
