// Package notify publishes domain events (orders, deliveries, reservations,
// alerts, payroll and password resets) to whoever listens: RabbitMQ in
// deployments, the log otherwise.
package notify

import (
	"context"
	"errors"
	"time"

	"restaurant-backend/internal/logger"
)

const (
	EventOrderCreated            = "order.created"
	EventOrderPaymentVerified    = "order.payment_verified"
	EventOrderPaymentRejected    = "order.payment_rejected"
	EventDeliveryCreated         = "delivery.created"
	EventDeliveryOnTheWay        = "delivery.on_the_way"
	EventDeliveryPaymentVerified = "delivery.payment_verified"
	EventDeliveryPaymentRejected = "delivery.payment_rejected"
	EventReservationCreated      = "reservation.created"
	EventReservationConfirmed    = "reservation.confirmed"
	EventAlertCreated            = "alert.created"
	EventSalaryPaid              = "payroll.salary_paid"
	EventPasswordResetRequested  = "auth.password_reset_requested"
)

// Event is the envelope every message is wrapped in.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Default is the process-wide publisher. main swaps it for RabbitMQ when configured.
var Default Publisher = LogPublisher{}

// ErrNoBroker is returned by Ping while events only go to the log.
var ErrNoBroker = errors.New("no message broker configured")

// Ping checks the broker connection behind Default.
func Ping() error {
	p, ok := Default.(interface{ Ping() error })
	if !ok {
		return ErrNoBroker
	}
	return p.Ping()
}

// Publish sends an event through Default. Delivery problems are logged and
// never fail the caller: the database write already happened.
func Publish(ctx context.Context, eventType string, payload any) {
	ev := Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload}
	if err := Default.Publish(ctx, ev); err != nil {
		logger.Warn("event publish failed", "event", eventType, "error", err)
	}
}

// LogPublisher writes events to the application log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event Event) error {
	logger.Info("event", "type", event.Type, "payload", event.Payload)
	return nil
}

func (LogPublisher) Close() error { return nil }
