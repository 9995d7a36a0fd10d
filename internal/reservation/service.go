// Package reservation books tables for customers and lets staff confirm them.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/notify"

	"gorm.io/gorm"
)

var (
	ErrInvalid      = errors.New("invalid reservation")
	ErrUserNotFound = errors.New("user not found")
)

type Input struct {
	Date           string // 2006-01-02
	Time           string // 15:04 or 15:04:05
	NumberOfPeople int
	Notes          string
}

// Event is the payload of reservation.created and reservation.confirmed.
type Event struct {
	ID             uint   `json:"id"`
	UserID         uint   `json:"user_id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	NumberOfPeople int    `json:"number_of_people"`
}

func eventOf(r *models.Reservation) Event {
	return Event{
		ID: r.ID, UserID: r.UserID, Date: r.Date.Format("2006-01-02"),
		Time: r.Time, NumberOfPeople: r.NumberOfPeople,
	}
}

func parseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("%w: time must be HH:MM", ErrInvalid)
}

// Create books a reservation for userID. The date may not be in the past
// relative to now.
func Create(ctx context.Context, db *gorm.DB, userID uint, in Input, now time.Time) (*models.Reservation, error) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(in.Date))
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalid)
	}
	y, m, d := now.Date()
	if day.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
		return nil, fmt.Errorf("%w: date cannot be in the past", ErrInvalid)
	}
	clock, err := parseClock(in.Time)
	if err != nil {
		return nil, err
	}
	if in.NumberOfPeople < 1 {
		return nil, fmt.Errorf("%w: number_of_people must be at least 1", ErrInvalid)
	}

	r := models.Reservation{
		Date:           day,
		Time:           clock,
		NumberOfPeople: in.NumberOfPeople,
		Notes:          strings.TrimSpace(in.Notes),
		UserID:         userID,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("number_of_reservations", gorm.Expr("number_of_reservations + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return tx.Create(&r).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("reservation created", "reservation_id", r.ID, "user_id", userID, "date", in.Date)
	notify.Publish(ctx, notify.EventReservationCreated, eventOf(&r))
	return &r, nil
}

// Confirm marks the reservation confirmed. The event goes out only the first time.
func Confirm(ctx context.Context, db *gorm.DB, id uint) (*models.Reservation, error) {
	var r models.Reservation
	if err := db.First(&r, id).Error; err != nil {
		return nil, err
	}
	if r.Status {
		return &r, nil
	}

	res := db.Model(&models.Reservation{}).Where("id = ? AND status = ?", id, false).Update("status", true)
	if res.Error != nil {
		return nil, res.Error
	}
	r.Status = true
	if res.RowsAffected > 0 {
		notify.Publish(ctx, notify.EventReservationConfirmed, eventOf(&r))
	}
	return &r, nil
}

func Delete(db *gorm.DB, id uint) error {
	res := db.Delete(&models.Reservation{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
