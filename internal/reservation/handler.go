package reservation

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"restaurant-backend/internal/auth"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ReservationRequest struct {
	Date           string `json:"date"`
	Time           string `json:"time"`
	NumberOfPeople int    `json:"number_of_people"`
	Notes          string `json:"notes"`
}

type ReservationResponse struct {
	ID             uint   `json:"id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	NumberOfPeople int    `json:"number_of_people"`
	Status         bool   `json:"status"`
	Notes          string `json:"notes"`
	UserID         uint   `json:"user_id"`
	UserName       string `json:"user_name"`
	UserEmail      string `json:"user_email"`
}

func toResponse(r models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:             r.ID,
		Date:           r.Date.Format("2006-01-02"),
		Time:           r.Time,
		NumberOfPeople: r.NumberOfPeople,
		Status:         r.Status,
		Notes:          r.Notes,
		UserID:         r.UserID,
		UserName:       r.User.FullName(),
		UserEmail:      r.User.Email,
	}
}

func list(c *fiber.Ctx, scope func(*gorm.DB) *gorm.DB) error {
	q := database.DB.Preload("User").Order("date desc, time desc, id desc")
	if scope != nil {
		q = scope(q)
	}
	var rows []models.Reservation
	if err := q.Find(&rows).Error; err != nil {
		logger.FromCtx(c).Error("list reservations failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not list reservations")
	}
	out := make([]ReservationResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, toResponse(r))
	}
	return c.JSON(out)
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

// parseStatus accepts true/false or confirmed/pending.
func parseStatus(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "confirmed":
		return true, nil
	case "pending":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fiber.NewError(fiber.StatusBadRequest, "status must be true, false, confirmed or pending")
	}
	return b, nil
}

func load(c *fiber.Ctx, id uint) error {
	var r models.Reservation
	if err := database.DB.Preload("User").First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "reservation not found")
		}
		return err
	}
	return c.JSON(toResponse(r))
}

// POST /api/client/reservations
func CreateReservationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		var body ReservationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		r, err := Create(c.UserContext(), database.DB, userID, Input{
			Date: body.Date, Time: body.Time, NumberOfPeople: body.NumberOfPeople, Notes: body.Notes,
		}, time.Now())
		switch {
		case errors.Is(err, ErrInvalid):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUserNotFound):
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		case err != nil:
			logger.FromCtx(c).Error("create reservation failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not create reservation")
		}

		c.Status(fiber.StatusCreated)
		return load(c, r.ID)
	}
}

// GET /api/client/reservations
func ListMyReservationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		return list(c, func(q *gorm.DB) *gorm.DB { return q.Where("user_id = ?", userID) })
	}
}

// GET /api/admin/reservations, GET /api/employee/reservations
func ListReservationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return list(c, nil)
	}
}

// GET /api/admin/reservations/:id
func GetReservationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		return load(c, id)
	}
}

// GET /api/admin/reservations/date/:date
func ListByDateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		day, err := time.Parse("2006-01-02", c.Params("date"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		return list(c, func(q *gorm.DB) *gorm.DB {
			return q.Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1))
		})
	}
}

// GET /api/admin/reservations/status/:status, GET /api/employee/reservations/status/:status
func ListByStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, err := parseStatus(c.Params("status"))
		if err != nil {
			return err
		}
		return list(c, func(q *gorm.DB) *gorm.DB { return q.Where("status = ?", status) })
	}
}

// PUT /api/employee/reservations/:id/confirm
func ConfirmReservationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		if _, err := Confirm(c.UserContext(), database.DB, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "reservation not found")
			}
			logger.FromCtx(c).Error("confirm reservation failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not confirm reservation")
		}
		return load(c, id)
	}
}

// DELETE /api/admin/reservations/:id
func DeleteReservationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		if err := Delete(database.DB, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "reservation not found")
			}
			logger.FromCtx(c).Error("delete reservation failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete reservation")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
