package alert

import (
	"errors"

	"restaurant-backend/internal/database"
	"restaurant-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/admin/balance/alerts?all=true
func ListAlertsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		list := ListActive
		if c.QueryBool("all") {
			list = ListAll
		}
		alerts, err := list(database.DB)
		if err != nil {
			logger.FromCtx(c).Error("list alerts failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not list alerts")
		}
		return c.JSON(alerts)
	}
}

// PUT /api/admin/balance/alerts/:id/resolve
func ResolveAlertHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid id")
		}

		a, err := Resolve(database.DB, uint(id))
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fiber.NewError(fiber.StatusNotFound, "alert not found")
		case errors.Is(err, ErrAlreadyResolved):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case err != nil:
			logger.FromCtx(c).Error("resolve alert failed", "id", id, "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not resolve alert")
		}
		return c.JSON(a)
	}
}

// POST /api/admin/balance/alerts/check
func CheckAlertsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := CheckAndCreate(c.UserContext(), database.DB)
		if err != nil {
			logger.FromCtx(c).Error("alert check failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not check alerts")
		}
		return c.JSON(res)
	}
}
