package middleware

import (
	"errors"

	"restaurant-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every error as {"error": ..., "request_id": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	rid, _ := c.Locals(logger.RequestIDLocalKey).(string)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error":      fe.Message,
			"request_id": rid,
		})
	}

	logger.FromCtx(c).Error("unexpected error", "error", err, "path", c.Path())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":      "unexpected server error",
		"request_id": rid,
	})
}
