package order

import (
	"strings"

	"restaurant-backend/internal/database"

	"github.com/gofiber/fiber/v2"
)

// GET /api/employee/unified-orders, GET /api/admin/unified-orders (?type=TABLE|DELIVERY)
func UnifiedOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		channel := strings.ToUpper(strings.TrimSpace(c.Query("type")))
		if channel != "" && channel != ChannelTable && channel != ChannelDelivery {
			return fiber.NewError(fiber.StatusBadRequest, "type must be TABLE or DELIVERY")
		}
		res, err := Unified(database.DB, channel, Filter{})
		if err != nil {
			return serviceError(c, err, "list orders", "")
		}
		return c.JSON(res)
	}
}
