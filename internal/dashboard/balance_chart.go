package dashboard

import (
	"time"

	"restaurant-backend/internal/database"
	"restaurant-backend/internal/ledger"
	"restaurant-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

const maxChartDays = 366

type BalanceChartTotals struct {
	In  float64 `json:"in"`
	Out float64 `json:"out"`
	Net float64 `json:"net"`
}

type BalanceChartResponse struct {
	From   string                `json:"from"`
	To     string                `json:"to"`
	Points []ledger.DailyBalance `json:"points"`
	Totals BalanceChartTotals    `json:"totals"`
}

// GET /api/admin/dashboard/balance-chart?days=30
func BalanceChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		days := c.QueryInt("days", 30)
		if days < 1 || days > maxChartDays {
			return fiber.NewError(fiber.StatusBadRequest, "days must be between 1 and 366")
		}

		points, err := ledger.DailyBalances(database.DB, days, time.Now())
		if err != nil {
			logger.FromCtx(c).Error("balance chart failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not build balance chart")
		}

		resp := BalanceChartResponse{Points: points}
		if len(points) > 0 {
			resp.From = points[0].Date
			resp.To = points[len(points)-1].Date
		}
		for _, p := range points {
			resp.Totals.In += p.In
			resp.Totals.Out += p.Out
		}
		resp.Totals.In = ledger.Round(resp.Totals.In)
		resp.Totals.Out = ledger.Round(resp.Totals.Out)
		resp.Totals.Net = ledger.Round(resp.Totals.In - resp.Totals.Out)

		return c.JSON(resp)
	}
}
