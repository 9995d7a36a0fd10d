package statistics

import (
	"time"

	"restaurant-backend/internal/cache"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

func internalError(c *fiber.Ctx, err error, action string) error {
	logger.FromCtx(c).Error(action+" failed", "error", err)
	return fiber.NewError(fiber.StatusInternalServerError, "could not "+action)
}

func queryDate(c *fiber.Ctx, name string, def time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, name+" must be YYYY-MM-DD")
	}
	return d, nil
}

// GET /api/admin/statistics/financial?start_date=2025-01-01&end_date=2025-01-31
func FinancialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

		from, err := queryDate(c, "start_date", first)
		if err != nil {
			return err
		}
		to, err := queryDate(c, "end_date", first.AddDate(0, 1, -1))
		if err != nil {
			return err
		}
		if to.Before(from) {
			return fiber.NewError(fiber.StatusBadRequest, "end_date must not be before start_date")
		}

		key := cache.PrefixStatistics + "financial:" + from.Format(dateLayout) + ":" + to.Format(dateLayout)
		var report Financial
		if cache.Get(c.UserContext(), key, &report) {
			return c.JSON(report)
		}

		r, err := FinancialReport(database.DB, from, to)
		if err != nil {
			return internalError(c, err, "build financial statistics")
		}
		if err := cache.Set(c.UserContext(), key, r); err != nil {
			logger.FromCtx(c).Warn("statistics cache write failed", "key", key, "error", err)
		}
		return c.JSON(r)
	}
}

// GET /api/admin/statistics/business
func BusinessHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		key := cache.PrefixStatistics + "business:" + now.Format(dateLayout)

		var report Business
		if cache.Get(c.UserContext(), key, &report) {
			return c.JSON(report)
		}

		r, err := BusinessReport(database.DB, now)
		if err != nil {
			return internalError(c, err, "build business statistics")
		}
		if err := cache.Set(c.UserContext(), key, r); err != nil {
			logger.FromCtx(c).Warn("statistics cache write failed", "key", key, "error", err)
		}
		return c.JSON(r)
	}
}
