package admin

import (
	"errors"
	"fmt"

	"restaurant-backend/internal/audit"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/statistics"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateMonthlyReportRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func internalError(c *fiber.Ctx, err error, action string) error {
	logger.FromCtx(c).Error(action+" failed", "error", err)
	return fiber.NewError(fiber.StatusInternalServerError, "could not "+action)
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

// POST /api/admin/monthly-reports
func CreateMonthlyReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMonthlyReportRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Year < 2000 || body.Month < 1 || body.Month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid year or month")
		}

		report, err := statistics.CreateMonthlyReport(database.DB, body.Year, body.Month)
		if errors.Is(err, statistics.ErrReportExists) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return internalError(c, err, "create monthly report")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "monthly_report",
			EntityID:    report.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Monthly report created: %04d-%02d", report.Year, report.Month),
			After:       report,
		})
		return c.Status(fiber.StatusCreated).JSON(report)
	}
}

// GET /api/admin/monthly-reports?year=2025
func ListMonthlyReportsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Model(&models.MonthlyReport{})
		if y := c.QueryInt("year"); y > 0 {
			q = q.Where("year = ?", y)
		}

		reports := []models.MonthlyReport{}
		if err := q.Order("year desc, month desc").Find(&reports).Error; err != nil {
			return internalError(c, err, "list monthly reports")
		}
		return c.JSON(reports)
	}
}

// GET /api/admin/monthly-reports/:id
func GetMonthlyReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var report models.MonthlyReport
		if err := database.DB.First(&report, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "monthly report not found")
			}
			return internalError(c, err, "load monthly report")
		}
		return c.JSON(report)
	}
}
