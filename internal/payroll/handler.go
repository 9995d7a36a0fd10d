package payroll

import (
	"time"

	"restaurant-backend/internal/cache"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SalaryPaymentResponse struct {
	ID               uint                    `json:"id"`
	EmployeeID       uint                    `json:"employee_id"`
	EmployeeName     string                  `json:"employee_name"`
	EmployeeLastName string                  `json:"employee_last_name"`
	Amount           float64                 `json:"amount"`
	PaymentDate      string                  `json:"payment_date"`
	PeriodStart      string                  `json:"period_start"`
	PeriodEnd        string                  `json:"period_end"`
	Frequency        models.PaymentFrequency `json:"frequency"`
	Status           models.PaymentStatus    `json:"status"`
	ProcessedAt      *time.Time              `json:"processed_at"`
	FailureReason    string                  `json:"failure_reason"`
	ExpenseID        *uint                   `json:"expense_id"`
	CreatedAt        time.Time               `json:"created_at"`
}

func toResponse(p models.SalaryPayment) SalaryPaymentResponse {
	return SalaryPaymentResponse{
		ID:               p.ID,
		EmployeeID:       p.EmployeeID,
		EmployeeName:     p.Employee.Name,
		EmployeeLastName: p.Employee.LastName,
		Amount:           p.Amount,
		PaymentDate:      p.PaymentDate.Format("2006-01-02"),
		PeriodStart:      p.PeriodStart.Format("2006-01-02"),
		PeriodEnd:        p.PeriodEnd.Format("2006-01-02"),
		Frequency:        p.Frequency,
		Status:           p.Status,
		ProcessedAt:      p.ProcessedAt,
		FailureReason:    p.FailureReason,
		ExpenseID:        p.ExpenseID,
		CreatedAt:        p.CreatedAt,
	}
}

func toResponses(rows []models.SalaryPayment) []SalaryPaymentResponse {
	out := make([]SalaryPaymentResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, toResponse(p))
	}
	return out
}

// GET /api/admin/balance/pending-payments
func PendingPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rows []models.SalaryPayment
		if err := database.DB.Preload("Employee").
			Where("status = ?", models.PaymentStatusPending).
			Order("payment_date asc, id asc").
			Find(&rows).Error; err != nil {
			logger.FromCtx(c).Error("list pending payments failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not list pending payments")
		}
		return c.JSON(toResponses(rows))
	}
}

// POST /api/admin/balance/process-pending
func ProcessPendingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := ProcessPendingPayments(c.UserContext(), database.DB)
		if err != nil {
			logger.FromCtx(c).Error("process pending payments failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not process pending payments")
		}
		cache.InvalidateStatistics(c.UserContext())
		return c.JSON(res)
	}
}

// POST /api/admin/balance/process-salary-payments
func ProcessSalaryPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := ProcessSalaryPayments(c.UserContext(), database.DB, time.Now())
		if err != nil {
			logger.FromCtx(c).Error("process salary payments failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not process salary payments")
		}
		cache.InvalidateStatistics(c.UserContext())
		return c.JSON(res)
	}
}

// GET /api/admin/employees/salary-payments?start_date=&end_date=
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Preload("Employee")
		if s := c.Query("start_date"); s != "" {
			d, err := time.Parse("2006-01-02", s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "start_date must be YYYY-MM-DD")
			}
			q = q.Where("payment_date >= ?", d)
		}
		if s := c.Query("end_date"); s != "" {
			d, err := time.Parse("2006-01-02", s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "end_date must be YYYY-MM-DD")
			}
			q = q.Where("payment_date <= ?", d)
		}

		var rows []models.SalaryPayment
		if err := q.Order("payment_date desc, id desc").Find(&rows).Error; err != nil {
			logger.FromCtx(c).Error("list salary payments failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not list salary payments")
		}
		return c.JSON(toResponses(rows))
	}
}

// GET /api/admin/employees/:id/salary-payments
func ListEmployeePaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid id")
		}

		var rows []models.SalaryPayment
		if err := database.DB.Preload("Employee").
			Where("employee_id = ?", id).
			Order("payment_date desc, id desc").
			Find(&rows).Error; err != nil {
			logger.FromCtx(c).Error("list salary payments failed", "employee_id", id, "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not list salary payments")
		}
		return c.JSON(toResponses(rows))
	}
}
