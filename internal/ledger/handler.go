package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant-backend/internal/audit"
	"restaurant-backend/internal/cache"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BalanceResponse struct {
	CurrentBalance      float64   `json:"current_balance"`
	LowBalanceThreshold float64   `json:"low_balance_threshold"`
	LastUpdated         time.Time `json:"last_updated"`
	IsLow               bool      `json:"is_low"`
}

type InitializeRequest struct {
	Amount    float64  `json:"amount"`
	Threshold *float64 `json:"low_balance_threshold"`
}

type ThresholdRequest struct {
	Threshold *float64 `json:"low_balance_threshold"`
}

type AdjustRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Notes       string  `json:"notes"`
}

func toBalanceResponse(b *models.Balance) BalanceResponse {
	return BalanceResponse{
		CurrentBalance:      b.CurrentBalance,
		LowBalanceThreshold: b.LowBalanceThreshold,
		LastUpdated:         b.LastUpdated,
		IsLow:               b.IsLow(),
	}
}

// serviceError maps ledger errors to HTTP errors.
func serviceError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyInitialized):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, "transaction not found")
	}
	logger.FromCtx(c).Error(action+" failed", "error", err)
	return fiber.NewError(fiber.StatusInternalServerError, "could not "+action)
}

// GET /api/admin/balance
func GetBalanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := GetBalance(database.DB)
		if err != nil {
			return serviceError(c, err, "load balance")
		}
		return c.JSON(toBalanceResponse(b))
	}
}

// POST /api/admin/balance/initialize
func InitializeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body InitializeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		b, err := Initialize(database.DB, body.Amount, body.Threshold)
		if err != nil {
			return serviceError(c, err, "initialize balance")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "balance",
			EntityID:    b.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Balance initialized with %.2f", b.CurrentBalance),
			After:       b,
		})
		return c.Status(fiber.StatusCreated).JSON(toBalanceResponse(b))
	}
}

// PUT /api/admin/balance/threshold
func UpdateThresholdHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ThresholdRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Threshold == nil {
			return fiber.NewError(fiber.StatusBadRequest, "low_balance_threshold is required")
		}

		before, err := GetBalance(database.DB)
		if err != nil {
			return serviceError(c, err, "load balance")
		}
		old := before.LowBalanceThreshold

		b, err := UpdateThreshold(database.DB, *body.Threshold)
		if err != nil {
			return serviceError(c, err, "update threshold")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "balance",
			EntityID:    b.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Low balance threshold changed from %.2f to %.2f", old, b.LowBalanceThreshold),
			Before:      map[string]float64{"low_balance_threshold": old},
			After:       map[string]float64{"low_balance_threshold": b.LowBalanceThreshold},
		})
		return c.JSON(toBalanceResponse(b))
	}
}

// POST /api/admin/balance/adjust
func AdjustHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AdjustRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Description = strings.TrimSpace(body.Description)
		if body.Description == "" {
			return fiber.NewError(fiber.StatusBadRequest, "description is required")
		}

		t, err := Adjust(database.DB, body.Amount, body.Description, body.Notes)
		if err != nil {
			return serviceError(c, err, "adjust balance")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "balance",
			EntityID:    t.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Manual adjustment of %.2f: %s", t.Amount, t.Description),
			Before:      map[string]float64{"current_balance": t.BalanceBefore},
			After:       map[string]float64{"current_balance": t.BalanceAfter},
		})
		cache.InvalidateStatistics(c.UserContext())
		return c.Status(fiber.StatusCreated).JSON(t)
	}
}

// POST /api/admin/balance/recalculate
func RecalculateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := Recalculate(database.DB)
		if err != nil {
			return serviceError(c, err, "recalculate balance")
		}
		return c.JSON(toBalanceResponse(b))
	}
}

// GET /api/admin/balance/transactions?type=&reference_type=&reference_id=&start_date=&end_date=&limit=
func ListTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := Filter{
			Type:          models.TransactionType(strings.ToUpper(c.Query("type"))),
			ReferenceType: models.ReferenceType(strings.ToUpper(c.Query("reference_type"))),
			Limit:         c.QueryInt("limit", 500),
		}
		if f.Type != "" && !f.Type.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "invalid transaction type")
		}
		if s := c.Query("reference_id"); s != "" {
			if _, err := fmt.Sscan(s, &f.ReferenceID); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid reference_id")
			}
		}
		for key, dst := range map[string]**time.Time{"start_date": &f.Start, "end_date": &f.End} {
			if s := c.Query(key); s != "" {
				d, err := time.Parse("2006-01-02", s)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, key+" must be YYYY-MM-DD")
				}
				*dst = &d
			}
		}

		txs, err := ListTransactions(database.DB, f)
		if err != nil {
			return serviceError(c, err, "list transactions")
		}
		return c.JSON(txs)
	}
}

// DELETE /api/admin/balance/transactions/:id
func DeleteTransactionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid id")
		}

		var t models.Transaction
		if err := database.DB.First(&t, id).Error; err != nil {
			return serviceError(c, err, "load transaction")
		}
		if err := DeleteTransaction(database.DB, uint(id)); err != nil {
			return serviceError(c, err, "delete transaction")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "transaction",
			EntityID:    t.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Transaction #%d deleted (%s %.2f)", t.ID, t.Type, t.Amount),
			Before:      t,
		})
		cache.InvalidateStatistics(c.UserContext())

		b, err := GetBalance(database.DB)
		if err != nil {
			return serviceError(c, err, "load balance")
		}
		return c.JSON(toBalanceResponse(b))
	}
}

// POST /api/admin/balance/migrate-historical-data
func MigrateHistoricalDataHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := MigrateHistoricalData(database.DB)
		if err != nil {
			return serviceError(c, err, "migrate historical data")
		}
		return c.JSON(res)
	}
}

// GET /api/admin/balance/summary/monthly?year=2025&month=6
func MonthlySummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		year := c.QueryInt("year", now.Year())
		month := c.QueryInt("month", int(now.Month()))
		if year < 2000 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid year")
		}
		if month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid month")
		}

		s, err := Summarize(database.DB, year, month)
		if err != nil {
			return serviceError(c, err, "summarize ledger")
		}
		return c.JSON(s)
	}
}
