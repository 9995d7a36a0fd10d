package expense

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
	"restaurant-backend/internal/pagination"
	"restaurant-backend/internal/storage"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ExpenseRequest struct {
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Amount        float64 `json:"amount"`
	ExpenseDate   string  `json:"expense_date"` // "2025-12-09"
	PaymentMethod string  `json:"payment_method"`
	Notes         string  `json:"notes"`
	ReceiptURL    string  `json:"receipt_url"`
}

type SearchRequest struct {
	pagination.Params
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	PaymentMethod string   `json:"payment_method"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	MinAmount     *float64 `json:"min_amount"`
	MaxAmount     *float64 `json:"max_amount"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Count    int64   `json:"count"`
	Total    float64 `json:"total"`
}

type MonthlySummaryResponse struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Items      []CategoryTotal `json:"items"`
	GrandTotal float64         `json:"grand_total"`
}

var sortColumns = map[string]string{
	"expense_date":   "expense_date",
	"amount":         "amount",
	"category":       "category",
	"description":    "description",
	"payment_method": "payment_method",
	"created_at":     "created_at",
}

const defaultOrder = "expense_date desc, id desc"

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

func (r ExpenseRequest) apply(e *models.Expense) error {
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
	if r.Description == "" || r.Category == "" {
		return fiber.NewError(fiber.StatusBadRequest, "description and category are required")
	}
	if r.Amount <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "amount must be greater than zero")
	}
	d, err := parseDate(r.ExpenseDate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "expense_date must be YYYY-MM-DD")
	}

	e.Description = r.Description
	e.Category = r.Category
	e.Amount = r.Amount
	e.ExpenseDate = d
	e.PaymentMethod = strings.TrimSpace(r.PaymentMethod)
	e.Notes = r.Notes
	e.ReceiptURL = r.ReceiptURL
	return nil
}

func loadExpense(c *fiber.Ctx) (*models.Expense, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	var e models.Expense
	if err := database.DB.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "expense not found")
		}
		return nil, err
	}
	return &e, nil
}

func internalError(c *fiber.Ctx, err error, action string) error {
	logger.FromCtx(c).Error(action+" failed", "error", err)
	return fiber.NewError(fiber.StatusInternalServerError, "could not "+action)
}

// POST /api/admin/expenses
func CreateExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		var e models.Expense
		if err := body.apply(&e); err != nil {
			return err
		}
		if err := Create(database.DB, &e); err != nil {
			return internalError(c, err, "create expense")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "expense",
			EntityID:    e.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Expense created: %s - %.2f", e.Category, e.Amount),
			After:       e,
		})
		cache.InvalidateStatistics(c.UserContext())

		return c.Status(fiber.StatusCreated).JSON(e)
	}
}

// GET /api/admin/expenses?page=&size=&start_date=&end_date=
func ListExpensesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Model(&models.Expense{})
		if s := c.Query("start_date"); s != "" {
			d, err := parseDate(s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "start_date must be YYYY-MM-DD")
			}
			q = q.Where("expense_date >= ?", d)
		}
		if s := c.Query("end_date"); s != "" {
			d, err := parseDate(s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "end_date must be YYYY-MM-DD")
			}
			q = q.Where("expense_date <= ?", d)
		}

		p := pagination.FromQuery(c)
		page, err := pagination.Find[models.Expense](q, p, p.Order(sortColumns, defaultOrder))
		if err != nil {
			return internalError(c, err, "list expenses")
		}
		return c.JSON(page)
	}
}

// POST /api/admin/expenses/search
func SearchExpensesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SearchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		q := database.DB.Model(&models.Expense{})
		if s := strings.TrimSpace(body.Description); s != "" {
			q = q.Where("LOWER(description) LIKE ?", "%"+strings.ToLower(s)+"%")
		}
		if s := strings.TrimSpace(body.Category); s != "" {
			q = q.Where("category = ?", s)
		}
		if s := strings.TrimSpace(body.PaymentMethod); s != "" {
			q = q.Where("payment_method = ?", s)
		}
		if body.StartDate != "" {
			d, err := parseDate(body.StartDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "start_date must be YYYY-MM-DD")
			}
			q = q.Where("expense_date >= ?", d)
		}
		if body.EndDate != "" {
			d, err := parseDate(body.EndDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "end_date must be YYYY-MM-DD")
			}
			q = q.Where("expense_date <= ?", d)
		}
		if body.MinAmount != nil {
			q = q.Where("amount >= ?", *body.MinAmount)
		}
		if body.MaxAmount != nil {
			q = q.Where("amount <= ?", *body.MaxAmount)
		}

		page, err := pagination.Find[models.Expense](q, body.Params, body.Params.Order(sortColumns, defaultOrder))
		if err != nil {
			return internalError(c, err, "search expenses")
		}
		return c.JSON(page)
	}
}

// GET /api/admin/expenses/category/:category
func ListByCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rows []models.Expense
		if err := database.DB.Where("category = ?", c.Params("category")).
			Order(defaultOrder).Find(&rows).Error; err != nil {
			return internalError(c, err, "list expenses")
		}
		return c.JSON(rows)
	}
}

// GET /api/admin/expenses/:id
func GetExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := loadExpense(c)
		if err != nil {
			return err
		}
		return c.JSON(e)
	}
}

// PUT /api/admin/expenses/:id
func UpdateExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := loadExpense(c)
		if err != nil {
			return err
		}
		before := *e

		var body ExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := body.apply(e); err != nil {
			return err
		}
		if err := Update(database.DB, e); err != nil {
			return internalError(c, err, "update expense")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "expense",
			EntityID:    e.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Expense updated: %s - %.2f", e.Category, e.Amount),
			Before:      before,
			After:       e,
		})
		cache.InvalidateStatistics(c.UserContext())

		return c.JSON(e)
	}
}

// DELETE /api/admin/expenses/:id
func DeleteExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := loadExpense(c)
		if err != nil {
			return err
		}
		if err := Delete(database.DB, e.ID); err != nil {
			return internalError(c, err, "delete expense")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "expense",
			EntityID:    e.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Expense deleted: %s - %.2f", e.Category, e.Amount),
			Before:      e,
		})
		cache.InvalidateStatistics(c.UserContext())

		return c.JSON(fiber.Map{"message": "expense deleted"})
	}
}

// POST /api/admin/expenses/:id/receipt (multipart "file")
func UploadReceiptHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := loadExpense(c)
		if err != nil {
			return err
		}
		info, err := storage.UploadFormFile(c, "file", storage.ReceiptRule)
		if err != nil {
			return err
		}
		if err := database.DB.Model(e).Update("receipt_url", info.URL).Error; err != nil {
			return internalError(c, err, "save receipt")
		}
		e.ReceiptURL = info.URL
		return c.JSON(e)
	}
}

// GET /api/admin/expenses/summary/monthly?year=2025&month=12
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

		first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)

		var rows []CategoryTotal
		if err := database.DB.
			Model(&models.Expense{}).
			Select("category, COUNT(*) as count, SUM(amount) as total").
			Where("expense_date >= ? AND expense_date <= ?", first, last).
			Group("category").
			Order("total desc").
			Scan(&rows).Error; err != nil {
			return internalError(c, err, "summarize expenses")
		}

		resp := MonthlySummaryResponse{Year: year, Month: month, Items: make([]CategoryTotal, 0, len(rows))}
		for _, r := range rows {
			resp.Items = append(resp.Items, r)
			resp.GrandTotal += r.Total
		}
		return c.JSON(resp)
	}
}
