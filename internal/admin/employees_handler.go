package admin

import (
	"errors"
	"fmt"
	"strings"

	"restaurant-backend/internal/audit"
	"restaurant-backend/internal/auth"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type CreateEmployeeRequest struct {
	Name             string   `json:"name"`
	LastName         string   `json:"last_name"`
	DocumentType     string   `json:"document_type"`
	DocumentNumber   string   `json:"document_number"`
	Email            string   `json:"email"`
	Password         string   `json:"password"`
	Phone            string   `json:"phone"`
	Salary           *float64 `json:"salary"`
	PaymentFrequency string   `json:"payment_frequency"`
	PaymentDay       *int     `json:"payment_day"`
}

type SalaryConfigRequest struct {
	Salary           float64 `json:"salary"`
	PaymentFrequency string  `json:"payment_frequency"`
	PaymentDay       int     `json:"payment_day"`
}

// validate normalises the frequency and checks the three fields together.
func (r *SalaryConfigRequest) validate() error {
	r.PaymentFrequency = strings.ToUpper(strings.TrimSpace(r.PaymentFrequency))
	if r.Salary <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "salary must be greater than zero")
	}
	if !models.PaymentFrequency(r.PaymentFrequency).Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "payment_frequency must be MONTHLY or BIWEEKLY")
	}
	if r.PaymentDay < 1 || r.PaymentDay > 31 {
		return fiber.NewError(fiber.StatusBadRequest, "payment_day must be between 1 and 31")
	}
	return nil
}

func (r SalaryConfigRequest) apply(e *models.Employee) {
	salary, freq, day := r.Salary, models.PaymentFrequency(r.PaymentFrequency), r.PaymentDay
	e.Salary, e.PaymentFrequency, e.PaymentDay = &salary, &freq, &day
}

func loadEmployee(c *fiber.Ctx) (*models.Employee, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, err
	}
	var e models.Employee
	if err := database.DB.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "employee not found")
		}
		return nil, internalError(c, err, "load employee")
	}
	return &e, nil
}

// GET /api/admin/employees
func ListEmployeesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		employees := []models.Employee{}
		if err := database.DB.Order("last_name asc, name asc, id asc").Find(&employees).Error; err != nil {
			return internalError(c, err, "list employees")
		}
		return c.JSON(employees)
	}
}

// GET /api/admin/employees/:id
func GetEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := loadEmployee(c)
		if err != nil {
			return err
		}
		return c.JSON(e)
	}
}

// POST /api/admin/employees
func CreateEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEmployeeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.LastName = strings.TrimSpace(body.LastName)
		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		if body.Name == "" || body.LastName == "" || body.Email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name, last_name and email are required")
		}
		if !strings.Contains(body.Email, "@") {
			return fiber.NewError(fiber.StatusBadRequest, "invalid email")
		}
		if len(body.Password) < minPasswordLength {
			return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
		}

		emp := models.Employee{
			Name:           body.Name,
			LastName:       body.LastName,
			DocumentType:   strings.TrimSpace(body.DocumentType),
			DocumentNumber: strings.TrimSpace(body.DocumentNumber),
			Email:          body.Email,
			Phone:          strings.TrimSpace(body.Phone),
		}

		// salary settings are optional on create, but all-or-nothing
		if body.Salary != nil || body.PaymentFrequency != "" || body.PaymentDay != nil {
			cfg := SalaryConfigRequest{PaymentFrequency: body.PaymentFrequency}
			if body.Salary != nil {
				cfg.Salary = *body.Salary
			}
			if body.PaymentDay != nil {
				cfg.PaymentDay = *body.PaymentDay
			}
			if err := cfg.validate(); err != nil {
				return err
			}
			cfg.apply(&emp)
		}

		taken, err := auth.EmailTaken(database.DB, body.Email)
		if err != nil {
			return internalError(c, err, "check email")
		}
		if taken {
			return fiber.NewError(fiber.StatusConflict, "email is already registered")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return internalError(c, err, "hash password")
		}
		emp.PasswordHash = string(hash)

		if err := database.DB.Create(&emp).Error; err != nil {
			return internalError(c, err, "create employee")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "employee",
			EntityID:    emp.ID,
			Action:      models.AuditActionCreate,
			Description: "Employee created: " + emp.FullName(),
			After:       emp,
		})
		return c.Status(fiber.StatusCreated).JSON(emp)
	}
}

// PUT /api/admin/employees/:id/salary
func UpdateSalaryConfigHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		emp, err := loadEmployee(c)
		if err != nil {
			return err
		}
		var body SalaryConfigRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := body.validate(); err != nil {
			return err
		}

		before := *emp
		body.apply(emp)
		err = database.DB.Model(emp).Updates(map[string]interface{}{
			"salary":            *emp.Salary,
			"payment_frequency": *emp.PaymentFrequency,
			"payment_day":       *emp.PaymentDay,
		}).Error
		if err != nil {
			return internalError(c, err, "update salary configuration")
		}

		desc := fmt.Sprintf("Salary configuration updated: %s - %.2f %s day %d",
			emp.FullName(), *emp.Salary, *emp.PaymentFrequency, *emp.PaymentDay)
		audit.Record(c, audit.LogOptions{
			EntityType:  "employee",
			EntityID:    emp.ID,
			Action:      models.AuditActionUpdate,
			Description: desc,
			Before:      before,
			After:       emp,
		})
		return c.JSON(emp)
	}
}

// DELETE /api/admin/employees/:id
func DeleteEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		emp, err := loadEmployee(c)
		if err != nil {
			return err
		}

		var payments int64
		if err := database.DB.Model(&models.SalaryPayment{}).Where("employee_id = ?", emp.ID).Count(&payments).Error; err != nil {
			return internalError(c, err, "delete employee")
		}
		if payments > 0 {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("employee has %d salary payment(s)", payments))
		}

		if err := database.DB.Delete(emp).Error; err != nil {
			return internalError(c, err, "delete employee")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "employee",
			EntityID:    emp.ID,
			Action:      models.AuditActionDelete,
			Description: "Employee deleted: " + emp.FullName(),
			Before:      emp,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/admin/admins
func CreateAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body auth.RegisterAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		a, err := auth.CreateAdmin(body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(auth.AccountResponse{
			ID: a.ID, Name: a.Name, LastName: a.LastName,
			Email: a.Email, Phone: a.Phone, Role: models.RoleAdmin,
		})
	}
}
