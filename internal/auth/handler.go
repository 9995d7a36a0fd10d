package auth

import (
	"strings"
	"time"

	"restaurant-backend/internal/config"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name           string `json:"name"`
	LastName       string `json:"last_name"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	DateOfBirth    string `json:"date_of_birth"` // "2006-01-02"
}

type RegisterAdminRequest struct {
	Name           string `json:"name"`
	LastName       string `json:"last_name"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Password       string `json:"password"`
}

type AccountResponse struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	LastName string          `json:"last_name"`
	Email    string          `json:"email"`
	Phone    string          `json:"phone"`
	Role     models.UserRole `json:"role"`
}

type LoginResponse struct {
	Token      string          `json:"token"`
	RedirectTo string          `json:"redirect_to"`
	User       AccountResponse `json:"user"`
}

func toAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		ID:       a.ID,
		Name:     a.Name,
		LastName: a.LastName,
		Email:    a.Email,
		Phone:    a.Phone,
		Role:     a.Role,
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = normalizeEmail(body.Email)
		if body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
		}

		acc, err := FindAccountByEmail(database.DB, body.Email)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, cfg.JWTTTL, acc)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
		}

		logger.FromCtx(c).Info("login", "account_id", acc.ID, "role", acc.Role)

		return c.JSON(LoginResponse{
			Token:      token,
			RedirectTo: acc.RedirectTo(),
			User:       toAccountResponse(acc),
		})
	}
}

// POST /api/auth/signup
func SignupHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SignupRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = normalizeEmail(body.Email)
		body.Name = strings.TrimSpace(body.Name)
		body.LastName = strings.TrimSpace(body.LastName)
		body.DocumentNumber = strings.TrimSpace(body.DocumentNumber)
		body.Phone = strings.TrimSpace(body.Phone)

		if body.Name == "" || body.LastName == "" || body.Email == "" || body.Phone == "" || body.DocumentNumber == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name, last_name, email, phone and document_number are required")
		}
		if !strings.Contains(body.Email, "@") {
			return fiber.NewError(fiber.StatusBadRequest, "invalid email")
		}
		if len(body.Password) < minPasswordLength {
			return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
		}

		var dob *time.Time
		if body.DateOfBirth != "" {
			d, err := time.Parse("2006-01-02", body.DateOfBirth)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date_of_birth must be YYYY-MM-DD")
			}
			dob = &d
		}

		taken, err := EmailTaken(database.DB, body.Email)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not check email")
		}
		if taken {
			return fiber.NewError(fiber.StatusConflict, "email is already registered")
		}

		var count int64
		database.DB.Model(&models.User{}).Where("document_number = ?", body.DocumentNumber).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "document number is already registered")
		}
		database.DB.Model(&models.User{}).Where("phone = ?", body.Phone).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "phone is already registered")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
		}

		user := models.User{
			Name:           body.Name,
			LastName:       body.LastName,
			DocumentType:   body.DocumentType,
			DocumentNumber: body.DocumentNumber,
			Phone:          body.Phone,
			Email:          body.Email,
			PasswordHash:   string(hash),
			DateOfBirth:    dob,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create user")
		}

		return c.Status(fiber.StatusCreated).JSON(toAccountResponse(accountFromUser(user)))
	}
}

// POST /api/auth/register-admin
// Bootstraps the first administrator; later admins are created by admins.
func RegisterAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		var count int64
		database.DB.Model(&models.Admin{}).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "an administrator already exists")
		}

		admin, err := CreateAdmin(body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(AccountResponse{
			ID: admin.ID, Name: admin.Name, LastName: admin.LastName,
			Email: admin.Email, Phone: admin.Phone, Role: models.RoleAdmin,
		})
	}
}

// CreateAdmin validates body and inserts a new administrator.
func CreateAdmin(body RegisterAdminRequest) (*models.Admin, error) {
	body.Email = normalizeEmail(body.Email)
	body.Name = strings.TrimSpace(body.Name)
	body.LastName = strings.TrimSpace(body.LastName)
	if body.Name == "" || body.LastName == "" || body.Email == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "name, last_name and email are required")
	}
	if len(body.Password) < minPasswordLength {
		return nil, fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
	}

	taken, err := EmailTaken(database.DB, body.Email)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not check email")
	}
	if taken {
		return nil, fiber.NewError(fiber.StatusConflict, "email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
	}

	admin := models.Admin{
		Name:           body.Name,
		LastName:       body.LastName,
		DocumentType:   body.DocumentType,
		DocumentNumber: body.DocumentNumber,
		Email:          body.Email,
		Phone:          body.Phone,
		PasswordHash:   string(hash),
	}
	if err := database.DB.Create(&admin).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not create admin")
	}
	return &admin, nil
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := CurrentUserID(c)
		if err != nil {
			return err
		}
		acc, err := FindAccount(database.DB, id, CurrentRole(c))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "account not found")
		}
		return c.JSON(fiber.Map{
			"user":        toAccountResponse(acc),
			"redirect_to": acc.RedirectTo(),
		})
	}
}
