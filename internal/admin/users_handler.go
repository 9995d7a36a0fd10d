package admin

import (
	"errors"
	"fmt"
	"strings"

	"restaurant-backend/internal/auth"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/pagination"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UpdateUserRequest struct {
	Name           string   `json:"name"`
	LastName       string   `json:"last_name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	DocumentType   string   `json:"document_type"`
	DocumentNumber string   `json:"document_number"`
	Points         *int64   `json:"points"`
	TotalSpent     *float64 `json:"total_spent"`
}

type SearchUsersRequest struct {
	pagination.Params
	Name      string `json:"name"`
	Email     string `json:"email"`
	Document  string `json:"document"`
	MinPoints *int64 `json:"min_points"`
	MinOrders *int64 `json:"min_orders"`
}

var userSortColumns = map[string]string{
	"name":             "name",
	"last_name":        "last_name",
	"email":            "email",
	"points":           "points",
	"number_of_orders": "number_of_orders",
	"total_spent":      "total_spent",
	"created_at":       "created_at",
}

const defaultUserOrder = "id asc"

func loadUser(c *fiber.Ctx) (*models.User, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := database.DB.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return nil, internalError(c, err, "load user")
	}
	return &u, nil
}

// GET /api/admin/users?page=&size=
// GET /api/employee/users
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := pagination.FromQuery(c)
		page, err := pagination.Find[models.User](database.DB.Model(&models.User{}), p, p.Order(userSortColumns, defaultUserOrder))
		if err != nil {
			return internalError(c, err, "list users")
		}
		return c.JSON(page)
	}
}

// POST /api/admin/users/search
func SearchUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SearchUsersRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		q := database.DB.Model(&models.User{})
		if s := strings.ToLower(strings.TrimSpace(body.Name)); s != "" {
			like := "%" + s + "%"
			q = q.Where("LOWER(name) LIKE ? OR LOWER(last_name) LIKE ?", like, like)
		}
		if s := strings.ToLower(strings.TrimSpace(body.Email)); s != "" {
			q = q.Where("LOWER(email) LIKE ?", "%"+s+"%")
		}
		if s := strings.TrimSpace(body.Document); s != "" {
			q = q.Where("document_number = ?", s)
		}
		if body.MinPoints != nil {
			q = q.Where("points >= ?", *body.MinPoints)
		}
		if body.MinOrders != nil {
			q = q.Where("number_of_orders >= ?", *body.MinOrders)
		}

		p := body.Params.Normalize()
		page, err := pagination.Find[models.User](q, p, p.Order(userSortColumns, defaultUserOrder))
		if err != nil {
			return internalError(c, err, "search users")
		}
		return c.JSON(page)
	}
}

// GET /api/admin/users/:id
// GET /api/employee/users/:id
func GetUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := loadUser(c)
		if err != nil {
			return err
		}
		return c.JSON(u)
	}
}

// PUT /api/admin/users/:id
func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := loadUser(c)
		if err != nil {
			return err
		}
		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if s := strings.TrimSpace(body.Name); s != "" {
			u.Name = s
		}
		if s := strings.TrimSpace(body.LastName); s != "" {
			u.LastName = s
		}
		if s := strings.ToLower(strings.TrimSpace(body.Email)); s != "" && s != u.Email {
			if !strings.Contains(s, "@") {
				return fiber.NewError(fiber.StatusBadRequest, "invalid email")
			}
			taken, err := auth.EmailTaken(database.DB, s)
			if err != nil {
				return internalError(c, err, "check email")
			}
			if taken {
				return fiber.NewError(fiber.StatusConflict, "email is already registered")
			}
			u.Email = s
		}
		if s := strings.TrimSpace(body.Phone); s != "" {
			u.Phone = s
		}
		if s := strings.TrimSpace(body.DocumentType); s != "" {
			u.DocumentType = s
		}
		if s := strings.TrimSpace(body.DocumentNumber); s != "" {
			u.DocumentNumber = s
		}
		if body.Points != nil {
			if *body.Points < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "points must not be negative")
			}
			u.Points = *body.Points
		}
		if body.TotalSpent != nil {
			if *body.TotalSpent < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "total_spent must not be negative")
			}
			u.TotalSpent = *body.TotalSpent
		}

		if err := database.DB.Save(u).Error; err != nil {
			return internalError(c, err, "update user")
		}
		return c.JSON(u)
	}
}

// DELETE /api/admin/users/:id
// Customers with purchase or reservation history are kept.
func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := loadUser(c)
		if err != nil {
			return err
		}

		for _, dep := range []struct {
			model any
			what  string
		}{
			{&models.Order{}, "orders"},
			{&models.Delivery{}, "deliveries"},
			{&models.Reservation{}, "reservations"},
			{&models.RewardRedemption{}, "reward redemptions"},
		} {
			var n int64
			if err := database.DB.Model(dep.model).Where("user_id = ?", u.ID).Count(&n).Error; err != nil {
				return internalError(c, err, "delete user")
			}
			if n > 0 {
				return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("user has %d %s", n, dep.what))
			}
		}

		if err := database.DB.Delete(u).Error; err != nil {
			return internalError(c, err, "delete user")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
