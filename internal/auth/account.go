package auth

import (
	"errors"
	"strings"

	"restaurant-backend/internal/database"
	"restaurant-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Account is the role-agnostic view over clients, employees and admins.
type Account struct {
	ID           uint
	Name         string
	LastName     string
	Email        string
	Phone        string
	Role         models.UserRole
	PasswordHash string
}

func (a Account) FullName() string {
	return strings.TrimSpace(a.Name + " " + a.LastName)
}

// redirect target the frontend opens after login
func (a Account) RedirectTo() string {
	switch a.Role {
	case models.RoleAdmin:
		return "/admin"
	case models.RoleEmployee:
		return "/employee"
	default:
		return "/dashboard"
	}
}

// FindAccountByEmail looks the email up in clients, then admins, then employees.
func FindAccountByEmail(db *gorm.DB, email string) (*Account, error) {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return accountFromUser(user), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var admin models.Admin
	err = db.Where("email = ?", email).First(&admin).Error
	if err == nil {
		return &Account{ID: admin.ID, Name: admin.Name, LastName: admin.LastName, Email: admin.Email,
			Phone: admin.Phone, Role: models.RoleAdmin, PasswordHash: admin.PasswordHash}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var emp models.Employee
	err = db.Where("email = ?", email).First(&emp).Error
	if err == nil {
		return &Account{ID: emp.ID, Name: emp.Name, LastName: emp.LastName, Email: emp.Email,
			Phone: emp.Phone, Role: models.RoleEmployee, PasswordHash: emp.PasswordHash}, nil
	}
	return nil, err
}

// FindAccount loads the account behind an id/role pair taken from a token.
func FindAccount(db *gorm.DB, id uint, role models.UserRole) (*Account, error) {
	switch role {
	case models.RoleAdmin:
		var admin models.Admin
		if err := db.First(&admin, id).Error; err != nil {
			return nil, err
		}
		return &Account{ID: admin.ID, Name: admin.Name, LastName: admin.LastName, Email: admin.Email,
			Phone: admin.Phone, Role: role, PasswordHash: admin.PasswordHash}, nil
	case models.RoleEmployee:
		var emp models.Employee
		if err := db.First(&emp, id).Error; err != nil {
			return nil, err
		}
		return &Account{ID: emp.ID, Name: emp.Name, LastName: emp.LastName, Email: emp.Email,
			Phone: emp.Phone, Role: role, PasswordHash: emp.PasswordHash}, nil
	default:
		var user models.User
		if err := db.First(&user, id).Error; err != nil {
			return nil, err
		}
		return accountFromUser(user), nil
	}
}

// EmailTaken reports whether any account type already uses email.
func EmailTaken(db *gorm.DB, email string) (bool, error) {
	for _, m := range []any{&models.User{}, &models.Admin{}, &models.Employee{}} {
		var count int64
		if err := db.Model(m).Where("email = ?", email).Count(&count).Error; err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// CurrentActor resolves the caller for audit logs.
func CurrentActor(c *fiber.Ctx) (uint, models.UserRole, string, error) {
	id, err := CurrentUserID(c)
	if err != nil {
		return 0, "", "", err
	}
	role := CurrentRole(c)
	acc, err := FindAccount(database.DB, id, role)
	if err != nil {
		return 0, "", "", fiber.NewError(fiber.StatusUnauthorized, "account not found")
	}
	return id, role, acc.FullName(), nil
}

func accountFromUser(u models.User) *Account {
	return &Account{ID: u.ID, Name: u.Name, LastName: u.LastName, Email: u.Email,
		Phone: u.Phone, Role: models.RoleClient, PasswordHash: u.PasswordHash}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
