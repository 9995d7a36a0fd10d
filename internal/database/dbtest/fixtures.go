package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"restaurant-backend/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Password is the plain-text password of every fixture account.
const Password = "secret123"

var seq atomic.Int64

func next() int64 { return seq.Add(1) }

func hash(t *testing.T) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func CreateUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	n := next()
	u := models.User{
		Name:           "Client",
		LastName:       fmt.Sprintf("N%d", n),
		DocumentType:   "CC",
		DocumentNumber: fmt.Sprintf("DOC%d", n),
		Phone:          fmt.Sprintf("300%07d", n),
		Email:          fmt.Sprintf("client%d@example.com", n),
		PasswordHash:   hash(t),
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func CreateAdmin(t *testing.T, db *gorm.DB) models.Admin {
	t.Helper()
	n := next()
	a := models.Admin{
		Name:         "Admin",
		LastName:     fmt.Sprintf("N%d", n),
		Email:        fmt.Sprintf("admin%d@example.com", n),
		PasswordHash: hash(t),
	}
	require.NoError(t, db.Create(&a).Error)
	return a
}

func CreateEmployee(t *testing.T, db *gorm.DB) models.Employee {
	t.Helper()
	n := next()
	e := models.Employee{
		Name:         "Employee",
		LastName:     fmt.Sprintf("N%d", n),
		Email:        fmt.Sprintf("employee%d@example.com", n),
		PasswordHash: hash(t),
	}
	require.NoError(t, db.Create(&e).Error)
	return e
}

func CreateCategory(t *testing.T, db *gorm.DB) models.Category {
	t.Helper()
	c := models.Category{Name: fmt.Sprintf("Category %d", next())}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func CreateProduct(t *testing.T, db *gorm.DB, categoryID uint, price float64, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name:       fmt.Sprintf("Product %d", next()),
		Price:      price,
		Stock:      stock,
		CategoryID: categoryID,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}
