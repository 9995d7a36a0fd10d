package inventory

import (
	"fmt"
	"net/http"
	"testing"

	"restaurant-backend/internal/apptest"
	"restaurant-backend/internal/audit"
	"restaurant-backend/internal/database/dbtest"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/pagination"
	"restaurant-backend/internal/storage"
	"restaurant-backend/internal/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCatalogApp() *fiber.App {
	app := apptest.NewApp()

	admin := app.Group("/api/admin", apptest.As(models.RoleAdmin, 1))
	cats := admin.Group("/categories")
	cats.Get("/", ListCategoriesHandler())
	cats.Post("/", CreateCategoryHandler())
	cats.Get("/:id", GetCategoryHandler())
	cats.Put("/:id", UpdateCategoryHandler())
	cats.Delete("/:id", DeleteCategoryHandler())

	subs := admin.Group("/subcategories")
	subs.Post("/", CreateSubCategoryHandler())
	subs.Get("/category/:categoryId", ListSubCategoriesByCategoryHandler())
	subs.Delete("/:id", DeleteSubCategoryHandler())

	products := admin.Group("/products")
	products.Post("/", CreateProductHandler())
	products.Post("/search", SearchProductsHandler())
	products.Post("/upload-image", UploadImageHandler())
	products.Get("/:id", GetProductHandler())
	products.Put("/:id", UpdateProductHandler())
	products.Delete("/:id", DeleteProductHandler())

	public := app.Group("/api/public")
	public.Get("/categories", PublicCategoriesHandler())
	public.Get("/products/category/:categoryId", PublicProductsByCategoryHandler())
	return app
}

func TestCreateProductAndReadBack(t *testing.T) {
	db := dbtest.Setup(t)
	dbtest.CreateAdmin(t, db)
	cat := dbtest.CreateCategory(t, db)
	app := newCatalogApp()

	stock := 12
	resp := apptest.Do(t, app, http.MethodPost, "/api/admin/products/", ProductRequest{
		Name: "Bandeja paisa", Price: 32000, Stock: &stock, CategoryID: cat.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created ProductResponse
	apptest.Decode(t, resp, &created)
	assert.Equal(t, cat.Name, created.CategoryName)

	resp = apptest.Do(t, app, http.MethodGet, fmt.Sprintf("/api/admin/products/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got ProductResponse
	apptest.Decode(t, resp, &got)
	assert.Equal(t, "Bandeja paisa", got.Name)
	assert.Equal(t, 12, got.Stock)
	assert.Equal(t, 32000.0, got.Price)
}

func TestProductValidation(t *testing.T) {
	db := dbtest.Setup(t)
	cat := dbtest.CreateCategory(t, db)
	other := dbtest.CreateCategory(t, db)
	sub := models.SubCategory{Name: "Soups", CategoryID: other.ID}
	require.NoError(t, db.Create(&sub).Error)
	app := newCatalogApp()

	negative := -1
	cases := []struct {
		name string
		body ProductRequest
		want int
	}{
		{"missing name", ProductRequest{Price: 1, CategoryID: cat.ID}, http.StatusBadRequest},
		{"zero price", ProductRequest{Name: "x", CategoryID: cat.ID}, http.StatusBadRequest},
		{"negative stock", ProductRequest{Name: "x", Price: 1, Stock: &negative, CategoryID: cat.ID}, http.StatusBadRequest},
		{"missing category", ProductRequest{Name: "x", Price: 1}, http.StatusBadRequest},
		{"unknown category", ProductRequest{Name: "x", Price: 1, CategoryID: 999}, http.StatusNotFound},
		{"foreign sub-category", ProductRequest{Name: "x", Price: 1, CategoryID: cat.ID, SubCategoryID: &sub.ID}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := apptest.Do(t, app, http.MethodPost, "/api/admin/products/", tc.body)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestDeleteCategoryWithProductsIsRejected(t *testing.T) {
	db := dbtest.Setup(t)
	cat := dbtest.CreateCategory(t, db)
	dbtest.CreateProduct(t, db, cat.ID, 1000, 1)
	app := newCatalogApp()

	resp := apptest.Do(t, app, http.MethodDelete, fmt.Sprintf("/api/admin/categories/%d", cat.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, apptest.ErrorMessage(t, resp), "1 associated product")

	empty := dbtest.CreateCategory(t, db)
	resp = apptest.Do(t, app, http.MethodDelete, fmt.Sprintf("/api/admin/categories/%d", empty.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCategoryNamesAreUnique(t *testing.T) {
	dbtest.Setup(t)
	app := newCatalogApp()

	resp := apptest.Do(t, app, http.MethodPost, "/api/admin/categories/", CategoryRequest{Name: "Drinks"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = apptest.Do(t, app, http.MethodPost, "/api/admin/categories/", CategoryRequest{Name: "drinks"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var list []CategoryResponse
	apptest.Decode(t, apptest.Do(t, app, http.MethodGet, "/api/public/categories", nil), &list)
	require.Len(t, list, 1)
	assert.Zero(t, list[0].ProductCount)
}

func TestSubCategories(t *testing.T) {
	db := dbtest.Setup(t)
	cat := dbtest.CreateCategory(t, db)
	app := newCatalogApp()

	resp := apptest.Do(t, app, http.MethodPost, "/api/admin/subcategories/", SubCategoryRequest{Name: "Juices", CategoryID: cat.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sub SubCategoryResponse
	apptest.Decode(t, resp, &sub)
	assert.Equal(t, cat.Name, sub.CategoryName)

	resp = apptest.Do(t, app, http.MethodPost, "/api/admin/subcategories/", SubCategoryRequest{Name: "juices", CategoryID: cat.ID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	p := dbtest.CreateProduct(t, db, cat.ID, 5000, 3)
	require.NoError(t, db.Model(&p).Update("sub_category_id", sub.ID).Error)

	resp = apptest.Do(t, app, http.MethodDelete, fmt.Sprintf("/api/admin/subcategories/%d", sub.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = apptest.Do(t, app, http.MethodDelete, fmt.Sprintf("/api/admin/categories/%d", cat.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var subs []SubCategoryResponse
	apptest.Decode(t, apptest.Do(t, app, http.MethodGet, fmt.Sprintf("/api/admin/subcategories/category/%d", cat.ID), nil), &subs)
	require.Len(t, subs, 1)
	assert.EqualValues(t, 1, subs[0].ProductCount)
}

func TestSearchProducts(t *testing.T) {
	db := dbtest.Setup(t)
	cat := dbtest.CreateCategory(t, db)
	for _, p := range []models.Product{
		{Name: "Arepa con queso", Price: 6000, Stock: 10, CategoryID: cat.ID},
		{Name: "Arepa de choclo", Price: 8000, Stock: 0, CategoryID: cat.ID},
		{Name: "Empanada", Price: 3000, Stock: 50, CategoryID: cat.ID},
	} {
		p := p
		require.NoError(t, db.Create(&p).Error)
	}
	app := newCatalogApp()

	minStock := 1
	resp := apptest.Do(t, app, http.MethodPost, "/api/admin/products/search", ProductSearchRequest{Name: "AREPA", MinStock: &minStock})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page pagination.Page[ProductResponse]
	apptest.Decode(t, resp, &page)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Arepa con queso", page.Content[0].Name)
	assert.Equal(t, cat.Name, page.Content[0].CategoryName)

	resp = apptest.Do(t, app, http.MethodPost, "/api/admin/products/search", ProductSearchRequest{
		Params: pagination.Params{Size: 2, SortBy: "price", SortDirection: "desc"},
	})
	apptest.Decode(t, resp, &page)
	assert.EqualValues(t, 3, page.TotalElements)
	require.Len(t, page.Content, 2)
	assert.Equal(t, 8000.0, page.Content[0].Price)
}

func TestUndoProductUpdate(t *testing.T) {
	db := dbtest.Setup(t)
	admin := dbtest.CreateAdmin(t, db)
	cat := dbtest.CreateCategory(t, db)
	p := dbtest.CreateProduct(t, db, cat.ID, 1000, 5)
	app := newCatalogApp()

	stock := 9
	resp := apptest.Do(t, app, http.MethodPut, fmt.Sprintf("/api/admin/products/%d", p.ID), ProductRequest{
		Name: "Renamed", Price: 2500, Stock: &stock, CategoryID: cat.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entry models.AuditLog
	require.NoError(t, db.Where("entity_type = ? AND action = ?", "product", models.AuditActionUpdate).First(&entry).Error)
	require.NoError(t, audit.UndoLog(entry.ID, admin.ID, models.RoleAdmin, admin.FullName()))

	var restored models.Product
	require.NoError(t, db.First(&restored, p.ID).Error)
	assert.Equal(t, p.Name, restored.Name)
	assert.Equal(t, 1000.0, restored.Price)
	// stock moves with orders, so undo leaves it alone
	assert.Equal(t, 9, restored.Stock)
}

func TestUndoCategoryCreateWhileInUse(t *testing.T) {
	db := dbtest.Setup(t)
	dbtest.CreateAdmin(t, db)
	app := newCatalogApp()
	app.Post("/api/admin/audit-logs/:id/undo", apptest.As(models.RoleAdmin, 1), audit.UndoAuditLogHandler())

	resp := apptest.Do(t, app, http.MethodPost, "/api/admin/categories/", CategoryRequest{Name: "Soups"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var cat CategoryResponse
	apptest.Decode(t, resp, &cat)
	p := dbtest.CreateProduct(t, db, cat.ID, 9000, 4)

	var entry models.AuditLog
	require.NoError(t, db.Where("entity_type = ? AND action = ?", "category", models.AuditActionCreate).First(&entry).Error)
	undo := fmt.Sprintf("/api/admin/audit-logs/%d/undo", entry.ID)

	resp = apptest.Do(t, app, http.MethodPost, undo, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var n int64
	db.Model(&models.Category{}).Where("id = ?", cat.ID).Count(&n)
	assert.EqualValues(t, 1, n)

	require.NoError(t, db.Delete(&models.Product{}, p.ID).Error)
	resp = apptest.Do(t, app, http.MethodPost, undo, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	db.Model(&models.Category{}).Where("id = ?", cat.ID).Count(&n)
	assert.Zero(t, n)
}

func TestUploadImage(t *testing.T) {
	dbtest.Setup(t)
	m := new(mocks.MockStorage)
	prev := storage.Default
	storage.Default = m
	t.Cleanup(func() { storage.Default = prev })

	m.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{Key: "products/2025/01/x.png", URL: "http://cdn/products/2025/01/x.png"}, nil).Once()

	app := newCatalogApp()
	resp := apptest.Upload(t, app, http.MethodPost, "/api/admin/products/upload-image", "file", "x.png", "image/png", []byte("\x89PNG\r\n\x1a\nimage"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	apptest.Decode(t, resp, &out)
	assert.Equal(t, "http://cdn/products/2025/01/x.png", out["url"])
	assert.Equal(t, "products/2025/01/x.png", out["key"])

	resp = apptest.Upload(t, app, http.MethodPost, "/api/admin/products/upload-image", "file", "x.pdf", "application/pdf", []byte("%PDF-1.4\n"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	m.AssertExpectations(t)
}
