package inventory

import (
	"errors"
	"fmt"
	"strings"

	"restaurant-backend/internal/audit"
	"restaurant-backend/internal/cache"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/pagination"
	"restaurant-backend/internal/storage"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProductResponse struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	ImageURL        string  `json:"image_url"`
	Price           float64 `json:"price"`
	Stock           int     `json:"stock"`
	CategoryID      uint    `json:"category_id"`
	CategoryName    string  `json:"category_name"`
	SubCategoryID   *uint   `json:"sub_category_id"`
	SubCategoryName string  `json:"sub_category_name,omitempty"`
}

type ProductRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	ImageURL      string  `json:"image_url"`
	Price         float64 `json:"price"`
	Stock         *int    `json:"stock"`
	CategoryID    uint    `json:"category_id"`
	SubCategoryID *uint   `json:"sub_category_id"`
}

type ProductSearchRequest struct {
	pagination.Params
	Name          string   `json:"name"`
	CategoryID    *uint    `json:"category_id"`
	SubCategoryID *uint    `json:"sub_category_id"`
	MinPrice      *float64 `json:"min_price"`
	MaxPrice      *float64 `json:"max_price"`
	MinStock      *int     `json:"min_stock"`
}

var productSortColumns = map[string]string{
	"name":        "name",
	"price":       "price",
	"stock":       "stock",
	"category_id": "category_id",
	"created_at":  "created_at",
}

func toProductResponse(p models.Product) ProductResponse {
	res := ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		Price:         p.Price,
		Stock:         p.Stock,
		CategoryID:    p.CategoryID,
		CategoryName:  p.Category.Name,
		SubCategoryID: p.SubCategoryID,
	}
	if p.SubCategory != nil {
		res.SubCategoryName = p.SubCategory.Name
	}
	return res
}

func toProductResponses(rows []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, toProductResponse(p))
	}
	return out
}

func productQuery() *gorm.DB {
	return database.DB.Model(&models.Product{}).Preload("Category").Preload("SubCategory")
}

func listProducts(categoryID uint) ([]ProductResponse, error) {
	q := productQuery()
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	var rows []models.Product
	if err := q.Order("name asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProductResponses(rows), nil
}

func loadProduct(c *fiber.Ctx) (*models.Product, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	var p models.Product
	if err := productQuery().First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return nil, err
	}
	return &p, nil
}

// apply validates the request and copies it onto p.
func (r ProductRequest) apply(p *models.Product) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "product name is required")
	}
	if r.Price <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price must be greater than zero")
	}
	if r.Stock != nil && *r.Stock < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "stock must not be negative")
	}
	if r.CategoryID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "category_id is required")
	}

	var cat models.Category
	if err := database.DB.First(&cat, r.CategoryID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "category not found")
	}
	if r.SubCategoryID != nil && *r.SubCategoryID != 0 {
		var sub models.SubCategory
		if err := database.DB.First(&sub, *r.SubCategoryID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "sub-category not found")
		}
		if sub.CategoryID != cat.ID {
			return fiber.NewError(fiber.StatusBadRequest, "sub-category does not belong to the selected category")
		}
		p.SubCategoryID = &sub.ID
		p.SubCategory = &sub
	} else {
		p.SubCategoryID = nil
		p.SubCategory = nil
	}

	p.Name = r.Name
	p.Description = strings.TrimSpace(r.Description)
	p.ImageURL = strings.TrimSpace(r.ImageURL)
	p.Price = r.Price
	if r.Stock != nil {
		p.Stock = *r.Stock
	}
	p.CategoryID = cat.ID
	p.Category = cat
	return nil
}

// GET /api/admin/products
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := listProducts(0)
		if err != nil {
			return internalError(c, err, "list products")
		}
		return c.JSON(res)
	}
}

// GET /api/admin/products/category/:categoryId
func ListProductsByCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		categoryID, err := paramID(c, "categoryId")
		if err != nil {
			return err
		}
		res, err := listProducts(categoryID)
		if err != nil {
			return internalError(c, err, "list products")
		}
		return c.JSON(res)
	}
}

// GET /api/admin/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := loadProduct(c)
		if err != nil {
			return err
		}
		return c.JSON(toProductResponse(*p))
	}
}

// POST /api/admin/products/search
func SearchProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductSearchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		q := database.DB.Model(&models.Product{})
		if s := strings.TrimSpace(body.Name); s != "" {
			q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
		}
		if body.CategoryID != nil {
			q = q.Where("category_id = ?", *body.CategoryID)
		}
		if body.SubCategoryID != nil {
			q = q.Where("sub_category_id = ?", *body.SubCategoryID)
		}
		if body.MinPrice != nil {
			q = q.Where("price >= ?", *body.MinPrice)
		}
		if body.MaxPrice != nil {
			q = q.Where("price <= ?", *body.MaxPrice)
		}
		if body.MinStock != nil {
			q = q.Where("stock >= ?", *body.MinStock)
		}

		page, err := pagination.Find[models.Product](q, body.Params, body.Params.Order(productSortColumns, "name asc, id asc"), "Category", "SubCategory")
		if err != nil {
			return internalError(c, err, "search products")
		}
		return c.JSON(pagination.Page[ProductResponse]{
			Content:       toProductResponses(page.Content),
			Page:          page.Page,
			Size:          page.Size,
			TotalElements: page.TotalElements,
			TotalPages:    page.TotalPages,
		})
	}
}

// POST /api/admin/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		var p models.Product
		if err := body.apply(&p); err != nil {
			return err
		}
		if err := database.DB.Omit("Category", "SubCategory").Create(&p).Error; err != nil {
			return internalError(c, err, "create product")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Product created: %s (%.2f)", p.Name, p.Price),
			After:       p,
		})
		cache.InvalidateCatalog(c.UserContext())
		cache.InvalidateStatistics(c.UserContext())

		return c.Status(fiber.StatusCreated).JSON(toProductResponse(p))
	}
}

// PUT /api/admin/products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := loadProduct(c)
		if err != nil {
			return err
		}
		before := *p

		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := body.apply(p); err != nil {
			return err
		}
		if err := database.DB.Omit("Category", "SubCategory").Save(p).Error; err != nil {
			return internalError(c, err, "update product")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionUpdate,
			Description: "Product updated: " + p.Name,
			Before:      before,
			After:       p,
		})
		cache.InvalidateCatalog(c.UserContext())
		cache.InvalidateStatistics(c.UserContext())

		return c.JSON(toProductResponse(*p))
	}
}

// DELETE /api/admin/products/:id
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := loadProduct(c)
		if err != nil {
			return err
		}

		used, err := productUsage(database.DB, p.ID)
		if err != nil {
			return internalError(c, err, "delete product")
		}
		if used > 0 {
			return fiber.NewError(fiber.StatusConflict, "product '"+p.Name+"' appears in orders and cannot be deleted")
		}

		if err := database.DB.Delete(&models.Product{}, p.ID).Error; err != nil {
			return internalError(c, err, "delete product")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionDelete,
			Description: "Product deleted: " + p.Name,
			Before:      p,
		})
		cache.InvalidateCatalog(c.UserContext())
		cache.InvalidateStatistics(c.UserContext())

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/admin/products/upload-image (multipart "file")
func UploadImageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, err := storage.UploadFormFile(c, "file", storage.ImageRule)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"url": info.URL, "key": info.Key})
	}
}
