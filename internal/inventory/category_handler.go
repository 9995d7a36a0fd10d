package inventory

import (
	"errors"
	"fmt"
	"strings"

	"restaurant-backend/internal/audit"
	"restaurant-backend/internal/cache"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CategoryResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ProductCount int64  `json:"product_count"`
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type SubCategoryResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	ProductCount int64  `json:"product_count"`
}

type SubCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  uint   `json:"category_id"`
}

func internalError(c *fiber.Ctx, err error, action string) error {
	logger.FromCtx(c).Error(action+" failed", "error", err)
	return fiber.NewError(fiber.StatusInternalServerError, "could not "+action)
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

// productCounts returns product counts keyed by the values of column.
func productCounts(column string) (map[uint]int64, error) {
	type row struct {
		ID    uint
		Count int64
	}
	var rows []row
	if err := database.DB.Model(&models.Product{}).
		Select(column + " as id, COUNT(*) as count").
		Where(column + " IS NOT NULL").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Count
	}
	return out, nil
}

// categoryUsage counts the products and sub-categories that keep a category alive.
func categoryUsage(db *gorm.DB, id uint) (products, subs int64, err error) {
	if err = db.Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
		return 0, 0, err
	}
	err = db.Model(&models.SubCategory{}).Where("category_id = ?", id).Count(&subs).Error
	return products, subs, err
}

// productUsage counts the order and delivery lines that reference a product.
func productUsage(db *gorm.DB, id uint) (int64, error) {
	var orders, deliveries int64
	if err := db.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&orders).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&models.DeliveryItem{}).Where("product_id = ?", id).Count(&deliveries).Error; err != nil {
		return 0, err
	}
	return orders + deliveries, nil
}

func countProducts(column string, id uint) int64 {
	var n int64
	database.DB.Model(&models.Product{}).Where(column+" = ?", id).Count(&n)
	return n
}

func toCategoryResponse(cat models.Category, count int64) CategoryResponse {
	return CategoryResponse{ID: cat.ID, Name: cat.Name, Description: cat.Description, ProductCount: count}
}

func listCategories() ([]CategoryResponse, error) {
	var cats []models.Category
	if err := database.DB.Order("name asc").Find(&cats).Error; err != nil {
		return nil, err
	}
	counts, err := productCounts("category_id")
	if err != nil {
		return nil, err
	}
	res := make([]CategoryResponse, 0, len(cats))
	for _, cat := range cats {
		res = append(res, toCategoryResponse(cat, counts[cat.ID]))
	}
	return res, nil
}

func categoryNameTaken(name string, exceptID uint) bool {
	var n int64
	database.DB.Model(&models.Category{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), exceptID).
		Count(&n)
	return n > 0
}

func loadCategory(c *fiber.Ctx) (*models.Category, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	var cat models.Category
	if err := database.DB.First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return nil, err
	}
	return &cat, nil
}

// GET /api/admin/categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := listCategories()
		if err != nil {
			return internalError(c, err, "list categories")
		}
		return c.JSON(res)
	}
}

// GET /api/admin/categories/:id
func GetCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cat, err := loadCategory(c)
		if err != nil {
			return err
		}
		return c.JSON(toCategoryResponse(*cat, countProducts("category_id", cat.ID)))
	}
}

// POST /api/admin/categories
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "category name is required")
		}
		if categoryNameTaken(body.Name, 0) {
			return fiber.NewError(fiber.StatusConflict, "a category with this name already exists")
		}

		cat := models.Category{Name: body.Name, Description: strings.TrimSpace(body.Description)}
		if err := database.DB.Create(&cat).Error; err != nil {
			return internalError(c, err, "create category")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "category",
			EntityID:    cat.ID,
			Action:      models.AuditActionCreate,
			Description: "Category created: " + cat.Name,
			After:       cat,
		})
		cache.InvalidateCatalog(c.UserContext())

		return c.Status(fiber.StatusCreated).JSON(toCategoryResponse(cat, 0))
	}
}

// PUT /api/admin/categories/:id
func UpdateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cat, err := loadCategory(c)
		if err != nil {
			return err
		}
		before := *cat

		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "category name is required")
		}
		if categoryNameTaken(body.Name, cat.ID) {
			return fiber.NewError(fiber.StatusConflict, "a category with this name already exists")
		}

		cat.Name = body.Name
		cat.Description = strings.TrimSpace(body.Description)
		if err := database.DB.Save(cat).Error; err != nil {
			return internalError(c, err, "update category")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "category",
			EntityID:    cat.ID,
			Action:      models.AuditActionUpdate,
			Description: "Category updated: " + cat.Name,
			Before:      before,
			After:       cat,
		})
		cache.InvalidateCatalog(c.UserContext())

		return c.JSON(toCategoryResponse(*cat, countProducts("category_id", cat.ID)))
	}
}

// DELETE /api/admin/categories/:id
func DeleteCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cat, err := loadCategory(c)
		if err != nil {
			return err
		}

		n, subs, err := categoryUsage(database.DB, cat.ID)
		if err != nil {
			return internalError(c, err, "delete category")
		}
		if n > 0 {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("category '%s' has %d associated product(s) and cannot be deleted", cat.Name, n))
		}
		if subs > 0 {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("category '%s' has %d sub-category(ies) and cannot be deleted", cat.Name, subs))
		}

		if err := database.DB.Delete(cat).Error; err != nil {
			return internalError(c, err, "delete category")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "category",
			EntityID:    cat.ID,
			Action:      models.AuditActionDelete,
			Description: "Category deleted: " + cat.Name,
			Before:      cat,
		})
		cache.InvalidateCatalog(c.UserContext())

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------
// Sub-categories
// -------------------------

func listSubCategories(categoryID uint) ([]SubCategoryResponse, error) {
	q := database.DB.Preload("Category").Order("name asc")
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	var subs []models.SubCategory
	if err := q.Find(&subs).Error; err != nil {
		return nil, err
	}
	counts, err := productCounts("sub_category_id")
	if err != nil {
		return nil, err
	}
	res := make([]SubCategoryResponse, 0, len(subs))
	for _, s := range subs {
		res = append(res, toSubCategoryResponse(s, counts[s.ID]))
	}
	return res, nil
}

func toSubCategoryResponse(s models.SubCategory, count int64) SubCategoryResponse {
	return SubCategoryResponse{
		ID:           s.ID,
		Name:         s.Name,
		Description:  s.Description,
		CategoryID:   s.CategoryID,
		CategoryName: s.Category.Name,
		ProductCount: count,
	}
}

func subCategoryNameTaken(name string, categoryID, exceptID uint) bool {
	var n int64
	database.DB.Model(&models.SubCategory{}).
		Where("LOWER(name) = ? AND category_id = ? AND id <> ?", strings.ToLower(name), categoryID, exceptID).
		Count(&n)
	return n > 0
}

func loadSubCategory(c *fiber.Ctx) (*models.SubCategory, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	var s models.SubCategory
	if err := database.DB.Preload("Category").First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "sub-category not found")
		}
		return nil, err
	}
	return &s, nil
}

func (r *SubCategoryRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	if r.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "sub-category name is required")
	}
	if r.CategoryID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "category_id is required")
	}
	var n int64
	database.DB.Model(&models.Category{}).Where("id = ?", r.CategoryID).Count(&n)
	if n == 0 {
		return fiber.NewError(fiber.StatusNotFound, "category not found")
	}
	return nil
}

// GET /api/admin/subcategories
func ListSubCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := listSubCategories(0)
		if err != nil {
			return internalError(c, err, "list sub-categories")
		}
		return c.JSON(res)
	}
}

// GET /api/admin/subcategories/category/:categoryId
func ListSubCategoriesByCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		categoryID, err := paramID(c, "categoryId")
		if err != nil {
			return err
		}
		res, err := listSubCategories(categoryID)
		if err != nil {
			return internalError(c, err, "list sub-categories")
		}
		return c.JSON(res)
	}
}

// GET /api/admin/subcategories/:id
func GetSubCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := loadSubCategory(c)
		if err != nil {
			return err
		}
		return c.JSON(toSubCategoryResponse(*s, countProducts("sub_category_id", s.ID)))
	}
}

// POST /api/admin/subcategories
func CreateSubCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SubCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := body.validate(); err != nil {
			return err
		}
		if subCategoryNameTaken(body.Name, body.CategoryID, 0) {
			return fiber.NewError(fiber.StatusConflict, "a sub-category with this name already exists in the category")
		}

		s := models.SubCategory{Name: body.Name, Description: body.Description, CategoryID: body.CategoryID}
		if err := database.DB.Create(&s).Error; err != nil {
			return internalError(c, err, "create sub-category")
		}
		database.DB.Preload("Category").First(&s, s.ID)
		cache.InvalidateCatalog(c.UserContext())

		return c.Status(fiber.StatusCreated).JSON(toSubCategoryResponse(s, 0))
	}
}

// PUT /api/admin/subcategories/:id
func UpdateSubCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := loadSubCategory(c)
		if err != nil {
			return err
		}

		var body SubCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := body.validate(); err != nil {
			return err
		}
		if subCategoryNameTaken(body.Name, body.CategoryID, s.ID) {
			return fiber.NewError(fiber.StatusConflict, "a sub-category with this name already exists in the category")
		}

		if err := database.DB.Model(s).Updates(map[string]interface{}{
			"name":        body.Name,
			"description": body.Description,
			"category_id": body.CategoryID,
		}).Error; err != nil {
			return internalError(c, err, "update sub-category")
		}
		database.DB.Preload("Category").First(s, s.ID)
		cache.InvalidateCatalog(c.UserContext())

		return c.JSON(toSubCategoryResponse(*s, countProducts("sub_category_id", s.ID)))
	}
}

// DELETE /api/admin/subcategories/:id
func DeleteSubCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := loadSubCategory(c)
		if err != nil {
			return err
		}
		if n := countProducts("sub_category_id", s.ID); n > 0 {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("sub-category '%s' has %d associated product(s) and cannot be deleted", s.Name, n))
		}
		if err := database.DB.Delete(&models.SubCategory{}, s.ID).Error; err != nil {
			return internalError(c, err, "delete sub-category")
		}
		cache.InvalidateCatalog(c.UserContext())
		return c.SendStatus(fiber.StatusNoContent)
	}
}
