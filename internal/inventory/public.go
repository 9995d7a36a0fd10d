package inventory

import (
	"context"
	"fmt"

	"restaurant-backend/internal/audit"
	"restaurant-backend/internal/cache"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func init() {
	dropCatalog := func(*gorm.DB) error {
		cache.InvalidateCatalog(context.Background())
		return nil
	}
	audit.Register("category", audit.ModelRestorer[models.Category]{
		Columns: []string{"name", "description"},
		BeforeDelete: func(tx *gorm.DB, id uint) error {
			products, subs, err := categoryUsage(tx, id)
			if err != nil {
				return err
			}
			if products+subs > 0 {
				return fmt.Errorf("%w: category has %d product(s) and %d sub-category(ies)", audit.ErrInUse, products, subs)
			}
			return nil
		},
		AfterChange: dropCatalog,
	})
	// stock is left out: orders move it after the logged change
	audit.Register("product", audit.ModelRestorer[models.Product]{
		Columns: []string{"name", "description", "image_url", "price", "category_id", "sub_category_id"},
		BeforeDelete: func(tx *gorm.DB, id uint) error {
			used, err := productUsage(tx, id)
			if err != nil {
				return err
			}
			if used > 0 {
				return fmt.Errorf("%w: product appears in %d order line(s)", audit.ErrInUse, used)
			}
			return nil
		},
		AfterChange: dropCatalog,
	})
}

// cached serves key from Redis, or runs load and stores its result.
func cached[T any](c *fiber.Ctx, key string, load func() (T, error)) error {
	var out T
	if cache.Get(c.UserContext(), key, &out) {
		return c.JSON(out)
	}
	out, err := load()
	if err != nil {
		return internalError(c, err, "load catalog")
	}
	if err := cache.Set(c.UserContext(), key, out); err != nil {
		logger.FromCtx(c).Warn("catalog cache write failed", "key", key, "error", err)
	}
	return c.JSON(out)
}

// GET /api/public/categories
func PublicCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return cached(c, cache.PrefixCatalog+"categories", listCategories)
	}
}

// GET /api/public/products
func PublicProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return cached(c, cache.PrefixCatalog+"products", func() ([]ProductResponse, error) {
			return listProducts(0)
		})
	}
}

// GET /api/public/products/category/:categoryId
func PublicProductsByCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		categoryID, err := paramID(c, "categoryId")
		if err != nil {
			return err
		}
		key := fmt.Sprintf("%sproducts:category:%d", cache.PrefixCatalog, categoryID)
		return cached(c, key, func() ([]ProductResponse, error) {
			return listProducts(categoryID)
		})
	}
}

// GET /api/public/subcategories
func PublicSubCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return cached(c, cache.PrefixCatalog+"subcategories", func() ([]SubCategoryResponse, error) {
			return listSubCategories(0)
		})
	}
}

// GET /api/public/subcategories/category/:categoryId
func PublicSubCategoriesByCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		categoryID, err := paramID(c, "categoryId")
		if err != nil {
			return err
		}
		key := fmt.Sprintf("%ssubcategories:category:%d", cache.PrefixCatalog, categoryID)
		return cached(c, key, func() ([]SubCategoryResponse, error) {
			return listSubCategories(categoryID)
		})
	}
}
