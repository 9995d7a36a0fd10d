package reward

import (
	"errors"
	"strings"

	"restaurant-backend/internal/audit"
	"restaurant-backend/internal/auth"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/storage"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RewardRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	ImageURL       string `json:"image_url"`
	PointsRequired int64  `json:"points_required"`
	Stock          *int   `json:"stock"`
	IsActive       *bool  `json:"is_active"`
}

type RedeemRequest struct {
	RewardProductID uint `json:"reward_product_id"`
}

type RedemptionResponse struct {
	ID              uint   `json:"id"`
	UserID          uint   `json:"user_id"`
	UserName        string `json:"user_name"`
	RewardProductID uint   `json:"reward_product_id"`
	RewardName      string `json:"reward_name"`
	PointsSpent     int64  `json:"points_spent"`
	PointsAfter     int64  `json:"points_after"`
	CreatedAt       string `json:"created_at"`
}

func toRedemptionResponse(r models.RewardRedemption) RedemptionResponse {
	return RedemptionResponse{
		ID:              r.ID,
		UserID:          r.UserID,
		UserName:        r.User.FullName(),
		RewardProductID: r.RewardProductID,
		RewardName:      r.RewardProduct.Name,
		PointsSpent:     r.PointsSpent,
		PointsAfter:     r.PointsAfter,
		CreatedAt:       r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (r RewardRequest) apply(p *models.RewardProduct) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if r.PointsRequired < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "points_required must be at least 1")
	}
	if r.Stock == nil || *r.Stock < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "stock is required and must not be negative")
	}

	p.Name = r.Name
	p.Description = strings.TrimSpace(r.Description)
	p.ImageURL = strings.TrimSpace(r.ImageURL)
	p.PointsRequired = r.PointsRequired
	p.Stock = *r.Stock
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	} else if p.ID == 0 {
		p.IsActive = true
	}
	return nil
}

func internalError(c *fiber.Ctx, err error, action string) error {
	logger.FromCtx(c).Error(action+" failed", "error", err)
	return fiber.NewError(fiber.StatusInternalServerError, "could not "+action)
}

func loadReward(c *fiber.Ctx, activeOnly bool) (*models.RewardProduct, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	q := database.DB
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var r models.RewardProduct
	if err := q.First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "reward not found")
		}
		return nil, err
	}
	return &r, nil
}

func listRewards(c *fiber.Ctx, activeOnly bool) error {
	q := database.DB.Order("points_required asc, id asc")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	rows := []models.RewardProduct{}
	if err := q.Find(&rows).Error; err != nil {
		return internalError(c, err, "list rewards")
	}
	return c.JSON(rows)
}

func listRedemptions(c *fiber.Ctx, userID uint) error {
	q := database.DB.Preload("User").Preload("RewardProduct").Order("created_at desc, id desc")
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var rows []models.RewardRedemption
	if err := q.Find(&rows).Error; err != nil {
		return internalError(c, err, "list redemptions")
	}
	out := make([]RedemptionResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRedemptionResponse(r))
	}
	return c.JSON(out)
}

// GET /api/admin/rewards
func ListRewardsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error { return listRewards(c, false) }
}

// GET /api/public/rewards
func ListActiveRewardsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error { return listRewards(c, true) }
}

// GET /api/admin/rewards/:id
func GetRewardHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := loadReward(c, false)
		if err != nil {
			return err
		}
		return c.JSON(r)
	}
}

// GET /api/public/rewards/:id
func GetActiveRewardHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := loadReward(c, true)
		if err != nil {
			return err
		}
		return c.JSON(r)
	}
}

// POST /api/admin/rewards
func CreateRewardHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RewardRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		var r models.RewardProduct
		if err := body.apply(&r); err != nil {
			return err
		}
		if err := database.DB.Create(&r).Error; err != nil {
			return internalError(c, err, "create reward")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "reward_product",
			EntityID:    r.ID,
			Action:      models.AuditActionCreate,
			Description: "Reward created: " + r.Name,
			After:       r,
		})
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

// PUT /api/admin/rewards/:id
func UpdateRewardHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := loadReward(c, false)
		if err != nil {
			return err
		}
		before := *r

		var body RewardRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := body.apply(r); err != nil {
			return err
		}
		if err := database.DB.Save(r).Error; err != nil {
			return internalError(c, err, "update reward")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "reward_product",
			EntityID:    r.ID,
			Action:      models.AuditActionUpdate,
			Description: "Reward updated: " + r.Name,
			Before:      before,
			After:       r,
		})
		return c.JSON(r)
	}
}

// DELETE /api/admin/rewards/:id
func DeleteRewardHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := loadReward(c, false)
		if err != nil {
			return err
		}

		used, err := redemptionCount(database.DB, r.ID)
		if err != nil {
			return internalError(c, err, "delete reward")
		}
		if used > 0 {
			return fiber.NewError(fiber.StatusConflict, "reward '"+r.Name+"' has redemptions; deactivate it instead")
		}
		if err := database.DB.Delete(&models.RewardProduct{}, r.ID).Error; err != nil {
			return internalError(c, err, "delete reward")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "reward_product",
			EntityID:    r.ID,
			Action:      models.AuditActionDelete,
			Description: "Reward deleted: " + r.Name,
			Before:      r,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/admin/rewards/upload-image (multipart "file")
func UploadImageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, err := storage.UploadFormFile(c, "file", storage.RewardImageRule)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"url": info.URL, "key": info.Key})
	}
}

// POST /api/client/rewards/redeem
func RedeemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		var body RedeemRequest
		if err := c.BodyParser(&body); err != nil || body.RewardProductID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "reward_product_id is required")
		}

		red, err := Redeem(database.DB, userID, body.RewardProductID)
		var pe *PointsError
		switch {
		case errors.Is(err, ErrRewardNotFound):
			return fiber.NewError(fiber.StatusNotFound, "reward not found")
		case errors.Is(err, ErrUserNotFound):
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		case errors.Is(err, ErrInactive), errors.Is(err, ErrOutOfStock), errors.As(err, &pe):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case err != nil:
			return internalError(c, err, "redeem reward")
		}

		if err := database.DB.Preload("User").Preload("RewardProduct").First(red, red.ID).Error; err != nil {
			return internalError(c, err, "load redemption")
		}
		return c.Status(fiber.StatusCreated).JSON(toRedemptionResponse(*red))
	}
}

// GET /api/client/rewards/redemptions
func MyRedemptionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		return listRedemptions(c, userID)
	}
}

// GET /api/admin/rewards/redemptions
func ListRedemptionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error { return listRedemptions(c, 0) }
}
