// Package reward manages the loyalty catalog and point redemptions.
package reward

import (
	"errors"
	"fmt"

	"restaurant-backend/internal/audit"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"

	"gorm.io/gorm"
)

func init() {
	// stock is left out: redemptions move it after the logged change
	audit.Register("reward_product", audit.ModelRestorer[models.RewardProduct]{
		Columns: []string{"name", "description", "image_url", "points_required", "is_active"},
		BeforeDelete: func(tx *gorm.DB, id uint) error {
			n, err := redemptionCount(tx, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: reward has %d redemption(s)", audit.ErrInUse, n)
			}
			return nil
		},
	})
}

func redemptionCount(db *gorm.DB, rewardID uint) (int64, error) {
	var n int64
	err := db.Model(&models.RewardRedemption{}).Where("reward_product_id = ?", rewardID).Count(&n).Error
	return n, err
}

var (
	ErrInactive       = errors.New("reward is not available")
	ErrOutOfStock     = errors.New("reward is out of stock")
	ErrRewardNotFound = errors.New("reward not found")
	ErrUserNotFound   = errors.New("user not found")
)

// PointsError reports a redemption the customer cannot afford.
type PointsError struct {
	Required  int64
	Available int64
}

func (e *PointsError) Error() string {
	return fmt.Sprintf("not enough points. required %d, available %d", e.Required, e.Available)
}

// Redeem exchanges the customer's points for one unit of the reward. Points,
// stock and the redemption row are written together.
func Redeem(db *gorm.DB, userID, rewardID uint) (*models.RewardRedemption, error) {
	var out models.RewardRedemption
	err := db.Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		var r models.RewardProduct
		if err := tx.First(&r, rewardID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRewardNotFound
			}
			return err
		}

		if !r.IsActive {
			return ErrInactive
		}
		if r.Stock <= 0 {
			return ErrOutOfStock
		}
		if u.Points < r.PointsRequired {
			return &PointsError{Required: r.PointsRequired, Available: u.Points}
		}

		res := tx.Model(&models.User{}).Where("id = ? AND points >= ?", u.ID, r.PointsRequired).
			UpdateColumn("points", gorm.Expr("points - ?", r.PointsRequired))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &PointsError{Required: r.PointsRequired, Available: u.Points}
		}
		res = tx.Model(&models.RewardProduct{}).Where("id = ? AND stock > 0", r.ID).
			UpdateColumn("stock", gorm.Expr("stock - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOutOfStock
		}

		out = models.RewardRedemption{
			UserID:          u.ID,
			RewardProductID: r.ID,
			PointsSpent:     r.PointsRequired,
			PointsAfter:     u.Points - r.PointsRequired,
		}
		return tx.Create(&out).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("reward redeemed", "user_id", userID, "reward_id", rewardID,
		"points_spent", out.PointsSpent, "points_after", out.PointsAfter)
	return &out, nil
}
