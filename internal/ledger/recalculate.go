package ledger

import (
	"fmt"
	"time"

	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/metrics"
	"restaurant-backend/internal/models"

	"gorm.io/gorm"
)

// Recalculate replays every transaction from zero in (created_at, id) order,
// rewrites balance_before/after where they drifted and stores the final balance.
func Recalculate(db *gorm.DB) (*models.Balance, error) {
	var bal *models.Balance
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		bal, err = lockBalance(tx)
		if err != nil {
			return err
		}

		var txs []models.Transaction
		if err := tx.Order("created_at asc, id asc").Find(&txs).Error; err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}

		running := 0.0
		updated := 0
		for _, t := range txs {
			before := running
			running = Apply(running, t.Type, t.Amount)
			if Round(t.BalanceBefore) == before && Round(t.BalanceAfter) == running {
				continue
			}
			if err := tx.Model(&models.Transaction{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
				"balance_before": before,
				"balance_after":  running,
			}).Error; err != nil {
				return fmt.Errorf("update transaction %d: %w", t.ID, err)
			}
			updated++
		}

		previous := bal.CurrentBalance
		bal.CurrentBalance = running
		bal.LastUpdated = time.Now()
		if err := tx.Model(bal).Updates(map[string]interface{}{
			"current_balance": bal.CurrentBalance,
			"last_updated":    bal.LastUpdated,
		}).Error; err != nil {
			return err
		}

		logger.Info("balance recalculated",
			"transactions", len(txs), "rows_updated", updated,
			"previous", previous, "current", running)
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.CurrentBalance.Set(bal.CurrentBalance)
	return bal, nil
}

// DeleteTransaction removes one transaction and rebuilds the balance.
func DeleteTransaction(db *gorm.DB, id uint) error {
	var t models.Transaction
	if err := db.First(&t, id).Error; err != nil {
		return err
	}
	if err := db.Delete(&t).Error; err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	logger.Info("transaction deleted", "id", id, "type", t.Type, "amount", t.Amount)
	_, err := Recalculate(db)
	return err
}

// DeleteByReference removes the transactions of one source record and rebuilds the balance.
func DeleteByReference(db *gorm.DB, refType models.ReferenceType, refID uint) error {
	res := db.Where("reference_type = ? AND reference_id = ?", refType, refID).Delete(&models.Transaction{})
	if res.Error != nil {
		return fmt.Errorf("delete %s %d transactions: %w", refType, refID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}
	_, err := Recalculate(db)
	return err
}

// SyncReferenceAmount changes the amount of a source record's transactions
// (an edited expense, for example) and rebuilds the balance. It reports
// whether any transaction was found.
func SyncReferenceAmount(db *gorm.DB, refType models.ReferenceType, refID uint, amount float64, description string) (bool, error) {
	updates := map[string]interface{}{"amount": Round(amount)}
	if description != "" {
		updates["description"] = description
	}
	res := db.Model(&models.Transaction{}).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("update %s %d transactions: %w", refType, refID, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	_, err := Recalculate(db)
	return true, err
}
