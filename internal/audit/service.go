package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"restaurant-backend/internal/auth"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	ErrAlreadyUndone = errors.New("this action has already been undone")
	ErrNotUndoable   = errors.New("this action cannot be undone")
	ErrUnknownEntity = errors.New("unknown entity type")
	ErrInUse         = errors.New("entity is still referenced")
)

type LogOptions struct {
	ActorID     uint
	ActorRole   models.UserRole
	ActorName   string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	// jsonb columns need a JSON literal, never an empty string
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	entry := models.AuditLog{
		ActorID:     opts.ActorID,
		ActorRole:   opts.ActorRole,
		ActorName:   opts.ActorName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := database.DB.Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Record fills the actor from the request and writes the log. A failed audit
// write is logged, the mutation it describes already succeeded.
func Record(c *fiber.Ctx, opts LogOptions) {
	id, role, name, err := auth.CurrentActor(c)
	if err == nil {
		opts.ActorID, opts.ActorRole, opts.ActorName = id, role, name
	}
	if err := WriteLog(opts); err != nil {
		logger.FromCtx(c).Error("audit log failed", "entity", opts.EntityType, "entity_id", opts.EntityID, "error", err)
	}
}

// Restorer reverses changes for one entity type.
type Restorer interface {
	// Delete reverses a create.
	Delete(tx *gorm.DB, id uint) error
	// Restore writes the before snapshot back, reversing an update.
	Restore(tx *gorm.DB, id uint, data []byte) error
	// Recreate inserts the deleted snapshot again, reversing a delete.
	Recreate(tx *gorm.DB, data []byte) error
}

var (
	restorersMu sync.RWMutex
	restorers   = map[string]Restorer{}
)

// Register makes entityType undoable. Domain packages call it from init.
func Register(entityType string, r Restorer) {
	restorersMu.Lock()
	defer restorersMu.Unlock()
	restorers[entityType] = r
}

func restorerFor(entityType string) (Restorer, bool) {
	restorersMu.RLock()
	defer restorersMu.RUnlock()
	r, ok := restorers[entityType]
	return r, ok
}

// UndoLog reverses the logged action and writes an "undo" entry.
func UndoLog(logID uint, actorID uint, actorRole models.UserRole, actorName string) error {
	var entry models.AuditLog
	if err := database.DB.First(&entry, "id = ?", logID).Error; err != nil {
		return fmt.Errorf("audit log %d: %w", logID, err)
	}
	if entry.IsUndone {
		return ErrAlreadyUndone
	}

	r, ok := restorerFor(entry.EntityType)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entry.EntityType)
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		switch entry.Action {
		case models.AuditActionCreate:
			err = r.Delete(tx, entry.EntityID)
		case models.AuditActionUpdate:
			err = r.Restore(tx, entry.EntityID, []byte(entry.BeforeData))
		case models.AuditActionDelete:
			err = r.Recreate(tx, []byte(entry.BeforeData))
		default:
			return ErrNotUndoable
		}
		if err != nil {
			return fmt.Errorf("undo %s %d: %w", entry.EntityType, entry.EntityID, err)
		}

		now := time.Now()
		if err := tx.Model(&entry).Updates(map[string]interface{}{
			"is_undone": true,
			"undone_by": actorID,
			"undone_at": now,
		}).Error; err != nil {
			return err
		}

		return tx.Create(&models.AuditLog{
			ActorID:     actorID,
			ActorRole:   actorRole,
			ActorName:   actorName,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.AuditActionUndo,
			Description: "Undone: " + entry.Description,
			BeforeData:  entry.AfterData,
			AfterData:   entry.BeforeData,
		}).Error
	})
}

// ModelRestorer undoes plain single-table entities. Columns lists what Restore writes back.
type ModelRestorer[T any] struct {
	Columns []string

	// BeforeDelete vetoes reversing a create, e.g. while other rows reference
	// the entity. Return an error wrapping ErrInUse for a conflict.
	BeforeDelete func(tx *gorm.DB, id uint) error

	// AfterChange runs inside the undo transaction, e.g. to drop caches.
	AfterChange func(tx *gorm.DB) error
}

func (r ModelRestorer[T]) Delete(tx *gorm.DB, id uint) error {
	if r.BeforeDelete != nil {
		if err := r.BeforeDelete(tx, id); err != nil {
			return err
		}
	}
	var m T
	if err := tx.Delete(&m, id).Error; err != nil {
		return err
	}
	return r.after(tx)
}

func (r ModelRestorer[T]) Restore(tx *gorm.DB, id uint, data []byte) error {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	res := tx.Model(new(T)).Where("id = ?", id).Select(r.Columns).Updates(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return r.after(tx)
}

func (r ModelRestorer[T]) Recreate(tx *gorm.DB, data []byte) error {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	// the original id is kept so references logged elsewhere stay valid
	if err := tx.Create(&m).Error; err != nil {
		return err
	}
	return r.after(tx)
}

func (r ModelRestorer[T]) after(tx *gorm.DB) error {
	if r.AfterChange == nil {
		return nil
	}
	return r.AfterChange(tx)
}
