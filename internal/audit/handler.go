package audit

import (
	"errors"
	"strconv"

	"restaurant-backend/internal/auth"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	ActorID     uint               `json:"actor_id"`
	ActorRole   models.UserRole    `json:"actor_role"`
	ActorName   string             `json:"actor_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"before_data"`
	AfterData   string             `json:"after_data"`
	IsUndone    bool               `json:"is_undone"`
	UndoneBy    *uint              `json:"undone_by"`
	UndoneAt    *string            `json:"undone_at"`
}

// GET /api/admin/audit-logs?entity_type=expense&entity_id=1&actor_id=1
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.AuditLog{})

		if v := c.Query("entity_type"); v != "" {
			dbq = dbq.Where("entity_type = ?", v)
		}
		if v, err := strconv.ParseUint(c.Query("entity_id"), 10, 64); err == nil && v > 0 {
			dbq = dbq.Where("entity_id = ?", v)
		}
		if v, err := strconv.ParseUint(c.Query("actor_id"), 10, 64); err == nil && v > 0 {
			dbq = dbq.Where("actor_id = ?", v)
		}

		limit := c.QueryInt("limit", 200)
		if limit <= 0 || limit > 1000 {
			limit = 200
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list audit logs")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			var undoneAt *string
			if l.UndoneAt != nil {
				s := l.UndoneAt.Format("2006-01-02 15:04:05")
				undoneAt = &s
			}
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				ActorID:     l.ActorID,
				ActorRole:   l.ActorRole,
				ActorName:   l.ActorName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
				BeforeData:  l.BeforeData,
				AfterData:   l.AfterData,
				IsUndone:    l.IsUndone,
				UndoneBy:    l.UndoneBy,
				UndoneAt:    undoneAt,
			})
		}
		return c.JSON(resp)
	}
}

// POST /api/admin/audit-logs/:id/undo
func UndoAuditLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		logID, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || logID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid log id")
		}

		actorID, role, name, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		if err := UndoLog(uint(logID), actorID, role, name); err != nil {
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				return fiber.NewError(fiber.StatusNotFound, "audit log or entity not found")
			case errors.Is(err, ErrAlreadyUndone), errors.Is(err, ErrInUse):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			case errors.Is(err, ErrNotUndoable), errors.Is(err, ErrUnknownEntity):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			default:
				logger.FromCtx(c).Error("undo audit log failed", "log_id", logID, "error", err)
				return fiber.NewError(fiber.StatusInternalServerError, "could not undo action")
			}
		}

		return c.JSON(fiber.Map{"message": "action undone"})
	}
}
