// Package health exposes the readiness and liveness probes.
package health

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"restaurant-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

const pingTimeout = 2 * time.Second

// ErrDisabled marks an optional dependency that is not configured.
var ErrDisabled = errors.New("dependency disabled")

// Dependency is an optional service listed under "dependencies". Its state
// never fails the check.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

// GET /health
// Ready only while the database answers a ping.
func CheckHandler(db *sql.DB, deps ...Dependency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.FromCtx(c).Warn("health check failed", "error", err)
			return fiber.NewError(fiber.StatusServiceUnavailable, "database unavailable")
		}
		if len(deps) == 0 {
			return c.JSON(fiber.Map{"status": "healthy"})
		}

		states := make(map[string]string, len(deps))
		for _, d := range deps {
			err := d.Ping(ctx)
			switch {
			case err == nil:
				states[d.Name] = "up"
			case errors.Is(err, ErrDisabled):
				states[d.Name] = "disabled"
			default:
				logger.FromCtx(c).Warn("dependency down", "dependency", d.Name, "error", err)
				states[d.Name] = "down"
			}
		}
		return c.JSON(fiber.Map{"status": "healthy", "dependencies": states})
	}
}

// GET /healthz
func LivenessHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
