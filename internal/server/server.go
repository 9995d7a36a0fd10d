// Package server assembles the Fiber application: middleware chain, probes,
// metrics and every API route group.
package server

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"restaurant-backend/internal/cache"
	"restaurant-backend/internal/config"
	"restaurant-backend/internal/health"
	"restaurant-backend/internal/metrics"
	"restaurant-backend/internal/middleware"
	"restaurant-backend/internal/notify"
	"restaurant-backend/internal/tracing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
)

// New builds the app. HTTP metrics are registered into reg; /metrics serves
// metrics.Registry.
func New(cfg *config.Config, db *sql.DB, reg prometheus.Registerer) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:      "restaurant-backend",
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    int(cfg.UploadMaxBytes) + 1024*1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	prom, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, err
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if cfg.Tracing.Enabled {
		app.Use(tracing.Middleware(cfg.Tracing.ServiceName))
	}
	app.Use(middleware.Logger())
	app.Use(prom.Handler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOriginList(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.RequestIDHeader,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/health", health.CheckHandler(db,
		health.Dependency{Name: "rabbitmq", Ping: brokerPing},
		health.Dependency{Name: "redis", Ping: cachePing},
	))
	app.Get("/healthz", health.LivenessHandler())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	registerRoutes(app, cfg)
	return app, nil
}

func brokerPing(context.Context) error {
	err := notify.Ping()
	if errors.Is(err, notify.ErrNoBroker) {
		return health.ErrDisabled
	}
	return err
}

func cachePing(ctx context.Context) error {
	err := cache.Ping(ctx)
	if errors.Is(err, cache.ErrDisabled) {
		return health.ErrDisabled
	}
	return err
}
