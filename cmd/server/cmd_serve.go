package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"restaurant-backend/internal/cache"
	"restaurant-backend/internal/config"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/metrics"
	"restaurant-backend/internal/notify"
	"restaurant-backend/internal/payroll"
	"restaurant-backend/internal/scheduler"
	"restaurant-backend/internal/server"
	"restaurant-backend/internal/storage"
	"restaurant-backend/internal/tracing"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the payroll scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

// boot loads configuration, initialises logging and opens the database.
func boot() *config.Config {
	cfg := config.Load()
	logger.Init(cfg.AppEnv, cfg.LogLevel)
	database.Init(cfg)
	return cfg
}

// connectOptional wires Redis, object storage and RabbitMQ. Each one is
// optional: a failure is logged and the feature degrades.
func connectOptional(ctx context.Context, cfg *config.Config) {
	if err := cache.Connect(cfg.Redis); err != nil {
		logger.Warn("redis unavailable, caching disabled", "error", err)
	}

	st, err := storage.FromConfig(ctx, cfg)
	if err != nil {
		logger.Warn("object storage unavailable, uploads disabled", "error", err)
	} else if st != nil {
		storage.Default = st
	}

	if cfg.RabbitMQ.URL != "" {
		pub, err := notify.NewRabbitMQ(cfg.RabbitMQ)
		if err != nil {
			logger.Warn("rabbitmq unavailable, events go to the log", "error", err)
		} else {
			notify.Default = pub
		}
	}
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := boot()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}

	connectOptional(ctx, cfg)

	sqlDB, err := database.DB.DB()
	if err != nil {
		return err
	}
	app, err := server.New(cfg, sqlDB, metrics.Registry)
	if err != nil {
		return err
	}

	sched := scheduler.New()
	if cfg.Scheduler.Enabled {
		if err := payroll.Register(sched, cfg.Scheduler, database.DB); err != nil {
			return err
		}
		sched.Start(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "port", cfg.HTTPPort, "env", cfg.AppEnv)
		return app.Listen(":" + cfg.HTTPPort)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		sched.Stop()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}

		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(
			notify.Default.Close(),
			cache.Close(),
			shutdownTracing(flushCtx),
			sqlDB.Close(),
		)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
