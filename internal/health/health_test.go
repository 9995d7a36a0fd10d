package health

import (
	"context"
	"errors"
	"testing"

	"restaurant-backend/internal/apptest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHandler(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := apptest.NewApp()
	app.Get("/health", CheckHandler(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing()
		resp := apptest.Do(t, app, "GET", "/health", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body map[string]string
		apptest.Decode(t, resp, &body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("connection refused"))
		resp := apptest.Do(t, app, "GET", "/health", nil)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "database unavailable", apptest.ErrorMessage(t, resp))
	})

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestCheckHandlerReportsDependencies(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := apptest.NewApp()
	app.Get("/health", CheckHandler(db,
		Dependency{Name: "rabbitmq", Ping: func(context.Context) error { return errors.New("connection closed") }},
		Dependency{Name: "redis", Ping: func(context.Context) error { return ErrDisabled }},
		Dependency{Name: "storage", Ping: func(context.Context) error { return nil }},
	))

	dbMock.ExpectPing()
	resp := apptest.Do(t, app, "GET", "/health", nil)
	// a broken optional dependency does not fail readiness
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	apptest.Decode(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, map[string]string{"rabbitmq": "down", "redis": "disabled", "storage": "up"}, body.Dependencies)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestLivenessHandler(t *testing.T) {
	app := apptest.NewApp()
	app.Get("/healthz", LivenessHandler())

	resp := apptest.Do(t, app, "GET", "/healthz", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
