package auth

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"restaurant-backend/internal/apptest"
	"restaurant-backend/internal/config"
	"restaurant-backend/internal/database/dbtest"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/notify"
	"restaurant-backend/internal/notify/notifytest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{JWTSecret: strings.Repeat("k", 32), JWTTTL: time.Hour}
}

func newAuthApp(cfg *config.Config) *fiber.App {
	app := apptest.NewApp()
	app.Post("/login", LoginHandler(cfg))
	app.Post("/signup", SignupHandler())
	app.Post("/register-admin", RegisterAdminHandler())
	app.Post("/check-email", CheckEmailHandler())
	app.Post("/forgot-password", ForgotPasswordHandler())
	app.Post("/verify-reset-code", VerifyResetCodeHandler())
	app.Post("/reset-password", ResetPasswordHandler())

	protected := app.Group("", JWTMiddleware(cfg))
	protected.Get("/me", MeHandler())
	protected.Get("/admin-only", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestLoginLooksUpEveryAccountType(t *testing.T) {
	db := dbtest.Setup(t)
	cfg := testConfig()
	app := newAuthApp(cfg)

	user := dbtest.CreateUser(t, db)
	admin := dbtest.CreateAdmin(t, db)
	emp := dbtest.CreateEmployee(t, db)

	cases := []struct {
		email    string
		role     models.UserRole
		redirect string
	}{
		{user.Email, models.RoleClient, "/dashboard"},
		{admin.Email, models.RoleAdmin, "/admin"},
		{emp.Email, models.RoleEmployee, "/employee"},
	}
	for _, tc := range cases {
		resp := apptest.Do(t, app, "POST", "/login", LoginRequest{Email: strings.ToUpper(tc.email), Password: dbtest.Password})
		require.Equal(t, fiber.StatusOK, resp.StatusCode, tc.email)

		var out LoginResponse
		apptest.Decode(t, resp, &out)
		assert.Equal(t, tc.role, out.User.Role)
		assert.Equal(t, tc.redirect, out.RedirectTo)

		claims, err := ParseToken(cfg.JWTSecret, out.Token)
		require.NoError(t, err)
		assert.Equal(t, tc.role, claims.Role)
		assert.Equal(t, out.User.ID, claims.UserID)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	db := dbtest.Setup(t)
	app := newAuthApp(testConfig())
	user := dbtest.CreateUser(t, db)

	resp := apptest.Do(t, app, "POST", "/login", LoginRequest{Email: user.Email, Password: "nope-nope"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid email or password", apptest.ErrorMessage(t, resp))

	resp = apptest.Do(t, app, "POST", "/login", LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSignupAndDuplicates(t *testing.T) {
	dbtest.Setup(t)
	app := newAuthApp(testConfig())

	body := SignupRequest{
		Name: "Ana", LastName: "Gomez", DocumentType: "CC", DocumentNumber: "123",
		Phone: "3001112233", Email: "ana@example.com", Password: "secret1", DateOfBirth: "1990-05-01",
	}
	resp := apptest.Do(t, app, "POST", "/signup", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = apptest.Do(t, app, "POST", "/signup", body)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	body.Email = "other@example.com"
	resp = apptest.Do(t, app, "POST", "/signup", body)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode, "same document number")

	body.DocumentNumber = "999"
	body.Password = "123"
	resp = apptest.Do(t, app, "POST", "/signup", body)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRegisterAdminOnlyOnce(t *testing.T) {
	dbtest.Setup(t)
	app := newAuthApp(testConfig())

	body := RegisterAdminRequest{Name: "Root", LastName: "Admin", Email: "root@example.com", Password: "secret1"}
	resp := apptest.Do(t, app, "POST", "/register-admin", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body.Email = "second@example.com"
	resp = apptest.Do(t, app, "POST", "/register-admin", body)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestJWTMiddlewareAndRoleGuard(t *testing.T) {
	db := dbtest.Setup(t)
	cfg := testConfig()
	app := newAuthApp(cfg)
	user := dbtest.CreateUser(t, db)

	resp := apptest.Do(t, app, "GET", "/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := GenerateToken(cfg.JWTSecret, time.Hour, accountFromUser(user))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestPasswordResetFlow(t *testing.T) {
	db := dbtest.Setup(t)
	rec := notifytest.Install(t)
	app := newAuthApp(testConfig())
	user := dbtest.CreateUser(t, db)

	resp := apptest.Do(t, app, "POST", "/forgot-password", EmailRequest{Email: "ghost@example.com"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, rec.Types())

	resp = apptest.Do(t, app, "POST", "/forgot-password", EmailRequest{Email: user.Email})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, []string{notify.EventPasswordResetRequested}, rec.Types())

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.Len(t, stored.ResetPasswordCode, 8)
	code := stored.ResetPasswordCode

	resp = apptest.Do(t, app, "POST", "/verify-reset-code", VerifyResetCodeRequest{Email: user.Email, Code: "00000000x"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = apptest.Do(t, app, "POST", "/verify-reset-code", VerifyResetCodeRequest{Email: user.Email, Code: code})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = apptest.Do(t, app, "POST", "/reset-password", ResetPasswordRequest{Email: user.Email, Code: code, NewPassword: "brand-new"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Empty(t, stored.ResetPasswordCode)

	resp = apptest.Do(t, app, "POST", "/login", LoginRequest{Email: user.Email, Password: "brand-new"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// a used code cannot be replayed
	resp = apptest.Do(t, app, "POST", "/reset-password", ResetPasswordRequest{Email: user.Email, Code: code, NewPassword: "again-new"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExpiredResetCode(t *testing.T) {
	db := dbtest.Setup(t)
	app := newAuthApp(testConfig())
	user := dbtest.CreateUser(t, db)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&user).Updates(map[string]interface{}{
		"reset_password_code":       "12345678",
		"reset_password_expires_at": past,
	}).Error)

	resp := apptest.Do(t, app, "POST", "/verify-reset-code", VerifyResetCodeRequest{Email: user.Email, Code: "12345678"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGenerateResetCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateResetCode()
		require.NoError(t, err)
		assert.Len(t, code, 8)
	}
}

func TestResetCodeBurnsAfterRepeatedWrongGuesses(t *testing.T) {
	db := dbtest.Setup(t)
	notifytest.Install(t)
	app := newAuthApp(testConfig())
	user := dbtest.CreateUser(t, db)

	resp := apptest.Do(t, app, "POST", "/forgot-password", EmailRequest{Email: user.Email})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	code := stored.ResetPasswordCode
	wrong := "99999999"
	if code == wrong {
		wrong = "11111111"
	}

	for i := 0; i < maxResetAttempts-1; i++ {
		resp = apptest.Do(t, app, "POST", "/verify-reset-code", VerifyResetCodeRequest{Email: user.Email, Code: wrong})
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	}
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, code, stored.ResetPasswordCode)
	assert.Equal(t, maxResetAttempts-1, stored.ResetPasswordAttempts)

	resp = apptest.Do(t, app, "POST", "/verify-reset-code", VerifyResetCodeRequest{Email: user.Email, Code: wrong})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Empty(t, stored.ResetPasswordCode)

	// the right code no longer works once burned
	resp = apptest.Do(t, app, "POST", "/verify-reset-code", VerifyResetCodeRequest{Email: user.Email, Code: code})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// a fresh code starts a fresh budget
	resp = apptest.Do(t, app, "POST", "/forgot-password", EmailRequest{Email: user.Email})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Zero(t, stored.ResetPasswordAttempts)
	assert.Len(t, stored.ResetPasswordCode, 8)
}

func TestResetEventLogOmitsCode(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.L
	logger.L = logger.New(&buf, "production", "info")
	t.Cleanup(func() { logger.L = prev })

	err := notify.LogPublisher{}.Publish(context.Background(), notify.Event{
		Type: notify.EventPasswordResetRequested,
		Payload: passwordResetEvent{
			UserID: 7, Email: "client@example.com", Name: "Ana Ruiz", Code: "48213307",
			ExpiresAt: time.Now().Add(resetCodeTTL),
		},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "client@example.com")
	assert.NotContains(t, buf.String(), "48213307")
}
