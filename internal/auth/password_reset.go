package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"restaurant-backend/internal/database"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/notify"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	resetCodeTTL = 15 * time.Minute

	// maxResetAttempts wrong codes burn the current code.
	maxResetAttempts = 5
)

type EmailRequest struct {
	Email string `json:"email"`
}

type VerifyResetCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type passwordResetEvent struct {
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LogValue keeps the code out of logs.
func (e passwordResetEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("user_id", uint64(e.UserID)),
		slog.String("email", e.Email),
		slog.Time("expires_at", e.ExpiresAt),
	)
}

// generateResetCode returns 8 random digits.
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%08d", n.Int64()), nil
}

// issueResetCode stores a fresh code on the user and hands it to the notifier.
func issueResetCode(c *fiber.Ctx, user *models.User) error {
	code, err := generateResetCode()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not generate reset code")
	}
	expires := time.Now().Add(resetCodeTTL)

	if err := database.DB.Model(user).Updates(map[string]interface{}{
		"reset_password_code":       code,
		"reset_password_expires_at": expires,
		"reset_password_attempts":   0,
	}).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not store reset code")
	}

	notify.Publish(c.UserContext(), notify.EventPasswordResetRequested, passwordResetEvent{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.FullName(),
		Code:      code,
		ExpiresAt: expires,
	})
	logger.FromCtx(c).Info("password reset code issued", "user_id", user.ID)
	return nil
}

// loadResetUser finds the user and checks the code is current. Every wrong
// guess counts against the code; the last allowed one clears it.
func loadResetUser(email, code string) (*models.User, error) {
	invalid := fiber.NewError(fiber.StatusBadRequest, "invalid or expired code")

	var user models.User
	if err := database.DB.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, invalid
	}
	if user.ResetPasswordCode == "" {
		return nil, invalid
	}
	if subtle.ConstantTimeCompare([]byte(user.ResetPasswordCode), []byte(code)) != 1 {
		updates := map[string]interface{}{"reset_password_attempts": gorm.Expr("reset_password_attempts + 1")}
		if user.ResetPasswordAttempts+1 >= maxResetAttempts {
			updates["reset_password_code"] = ""
			updates["reset_password_expires_at"] = nil
			logger.Warn("reset code burned after too many attempts", "user_id", user.ID)
		}
		if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
			logger.Error("reset attempt not recorded", "user_id", user.ID, "error", err)
		}
		return nil, invalid
	}
	if user.ResetPasswordExpiresAt == nil || time.Now().After(*user.ResetPasswordExpiresAt) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid or expired code")
	}
	return &user, nil
}

// POST /api/auth/check-email
func CheckEmailHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body EmailRequest
		if err := c.BodyParser(&body); err != nil || normalizeEmail(body.Email) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email is required")
		}

		var user models.User
		if err := database.DB.Where("email = ?", normalizeEmail(body.Email)).First(&user).Error; err != nil {
			return c.JSON(fiber.Map{"exists": false})
		}
		if err := issueResetCode(c, &user); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"exists": true, "message": "a reset code has been sent"})
	}
}

// POST /api/auth/forgot-password
// The response never reveals whether the email exists.
func ForgotPasswordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body EmailRequest
		if err := c.BodyParser(&body); err != nil || normalizeEmail(body.Email) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email is required")
		}

		var user models.User
		if err := database.DB.Where("email = ?", normalizeEmail(body.Email)).First(&user).Error; err == nil {
			if err := issueResetCode(c, &user); err != nil {
				logger.FromCtx(c).Error("reset code failed", "error", err)
			}
		}
		return c.JSON(fiber.Map{"message": "if the email is registered, a reset code has been sent"})
	}
}

// POST /api/auth/verify-reset-code
func VerifyResetCodeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body VerifyResetCodeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if _, err := loadResetUser(body.Email, body.Code); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"valid": true})
	}
}

// POST /api/auth/reset-password
func ResetPasswordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ResetPasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if len(body.NewPassword) < minPasswordLength {
			return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
		}

		user, err := loadResetUser(body.Email, body.Code)
		if err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
		}

		if err := database.DB.Model(user).Updates(map[string]interface{}{
			"password_hash":             string(hash),
			"reset_password_code":       "",
			"reset_password_expires_at": nil,
			"reset_password_attempts":   0,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update password")
		}

		return c.JSON(fiber.Map{"message": "password updated"})
	}
}
