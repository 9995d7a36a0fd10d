// Package logger provides the structured, levelled logger built on log/slog.
//
// Request handlers should log through FromCtx so every line carries the
// request id set by the RequestID middleware:
//
//	logger.FromCtx(c).Info("payment verified", "order_id", order.ID)
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequestIDLocalKey is the Fiber locals key holding the request id.
const RequestIDLocalKey = "request_id"

var L = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// Init replaces the base logger. Production uses JSON for log aggregators,
// everything else the human readable text handler.
func Init(env, level string) {
	L = New(os.Stdout, env, level)
	slog.SetDefault(L)
}

func New(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	switch env {
	case "production", "prod":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromCtx returns the base logger tagged with the request id of c, if any.
func FromCtx(c *fiber.Ctx) *slog.Logger {
	if c == nil {
		return L
	}
	if rid, ok := c.Locals(RequestIDLocalKey).(string); ok && rid != "" {
		return L.With("request_id", rid)
	}
	return L
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }

func Info(msg string, args ...any) { L.Info(msg, args...) }

func Warn(msg string, args ...any) { L.Warn(msg, args...) }

func Error(msg string, args ...any) { L.Error(msg, args...) }

// Fatal logs at ERROR level and exits the process.
func Fatal(msg string, args ...any) {
	L.Error(msg, args...)
	os.Exit(1)
}
