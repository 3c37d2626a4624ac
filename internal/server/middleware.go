package server

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// maxBodyLogLen is the maximum length for logged request bodies before truncation.
const maxBodyLogLen = 200

// slowRequestThreshold is the duration above which requests are logged at WARN level.
const slowRequestThreshold = 500 * time.Millisecond

// RequestLogger returns middleware that logs all requests with timing.
// Slow requests (>500ms) are logged at WARN level.
func RequestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)

		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", duration.Milliseconds(),
		}
		if err != nil {
			attrs = append(attrs, "error", err.Error())
		}

		switch {
		case err != nil:
			logger.Error("request failed", attrs...)
		case duration > slowRequestThreshold:
			logger.Warn("slow request", attrs...)
		default:
			logger.Debug("request completed", attrs...)
		}

		return err
	}
}

// truncate shortens s for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
