package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"swipr-api/internal/logging"
)

// RequestLogger writes one structured line per request through the global logger
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = StatusOf(err)
			}

			fields := map[string]interface{}{
				"request_id": RequestID(c),
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"route":      c.Path(),
				"status":     status,
				"latency_ms": time.Since(start).Milliseconds(),
				"client_ip":  c.RealIP(),
			}

			logger := logging.GetGlobalLogger()
			switch {
			case status >= 500:
				logger.Error("Request completed", fields)
			case status >= 400:
				logger.Warn("Request completed", fields)
			default:
				logger.Info("Request completed", fields)
			}
			return err
		}
	}
}
