package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"swipr-api/internal/api/middleware"
	"swipr-api/internal/logging"
	"swipr-api/pkg/models"
	"swipr-api/pkg/utils"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

var startTime = time.Now()

// HealthHandler reports the storage and upload backends in use. A store running on
// the in-memory fallback is "degraded", not down.
func HealthHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		logging.GetGlobalLogger().Debug("Health check requested", map[string]interface{}{
			"request_id": middleware.RequestID(c),
		})

		status := "healthy"
		checks := map[string]string{
			"api":             "ok",
			"storage_backend": deps.Storage.Backend(ctx),
			"storage":         "ok",
			"uploads_backend": deps.Uploads.Backend(),
			"uploads":         "ok",
		}
		if !deps.Storage.Available(ctx) {
			status = "degraded"
			checks["storage"] = "fallback"
		}
		if !deps.Uploads.Healthy(ctx) {
			status = "degraded"
			checks["uploads"] = "unavailable"
		}

		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    utils.FormatDuration(time.Since(startTime)),
			Checks:    checks,
		})
	}
}

// ReadinessHandler is ready whenever requests can be served, which the memory
// fallback guarantees
func ReadinessHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		storage := "ok"
		if !deps.Storage.Available(ctx) {
			storage = "fallback"
		}

		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    "ready",
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    utils.FormatDuration(time.Since(startTime)),
			Checks: map[string]string{
				"api":     "ok",
				"storage": storage,
			},
		})
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    utils.FormatDuration(time.Since(startTime)),
	})
}
