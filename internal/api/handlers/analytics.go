package handlers

import (
	"github.com/labstack/echo/v4"

	"swipr-api/internal/api/middleware"
	"swipr-api/internal/api/validation"
	"swipr-api/internal/logging"
	"swipr-api/pkg/models"
	"swipr-api/pkg/utils"
)

// TrackHandler logs a page event from the marketing site and counts it by type
func TrackHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var event models.AnalyticsEvent
		if err := c.Bind(&event); err != nil {
			return fail(c, utils.NewBadRequestError("Missing required analytics fields"))
		}
		if fields := validation.Check(deps.Validator, &event); len(fields) > 0 {
			return invalid(c, "Missing required analytics fields", fields)
		}

		logging.GetGlobalLogger().Info("Analytics event", map[string]interface{}{
			"request_id": middleware.RequestID(c),
			"event_type": event.EventType,
			"page":       event.Page,
			"session_id": event.SessionID,
			"properties": len(event.Properties),
		})
		if deps.Analytics != nil {
			deps.Analytics.RecordAnalyticsEvent(event.EventType)
		}
		return ok(c, "", nil)
	}
}
