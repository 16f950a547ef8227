package handlers

import (
	"github.com/labstack/echo/v4"

	"swipr-api/internal/api/middleware"
	"swipr-api/internal/api/validation"
	"swipr-api/internal/logging"
	"swipr-api/pkg/models"
	"swipr-api/pkg/utils"
)

const msgContactReceived = "Thank you for your message! We'll get back to you soon."

// ContactHandler stores a message from one of the public forms
func ContactHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.ContactRequest
		if err := c.Bind(&req); err != nil {
			logging.GetGlobalLogger().Warn("Failed to bind contact request", map[string]interface{}{
				"request_id": middleware.RequestID(c),
				"error":      err.Error(),
			})
			return fail(c, utils.NewBadRequestError("Invalid form data"))
		}
		req.Normalize()

		if fields := validation.Check(deps.Validator, &req); len(fields) > 0 {
			return invalid(c, validation.Summary(fields), fields)
		}

		if _, err := deps.Contacts.Create(c.Request().Context(), req); err != nil {
			return fail(c, utils.NewStorageError())
		}
		return ok(c, msgContactReceived, nil)
	}
}
