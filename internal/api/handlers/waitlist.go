package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"

	"swipr-api/internal/api/middleware"
	"swipr-api/internal/api/validation"
	"swipr-api/internal/logging"
	"swipr-api/internal/service"
	"swipr-api/pkg/models"
	"swipr-api/pkg/utils"
)

const (
	msgWaitlistJoined = "Thanks for joining our waitlist! We'll notify you when Swipr.ai launches."
	msgAlreadyJoined  = "Email already on waitlist"
)

// JoinWaitlistHandler adds an email to the launch waitlist. A repeat signup is a 409.
func JoinWaitlistHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.WaitlistRequest
		if err := c.Bind(&req); err != nil {
			logging.GetGlobalLogger().Warn("Failed to bind waitlist request", map[string]interface{}{
				"request_id": middleware.RequestID(c),
				"error":      err.Error(),
			})
			return fail(c, utils.NewBadRequestError("Invalid email address"))
		}
		req.Normalize()

		if fields := validation.Check(deps.Validator, &req); len(fields) > 0 {
			return invalid(c, validation.Summary(fields), fields)
		}

		_, err := deps.Waitlist.Create(c.Request().Context(), req)
		switch {
		case errors.Is(err, service.ErrAlreadyExists):
			return fail(c, utils.NewConflictError(msgAlreadyJoined))
		case err != nil:
			return fail(c, utils.NewStorageError())
		}
		return ok(c, msgWaitlistJoined, nil)
	}
}

// WaitlistCountHandler returns the number of signups
func WaitlistCountHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		return ok(c, "", deps.Waitlist.GetStats(c.Request().Context()))
	}
}
