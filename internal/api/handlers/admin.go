package handlers

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"swipr-api/internal/api/validation"
	"swipr-api/internal/service"
	"swipr-api/pkg/models"
	"swipr-api/pkg/utils"
)

const (
	msgInvalidType      = "Invalid type parameter"
	msgContactNotFound  = "Contact not found"
	msgContactRead      = "Contact marked as read"
	msgWaitlistNotFound = "Waitlist entry not found"
)

// DashboardHandler serves the admin overview selected by the type query parameter.
// An id narrows a list type to a single record.
func DashboardHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := strings.TrimSpace(c.QueryParam("id"))

		switch c.QueryParam("type") {
		case "stats":
			return ok(c, "", models.DashboardStats{
				Applications: deps.Applications.GetStats(ctx),
				Waitlist:     deps.Waitlist.GetStats(ctx),
				Contacts:     deps.Contacts.GetStats(ctx),
			})

		case "applications":
			if id != "" {
				app, err := deps.Applications.GetByID(ctx, id)
				if err != nil {
					return fail(c, utils.NewNotFoundError(msgApplicationNotFound))
				}
				return ok(c, "", app)
			}
			return ok(c, "", deps.Applications.GetAll(ctx))

		case "contacts":
			if id != "" {
				msg, err := deps.Contacts.GetByID(ctx, id)
				if err != nil {
					return fail(c, utils.NewNotFoundError(msgContactNotFound))
				}
				return ok(c, "", msg.View())
			}
			msgs := deps.Contacts.GetAll(ctx)
			views := make([]models.ContactView, len(msgs))
			for i, msg := range msgs {
				views[i] = msg.View()
			}
			return ok(c, "", views)

		case "waitlist":
			if id != "" {
				entry, err := deps.Waitlist.GetByID(ctx, id)
				if err != nil {
					return fail(c, utils.NewNotFoundError(msgWaitlistNotFound))
				}
				return ok(c, "", entry)
			}
			return ok(c, "", deps.Waitlist.GetAll(ctx))
		}

		return fail(c, utils.NewBadRequestError(msgInvalidType))
	}
}

// DashboardUpdateHandler changes an application status or marks a contact message read
func DashboardUpdateHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := strings.TrimSpace(c.QueryParam("id"))
		kind := c.QueryParam("type")
		if id == "" || (kind != "application" && kind != "contact") {
			return fail(c, utils.NewBadRequestError("Invalid request parameters"))
		}

		if kind == "contact" {
			msg, err := deps.Contacts.MarkAsRead(c.Request().Context(), id)
			switch {
			case errors.Is(err, service.ErrNotFound):
				return fail(c, utils.NewNotFoundError(msgContactNotFound))
			case err != nil:
				return fail(c, utils.NewStorageError())
			}
			return ok(c, msgContactRead, msg.View())
		}

		var req models.DashboardUpdateRequest
		if err := c.Bind(&req); err != nil {
			return fail(c, utils.NewBadRequestError(msgInvalidStatus))
		}
		if fields := validation.Check(deps.Validator, &req); len(fields) > 0 {
			return invalid(c, validation.Summary(fields), fields)
		}

		return updateApplicationStatus(c, deps, id, strings.TrimSpace(req.Status), req.Notes)
	}
}
