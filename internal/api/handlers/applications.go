package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"swipr-api/internal/api/middleware"
	"swipr-api/internal/api/validation"
	"swipr-api/internal/logging"
	"swipr-api/internal/service"
	"swipr-api/internal/uploads"
	"swipr-api/pkg/models"
	"swipr-api/pkg/utils"
)

const (
	msgApplicationSubmitted = "Application submitted successfully! We'll review your application and get back to you soon."
	msgApplicationNotFound  = "Application not found"
	msgInvalidApplication   = "Invalid application data"
	msgInvalidStatus        = "Invalid status"
	msgStatusUpdated        = "Application status updated successfully"
)

// SubmitApplicationHandler accepts a job application as JSON or as a multipart form
// with an optional "resume" file. Field and file checks both run before anything is
// stored.
func SubmitApplicationHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.RequestID(c)
		logger := logging.LogWithRequestID(requestID)

		var req models.ApplicationRequest
		if err := c.Bind(&req); err != nil {
			if tooLarge(err) {
				return fail(c, utils.NewBadRequestError(deps.Uploads.TooLargeMessage()))
			}
			logger.Warn("Failed to bind application request", map[string]interface{}{"error": err.Error()})
			return fail(c, utils.NewBadRequestError(msgInvalidApplication))
		}
		req.Normalize()

		if fields := validation.Check(deps.Validator, &req); len(fields) > 0 {
			return invalid(c, validation.Summary(fields), fields)
		}

		var resume *uploads.File
		if isMultipart(c) {
			fh, err := c.FormFile("resume")
			switch {
			case errors.Is(err, http.ErrMissingFile):
			case err != nil:
				if tooLarge(err) {
					return fail(c, utils.NewBadRequestError(deps.Uploads.TooLargeMessage()))
				}
				return fail(c, utils.NewBadRequestError(msgInvalidApplication))
			default:
				resume, err = deps.Uploads.Save(c.Request().Context(), fh)
				if err != nil {
					return uploadFailure(c, deps, err)
				}
			}
		}

		app, err := deps.Applications.Create(c.Request().Context(), req, resume)
		if err != nil {
			if resume != nil {
				if delErr := deps.Uploads.Delete(c.Request().Context(), resume.Name); delErr != nil {
					logger.Warn("Failed to remove orphaned resume", map[string]interface{}{
						"file":  resume.Name,
						"error": delErr.Error(),
					})
				}
			}
			return fail(c, utils.NewStorageError())
		}

		return ok(c, msgApplicationSubmitted, models.ApplicationSubmitted{ApplicationID: app.ID})
	}
}

// ApplicationStatusHandler is the public status lookup. It never exposes contact
// details, notes or the resume.
func ApplicationStatusHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := strings.TrimSpace(c.QueryParam("id"))
		if id == "" {
			return fail(c, utils.NewBadRequestError("Application ID is required"))
		}

		app, err := deps.Applications.GetByID(c.Request().Context(), id)
		if err != nil {
			return fail(c, utils.NewNotFoundError(msgApplicationNotFound))
		}
		return ok(c, "", app.StatusView())
	}
}

// ListApplicationsHandler returns every application newest first
func ListApplicationsHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		apps := deps.Applications.GetAll(c.Request().Context())
		return ok(c, "", models.ApplicationList{Applications: apps, Total: len(apps)})
	}
}

// GetApplicationHandler returns one full application record
func GetApplicationHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		app, err := deps.Applications.GetByID(c.Request().Context(), c.Param("id"))
		if err != nil {
			return fail(c, utils.NewNotFoundError(msgApplicationNotFound))
		}
		return ok(c, "", app)
	}
}

// UpdateApplicationStatusHandler moves an application to a new review status
func UpdateApplicationStatusHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.StatusUpdateRequest
		if err := c.Bind(&req); err != nil {
			return fail(c, utils.NewBadRequestError(msgInvalidStatus))
		}
		req.Status = strings.TrimSpace(req.Status)
		if fields := validation.Check(deps.Validator, &req); len(fields) > 0 {
			return invalid(c, validation.Summary(fields), fields)
		}

		return updateApplicationStatus(c, deps, c.Param("id"), req.Status, req.Notes)
	}
}

func updateApplicationStatus(c echo.Context, deps *Deps, id, status string, notes *string) error {
	app, err := deps.Applications.UpdateStatus(c.Request().Context(), id, models.ApplicationStatus(status), notes)
	switch {
	case errors.Is(err, service.ErrInvalidStatus):
		return fail(c, utils.NewBadRequestError(msgInvalidStatus))
	case errors.Is(err, service.ErrNotFound):
		return fail(c, utils.NewNotFoundError(msgApplicationNotFound))
	case err != nil:
		return fail(c, utils.NewStorageError())
	}
	return ok(c, msgStatusUpdated, app)
}

// DownloadResumeHandler streams the resume attached to an application
func DownloadResumeHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		app, err := deps.Applications.GetByID(ctx, c.Param("id"))
		if err != nil {
			return fail(c, utils.NewNotFoundError(msgApplicationNotFound))
		}
		if app.ResumeFilename == "" {
			return fail(c, utils.NewNotFoundError("No resume attached to this application"))
		}

		body, err := deps.Uploads.Open(ctx, app.ResumeFilename)
		if errors.Is(err, uploads.ErrNotFound) {
			return fail(c, utils.NewNotFoundError("Resume file not found"))
		}
		if err != nil {
			logging.GetGlobalLogger().Error("Failed to open resume", map[string]interface{}{
				"request_id":     middleware.RequestID(c),
				"application_id": app.ID,
				"error":          err.Error(),
			})
			return fail(c, utils.NewStorageError())
		}
		defer body.Close()

		contentType := app.ResumeContentType
		if contentType == "" {
			contentType = echo.MIMEOctetStream
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+app.ResumeFilename+`"`)
		return c.Stream(http.StatusOK, contentType, body)
	}
}

func uploadFailure(c echo.Context, deps *Deps, err error) error {
	switch {
	case errors.Is(err, uploads.ErrTooLarge):
		return fail(c, utils.NewBadRequestError(deps.Uploads.TooLargeMessage()))
	case errors.Is(err, uploads.ErrUnsupportedType):
		return fail(c, utils.NewBadRequestError(deps.Uploads.UnsupportedTypeMessage()))
	}
	logging.GetGlobalLogger().Error("Failed to store resume", map[string]interface{}{
		"request_id": middleware.RequestID(c),
		"backend":    deps.Uploads.Backend(),
		"error":      err.Error(),
	})
	return fail(c, utils.NewStorageError())
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	var he *echo.HTTPError
	return errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge
}
