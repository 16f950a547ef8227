package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"swipr-api/internal/api/middleware"
	"swipr-api/internal/logging"
	"swipr-api/pkg/models"
	"swipr-api/pkg/utils"
)

// Messages shared by several handlers
const (
	msgTryAgain = "Something went wrong. Please try again later."
)

func ok(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: middleware.RequestID(c),
	})
}

func fail(c echo.Context, e *utils.CustomError) error {
	return c.JSON(e.Code, models.APIResponse{
		Success:   false,
		Message:   e.Message,
		RequestID: middleware.RequestID(c),
	})
}

func invalid(c echo.Context, message string, fields []models.FieldError) error {
	return c.JSON(http.StatusBadRequest, models.APIResponse{
		Success:   false,
		Message:   message,
		Errors:    fields,
		RequestID: middleware.RequestID(c),
	})
}

// ErrorHandler renders every error that escapes a handler or middleware in the
// {success:false, message} envelope
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	ce := toCustomError(err, c.Request().Method)
	if ce.Code >= http.StatusInternalServerError {
		logging.GetGlobalLogger().Error("Request failed", map[string]interface{}{
			"request_id": middleware.RequestID(c),
			"method":     c.Request().Method,
			"path":       c.Request().URL.Path,
			"error":      err.Error(),
		})
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(ce.Code)
	} else {
		writeErr = fail(c, ce)
	}
	if writeErr != nil {
		logging.GetGlobalLogger().Warn("Failed to write error response", map[string]interface{}{
			"error": writeErr.Error(),
		})
	}
}

func toCustomError(err error, method string) *utils.CustomError {
	var ce *utils.CustomError
	var he *echo.HTTPError
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.As(err, &mbe):
		return &utils.CustomError{Code: http.StatusRequestEntityTooLarge, Message: "Request body too large"}
	case errors.As(err, &he):
		switch {
		case he.Code == http.StatusNotFound:
			return utils.NewNotFoundError("Not found")
		case he.Code == http.StatusMethodNotAllowed:
			return utils.NewMethodNotAllowedError(method)
		case he.Code >= http.StatusInternalServerError:
			return &utils.CustomError{Code: he.Code, Message: msgTryAgain}
		}
		if m, isString := he.Message.(string); isString {
			return &utils.CustomError{Code: he.Code, Message: m}
		}
		return &utils.CustomError{Code: he.Code, Message: http.StatusText(he.Code)}
	}
	return utils.NewInternalServerError(msgTryAgain)
}
