package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"swipr-api/pkg/utils"
)

// HTTPRecorder receives one observation per served request
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// StatusOf maps a handler error to the status the error handler will send
func StatusOf(err error) int {
	var ce *utils.CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// Metrics records method, route template, status and latency of every request
func Metrics(recorder HTTPRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				// the error handler has not written yet
				status = StatusOf(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			recorder.RecordHTTPRequest(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}
