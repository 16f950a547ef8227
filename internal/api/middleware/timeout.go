package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"swipr-api/pkg/utils"
)

// TimeoutConfig bounds each request through its context. Unlike a response-wrapping
// timeout it leaves streamed downloads intact.
func TimeoutConfig(timeout time.Duration) echo.MiddlewareFunc {
	return middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Timeout: timeout,
		ErrorHandler: func(err error, c echo.Context) error {
			if errors.Is(err, context.DeadlineExceeded) {
				return utils.NewTimeoutError("Request timed out")
			}
			return err
		},
	})
}
