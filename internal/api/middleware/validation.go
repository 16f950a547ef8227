package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"swipr-api/pkg/utils"
)

// RequestIDKey is the echo context key holding the request ID
const RequestIDKey = "request_id"

// UploadLimit gives upload paths their own body limit. A request declaring a larger
// body is answered with TooLarge instead of a 413.
type UploadLimit struct {
	Prefixes []string
	Limit    int64
	TooLarge func() error
}

func (u UploadLimit) matches(path string) bool {
	for _, prefix := range u.Prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// RequestValidation assigns a request ID and enforces body size limits. Paths matching
// upload get upload.Limit, everything else bodyLimit.
func RequestValidation(bodyLimit int64, upload UploadLimit) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" || len(requestID) > 64 {
				requestID = utils.GenerateRequestID()
			}
			c.Set(RequestIDKey, requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			req := c.Request()
			switch req.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
				limit := bodyLimit
				isUpload := upload.matches(req.URL.Path)
				if isUpload {
					limit = upload.Limit
				}
				if limit > 0 {
					if req.ContentLength > limit {
						if isUpload && upload.TooLarge != nil {
							return upload.TooLarge()
						}
						return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Request body too large")
					}
					req.Body = http.MaxBytesReader(c.Response(), req.Body, limit)
				}
			}

			return next(c)
		}
	}
}

// RequestID returns the ID assigned by RequestValidation
func RequestID(c echo.Context) string {
	if id, ok := c.Get(RequestIDKey).(string); ok {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
