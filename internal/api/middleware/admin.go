package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"

	"swipr-api/internal/logging"
	"swipr-api/pkg/utils"
)

// AdminAuth guards admin routes with static tokens. The token is read from the
// x-admin-key header or an Authorization bearer. With no tokens configured every
// request is rejected.
func AdminAuth(tokens []string) echo.MiddlewareFunc {
	logger := logging.GetGlobalLogger().WithField("component", "admin_auth")

	valid := make([][]byte, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			valid = append(valid, []byte(t))
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !authorized(presentedToken(c), valid) {
				logger.Warn("Rejected admin request", map[string]interface{}{
					"path":       c.Path(),
					"method":     c.Request().Method,
					"client_ip":  c.RealIP(),
					"request_id": RequestID(c),
				})
				return utils.NewUnauthorizedError()
			}
			return next(c)
		}
	}
}

func presentedToken(c echo.Context) string {
	if key := strings.TrimSpace(c.Request().Header.Get(HeaderAdminKey)); key != "" {
		return key
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func authorized(token string, valid [][]byte) bool {
	if token == "" {
		return false
	}
	presented := []byte(token)
	ok := 0
	for _, v := range valid {
		ok |= subtle.ConstantTimeCompare(presented, v)
	}
	return ok == 1
}
