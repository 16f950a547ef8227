package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipr-api/pkg/utils"
)

func serve(mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return rec, err
}

func TestAdminAuth(t *testing.T) {
	mw := AdminAuth([]string{" secret ", ""})

	tests := []struct {
		name    string
		headers map[string]string
		allowed bool
	}{
		{"no token", nil, false},
		{"admin key", map[string]string{HeaderAdminKey: "secret"}, true},
		{"bearer", map[string]string{echo.HeaderAuthorization: "Bearer secret"}, true},
		{"lowercase bearer", map[string]string{echo.HeaderAuthorization: "bearer secret"}, true},
		{"wrong key", map[string]string{HeaderAdminKey: "secre"}, false},
		{"basic auth", map[string]string{echo.HeaderAuthorization: "Basic secret"}, false},
		{"empty bearer", map[string]string{echo.HeaderAuthorization: "Bearer "}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec, err := serve(mw, req)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
				return
			}
			var ce *utils.CustomError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, http.StatusUnauthorized, ce.Code)
		})
	}
}

func TestAdminAuthWithoutTokensRejectsEverything(t *testing.T) {
	mw := AdminAuth(nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.Header.Set(HeaderAdminKey, "")
	_, err := serve(mw, req)
	assert.Error(t, err)

	req = httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer anything")
	_, err = serve(mw, req)
	assert.Error(t, err)
}

func TestRateLimiterPerClient(t *testing.T) {
	rejected := 0
	rl := NewRateLimiter(60, 2, func() { rejected++ })
	defer rl.Stop()

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
	assert.Equal(t, 2, rl.Clients())

	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	rec, err := serve(rl.Middleware(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, rejected)
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(60, 1, nil)
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	rl.cleanup(time.Now())
	assert.Equal(t, 1, rl.Clients())

	rl.cleanup(time.Now().Add(rl.idleTTL + time.Second))
	assert.Equal(t, 0, rl.Clients())

	rl.Stop()
}

func TestRequestValidationBodyLimits(t *testing.T) {
	mw := RequestValidation(10, UploadLimit{
		Prefixes: []string{"/jobs/apply"},
		Limit:    100,
		TooLarge: func() error { return utils.NewBadRequestError("File too large") },
	})

	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(strings.Repeat("a", 50)))
	_, err := serve(mw, req)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusRequestEntityTooLarge, he.Code)

	req = httptest.NewRequest(http.MethodPost, "/jobs/apply", strings.NewReader(strings.Repeat("a", 50)))
	rec, err := serve(mw, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	req = httptest.NewRequest(http.MethodPost, "/jobs/apply", strings.NewReader(strings.Repeat("a", 150)))
	_, err = serve(mw, req)
	var ce *utils.CustomError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusBadRequest, ce.Code)
	assert.Equal(t, "File too large", ce.Message)

	req = httptest.NewRequest(http.MethodGet, "/contact", strings.NewReader(strings.Repeat("a", 50)))
	_, err = serve(mw, req)
	assert.NoError(t, err)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, StatusOf(utils.NewUnauthorizedError()))
	assert.Equal(t, http.StatusNotFound, StatusOf(echo.ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
}
