package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"swipr-api/internal/api/handlers"
	"swipr-api/internal/api/middleware"
	"swipr-api/internal/metrics"
	"swipr-api/pkg/utils"
)

// uploadHeadroom is the multipart overhead allowed on top of the resume size limit
const uploadHeadroom = 1 << 20

// SetupRoutes configures all API routes. limiter and collector may be nil when rate
// limiting or metrics are disabled.
func SetupRoutes(e *echo.Echo, deps *handlers.Deps, limiter *middleware.RateLimiter, collector *metrics.Collector) {
	cfg := deps.Config
	e.HTTPErrorHandler = handlers.ErrorHandler

	// Global middleware
	e.Use(middleware.RequestValidation(cfg.Server.BodyLimit, middleware.UploadLimit{
		Prefixes: []string{"/jobs/apply"},
		Limit:    deps.Uploads.MaxBytes() + uploadHeadroom,
		TooLarge: func() error { return utils.NewBadRequestError(deps.Uploads.TooLargeMessage()) },
	}))
	e.Use(middleware.RequestLogger())
	if collector != nil {
		e.Use(middleware.Metrics(collector))
	}
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.TimeoutConfig(cfg.Server.ReadTimeout))

	throttle := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if limiter != nil {
		throttle = limiter.Middleware()
	}
	admin := middleware.AdminAuth(cfg.Admin.Tokens)

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler(deps))
		health.GET("/ready", handlers.ReadinessHandler(deps))
		health.GET("/live", handlers.LivenessHandler)
	}

	if collector != nil && cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(collector.Handler()))
	}

	jobs := e.Group("/jobs")
	{
		jobs.POST("/apply", handlers.SubmitApplicationHandler(deps), throttle)
		jobs.GET("/apply", handlers.ApplicationStatusHandler(deps))

		applications := jobs.Group("/applications", admin)
		{
			applications.GET("", handlers.ListApplicationsHandler(deps))
			applications.GET("/:id", handlers.GetApplicationHandler(deps))
			applications.PATCH("/:id/status", handlers.UpdateApplicationStatusHandler(deps))
			applications.GET("/:id/download", handlers.DownloadResumeHandler(deps))
		}
	}

	e.POST("/contact", handlers.ContactHandler(deps), throttle)

	e.POST("/waitlist", handlers.JoinWaitlistHandler(deps), throttle)
	e.GET("/waitlist", handlers.WaitlistCountHandler(deps))

	e.GET("/admin/dashboard", handlers.DashboardHandler(deps), admin)
	e.PUT("/admin/dashboard", handlers.DashboardUpdateHandler(deps), admin)

	e.POST("/analytics/track", handlers.TrackHandler(deps), throttle)

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "Swipr API",
			"version": handlers.Version,
			"status":  "running",
		})
	})
}
