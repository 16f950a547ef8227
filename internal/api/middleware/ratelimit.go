package middleware

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"swipr-api/internal/logging"
	"swipr-api/pkg/models"
	"swipr-api/pkg/utils"
)

// clientLimiter tracks the token bucket of one client address
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles public form submissions per client IP
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	clients  map[string]*clientLimiter
	mu       sync.Mutex
	logger   logging.Logger
	onReject func()

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

// NewRateLimiter allows requestsPerMinute per client with the given burst. onReject may be nil.
func NewRateLimiter(requestsPerMinute, burst int, onReject func()) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	if burst <= 0 {
		burst = 1
	}

	rl := &RateLimiter{
		limit:         rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:         burst,
		idleTTL:       10 * time.Minute,
		clients:       make(map[string]*clientLimiter),
		logger:        logging.GetGlobalLogger().WithField("component", "rate_limiter"),
		onReject:      onReject,
		cleanupTicker: time.NewTicker(5 * time.Minute),
		stopCleanup:   make(chan struct{}),
	}

	go rl.cleanupRoutine()

	return rl
}

// Allow reports whether a request from key may proceed now
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	cl, exists := rl.clients[key]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = time.Now()
	rl.mu.Unlock()

	return cl.limiter.Allow()
}

// Clients returns the number of tracked client addresses
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if rl.Allow(ip) {
				return next(c)
			}

			rl.logger.Warn("Request rejected by rate limiter", map[string]interface{}{
				"client_ip": ip,
				"path":      c.Path(),
			})
			if rl.onReject != nil {
				rl.onReject()
			}
			c.Response().Header().Set("Retry-After", "60")
			e := utils.NewTooManyRequestsError()
			return c.JSON(e.Code, models.APIResponse{
				Success:   false,
				Message:   e.Message,
				RequestID: RequestID(c),
			})
		}
	}
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		rl.cleanupTicker.Stop()
		close(rl.stopCleanup)
	})
}

func (rl *RateLimiter) cleanupRoutine() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup forgets clients idle for longer than idleTTL
func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, cl := range rl.clients {
		if now.Sub(cl.lastSeen) > rl.idleTTL {
			delete(rl.clients, key)
			removed++
		}
	}
	if removed > 0 {
		rl.logger.Debug("Cleaned up idle rate limiters", map[string]interface{}{
			"removed":   removed,
			"remaining": len(rl.clients),
		})
	}
}
