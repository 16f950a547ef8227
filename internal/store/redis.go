package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"swipr-api/internal/config"
	"swipr-api/internal/logging"
)

// Client is the persistence adapter. It owns the Redis connection and tracks whether the
// database is reachable. Connection failures are logged and reported as unavailability,
// never returned to callers.
type Client struct {
	cfg    *config.Config
	logger logging.Logger

	mu          sync.Mutex
	rdb         *redis.Client
	available   bool
	lastAttempt time.Time
	lastErr     error

	// onChange is called with the new availability whenever it flips
	onChange func(available bool)
}

// NewClient creates the adapter without connecting
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:    cfg,
		logger: logging.GetGlobalLogger().WithField("component", "store"),
	}
}

// OnAvailabilityChange registers a callback for availability transitions. fn runs with
// the client locked and must not call back into it.
func (c *Client) OnAvailabilityChange(fn func(available bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Connect returns a live handle or nil when the database cannot be reached. It is
// idempotent: a healthy handle is reused, and after a failure no new attempt is made
// until the health check interval has elapsed.
func (c *Client) Connect(ctx context.Context) *redis.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.Database.Disabled {
		return nil
	}
	if c.available && c.rdb != nil {
		return c.rdb
	}
	if !c.lastAttempt.IsZero() && time.Since(c.lastAttempt) < c.retryInterval() {
		return nil
	}

	c.lastAttempt = time.Now()

	if c.rdb == nil {
		c.rdb = redis.NewClient(c.options())
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.cfg.Database.ConnectTimeout)
	defer cancel()

	if err := c.rdb.Ping(pingCtx).Err(); err != nil {
		c.lastErr = err
		c.logger.Warn("Document store unreachable, serving from memory", map[string]interface{}{
			"error":       err.Error(),
			"retry_after": c.retryInterval().String(),
		})
		c.setAvailableLocked(false)
		return nil
	}

	c.lastErr = nil
	c.logger.Info("Connected to document store", map[string]interface{}{"db": c.cfg.Database.DB})
	c.setAvailableLocked(true)
	return c.rdb
}

// Available reports whether the database is reachable, reconnecting when due
func (c *Client) Available(ctx context.Context) bool {
	return c.Connect(ctx) != nil
}

// Healthy reports the last known availability without attempting to connect
func (c *Client) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available && c.rdb != nil
}

// Backend names the store currently serving requests
func (c *Client) Backend(ctx context.Context) string {
	if c.Available(ctx) {
		return BackendRedis
	}
	return BackendMemory
}

// LastError returns the most recent connection error, if any
func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ReportFailure marks the database unavailable after an operation failed for reasons
// other than a missing key or an aborted transaction
func (c *Client) ReportFailure(err error) {
	if err == nil || errors.Is(err, redis.Nil) || errors.Is(err, redis.TxFailedErr) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.available {
		return
	}
	c.lastErr = err
	c.lastAttempt = time.Now()
	c.logger.Warn("Document store operation failed, marking unavailable", map[string]interface{}{
		"error": err.Error(),
	})
	c.setAvailableLocked(false)
}

// Ping checks the connection directly, bypassing the retry interval
func (c *Client) Ping(ctx context.Context) error {
	c.mu.Lock()
	if c.rdb == nil {
		c.rdb = redis.NewClient(c.options())
	}
	rdb := c.rdb
	c.mu.Unlock()

	pingCtx, cancel := context.WithTimeout(ctx, c.cfg.Database.ConnectTimeout)
	defer cancel()
	return rdb.Ping(pingCtx).Err()
}

// Watch probes the database every health check interval until ctx is done. A healthy
// connection is pinged so an outage is noticed before a request fails on it.
func (c *Client) Watch(ctx context.Context) {
	ticker := time.NewTicker(c.retryInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.probe(ctx)
		}
	}
}

func (c *Client) probe(ctx context.Context) {
	if c.cfg.Database.Disabled {
		return
	}
	if c.Healthy() {
		if err := c.Ping(ctx); err != nil {
			c.ReportFailure(err)
		}
		return
	}
	c.Connect(ctx)
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rdb == nil {
		return nil
	}
	err := c.rdb.Close()
	c.rdb = nil
	c.available = false
	return err
}

// OperationTimeout bounds every individual store call
func (c *Client) OperationTimeout() time.Duration {
	if c.cfg.Database.OperationTimeout <= 0 {
		return 3 * time.Second
	}
	return c.cfg.Database.OperationTimeout
}

// KeyPrefix namespaces every key written by this service
func (c *Client) KeyPrefix() string {
	if c.cfg.Database.KeyPrefix == "" {
		return "swipr"
	}
	return c.cfg.Database.KeyPrefix
}

func (c *Client) retryInterval() time.Duration {
	if c.cfg.Database.HealthCheckInterval <= 0 {
		return 30 * time.Second
	}
	return c.cfg.Database.HealthCheckInterval
}

func (c *Client) setAvailableLocked(available bool) {
	changed := c.available != available
	c.available = available
	if changed && c.onChange != nil {
		c.onChange(available)
	}
}

func (c *Client) options() *redis.Options {
	opts, err := redis.ParseURL(c.cfg.Database.URL)
	if err != nil {
		c.logger.Warn("Invalid database URL, using localhost", map[string]interface{}{"error": err.Error()})
		opts = &redis.Options{Addr: "localhost:6379"}
	}

	if c.cfg.Database.Password != "" {
		opts.Password = c.cfg.Database.Password
	}
	if c.cfg.Database.DB != 0 {
		opts.DB = c.cfg.Database.DB
	}

	opts.DialTimeout = c.cfg.Database.ConnectTimeout
	opts.ReadTimeout = c.OperationTimeout()
	opts.WriteTimeout = c.OperationTimeout()
	opts.MaxRetries = 0

	return opts
}
