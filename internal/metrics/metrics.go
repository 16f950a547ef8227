// Package metrics exposes Prometheus metrics for HTTP traffic, submissions and storage health.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several collectors can coexist in tests
type Collector struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	grpcRequests    *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	analyticsEvents *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	events          *prometheus.CounterVec
	rateLimited     prometheus.Counter
	storageUp       prometheus.Gauge
}

// NewCollector creates and registers every metric
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swipr_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "swipr_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		grpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swipr_grpc_requests_total",
			Help: "gRPC calls by method and status code",
		}, []string{"method", "code"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swipr_submissions_total",
			Help: "Accepted submissions by kind and the store that took them",
		}, []string{"kind", "backend"}),
		analyticsEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swipr_analytics_events_total",
			Help: "Analytics events received by type",
		}, []string{"event_type"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swipr_storage_fallbacks_total",
			Help: "Store calls served from memory after the database failed",
		}, []string{"collection", "operation"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swipr_events_total",
			Help: "Submission events by type and delivery outcome",
		}, []string{"type", "outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swipr_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
		storageUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swipr_storage_available",
			Help: "1 when the document database is reachable, 0 while serving from memory",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests,
		c.httpDuration,
		c.grpcRequests,
		c.submissions,
		c.analyticsEvents,
		c.fallbacks,
		c.events,
		c.rateLimited,
		c.storageUp,
	)

	return c
}

// RecordHTTPRequest records one finished HTTP request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordGRPCRequest records one finished gRPC call
func (c *Collector) RecordGRPCRequest(method, code string) {
	c.grpcRequests.WithLabelValues(method, code).Inc()
}

// RecordSubmission counts an accepted application, contact message or waitlist signup
func (c *Collector) RecordSubmission(kind, backend string) {
	c.submissions.WithLabelValues(kind, backend).Inc()
}

// RecordAnalyticsEvent counts a tracked page event
func (c *Collector) RecordAnalyticsEvent(eventType string) {
	c.analyticsEvents.WithLabelValues(eventType).Inc()
}

// RecordFallback counts a store call served from memory
func (c *Collector) RecordFallback(collection, op string) {
	c.fallbacks.WithLabelValues(collection, op).Inc()
}

// RecordEvent counts an event by outcome: published, failed or dropped
func (c *Collector) RecordEvent(eventType, outcome string) {
	c.events.WithLabelValues(eventType, outcome).Inc()
}

// RecordRateLimited counts a rejected request
func (c *Collector) RecordRateLimited() {
	c.rateLimited.Inc()
}

// SetStorageAvailable tracks database reachability
func (c *Collector) SetStorageAvailable(available bool) {
	if available {
		c.storageUp.Set(1)
		return
	}
	c.storageUp.Set(0)
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
