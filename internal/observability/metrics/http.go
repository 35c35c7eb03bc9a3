package metrics

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetricsMiddleware returns a Gin middleware that records HTTP request
// metrics on the provided Prometheus registry:
//
//   - taskpf_http_requests_total       (CounterVec)   — method, route, status
//   - taskpf_http_request_duration_seconds (HistogramVec) — method, route, status
//   - taskpf_http_requests_in_flight   (Gauge)        — no labels
//
// The middleware is safe to use even if reg is nil (it becomes a no-op).
// Calling it again on the same registry reuses the collectors already
// registered there, so several engines in one process can share a registry.
// The entire handler body is wrapped in defer/recover;
// metric recording must never crash the server.
// The route label uses c.FullPath() (route template) to prevent cardinality
// explosion.
func HTTPMetricsMiddleware(reg *prometheus.Registry) gin.HandlerFunc {
	// If the registry is nil, return a no-op middleware to avoid panics.
	if reg == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	requestsTotal := registerOrExisting(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpf_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)).(*prometheus.CounterVec)

	requestDuration := registerOrExisting(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskpf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)).(*prometheus.HistogramVec)

	requestsInFlight := registerOrExisting(reg, prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskpf_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		},
	)).(prometheus.Gauge)

	return func(c *gin.Context) {
		// Panic recovery: never let metric recording crash the server.
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[metrics] recovered from panic in HTTPMetricsMiddleware: %v", r)
			}
		}()

		requestsInFlight.Inc()
		defer requestsInFlight.Dec()
		start := time.Now()

		c.Next()

		elapsed := time.Since(start).Seconds()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		requestsTotal.WithLabelValues(method, route, status).Inc()
		requestDuration.WithLabelValues(method, route, status).Observe(elapsed)
	}
}

// registerOrExisting registers c on reg, or returns the collector that is
// already registered under the same descriptor. MustRegister would panic on
// the second registration.
func registerOrExisting(reg *prometheus.Registry, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}
