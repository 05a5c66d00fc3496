// Package metrics exposes Prometheus metrics for console requests, backend
// round trips and toasts.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/a2a-routing/console/internal/toast"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "console_http_in_flight_requests",
		Help: "In-flight console HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_http_requests_total",
			Help: "Total number of console HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_http_request_duration_seconds",
			Help:    "Console HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_backend_requests_total",
			Help: "Backend API calls made on behalf of operators.",
		},
		[]string{"method", "route", "status"},
	)

	backendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_backend_request_duration_seconds",
			Help:    "Backend API call latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	toastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_toasts_total",
			Help: "Toast notices shown to operators.",
		},
		[]string{"type"},
	)

	sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "console_sessions_active",
		Help: "Console sessions holding page state.",
	})

	registerOnce sync.Once
)

// Init registers the metrics with the default registry; later calls are no-ops
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			backendRequestsTotal, backendRequestDuration,
			toastsTotal, sessionsActive,
		)
	})
}

// Handler serves the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records rate, latency and in-flight count per matched route
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		httpInFlight.Dec()
	}
}

// Backend records backend round trips; it satisfies backend.Observer
type Backend struct{}

// ObserveBackendCall counts one backend call; status 0 means no response
func (Backend) ObserveBackendCall(method, route string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	backendRequestsTotal.WithLabelValues(method, route, code).Inc()
	backendRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Toast counts a pushed toast
func Toast(t toast.Type) {
	toastsTotal.WithLabelValues(string(t)).Inc()
}

// SetSessions publishes the number of live console sessions
func SetSessions(n int) {
	sessionsActive.Set(float64(n))
}
