package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "a11yguard_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "a11yguard_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "a11yguard_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "a11yguard_ws_events_total",
			Help: "Total number of inbound websocket events by outcome.",
		},
		[]string{"event", "outcome"},
	)
	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "a11yguard_cache_lookups_total",
			Help: "Cache-aside lookups by result.",
		},
		[]string{"name", "result"},
	)
	snapshotPayloadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "a11yguard_snapshot_payload_bytes",
			Help:    "Snapshot payload sizes before and after compression.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"field", "form"},
	)
)

// Registry holds every collector of this service.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		cacheLookupsTotal,
		snapshotPayloadBytes,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

// Socket event outcomes.
const (
	OutcomeHandled = "handled"
	OutcomeDropped = "dropped"
	OutcomeUnknown = "unknown"
)

func IncWSEvent(event, outcome string) {
	wsEventsTotal.WithLabelValues(event, outcome).Inc()
}

// CacheLookupObserver returns a callback that counts lookups for name.
func CacheLookupObserver(name string) func(result string) {
	return func(result string) {
		cacheLookupsTotal.WithLabelValues(name, result).Inc()
	}
}

func ObserveSnapshotPayload(field string, size, compressedSize int) {
	snapshotPayloadBytes.WithLabelValues(field, "raw").Observe(float64(size))
	snapshotPayloadBytes.WithLabelValues(field, "compressed").Observe(float64(compressedSize))
}
