package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perimap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "perimap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "perimap",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Session metrics
	MarkersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "perimap",
		Subsystem: "session",
		Name:      "markers_placed_total",
		Help:      "Total markers placed",
	})

	MarkersRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "perimap",
		Subsystem: "session",
		Name:      "markers_removed_total",
		Help:      "Total markers removed by marker clicks",
	})

	PerimetersSet = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perimap",
		Subsystem: "session",
		Name:      "perimeters_set_total",
		Help:      "Total perimeters drawn, by kind",
	}, []string{"kind"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "perimap",
		Subsystem: "session",
		Name:      "active_sessions",
		Help:      "Sessions currently held by the session store",
	})

	SessionStoreOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perimap",
		Subsystem: "session",
		Name:      "store_ops_total",
		Help:      "Session store operations, by store and operation",
	}, []string{"store", "op"})

	ContainmentChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perimap",
		Subsystem: "geometry",
		Name:      "containment_checks_total",
		Help:      "Points tested against a perimeter, by engine and result",
	}, []string{"engine", "result"})

	ContainmentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "perimap",
		Subsystem: "geometry",
		Name:      "containment_duration_seconds",
		Help:      "Duration of a batch containment check",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"engine"})

	ContainmentFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "perimap",
		Subsystem: "geometry",
		Name:      "containment_fallbacks_total",
		Help:      "Times the planar engine answered because the configured engine failed",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perimap",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Session events published, by type",
	}, []string{"type"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "perimap",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perimap",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total session lookups that found nothing",
	}, []string{"store"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "perimap",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "perimap",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "perimap",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool metrics from pgx pool stats.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
