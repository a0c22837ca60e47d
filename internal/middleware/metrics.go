package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics holds all Prometheus metrics
type PrometheusMetrics struct {
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Query execution metrics
	QueryTotal    *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	QueryRowsRead *prometheus.CounterVec

	// Engine state metrics
	ActiveQueries     prometheus.Gauge
	SchemaCacheSize   prometheus.Gauge
	QueryCancelsTotal prometheus.Counter
}

var metrics *PrometheusMetrics

// InitMetrics initializes all Prometheus metrics
func InitMetrics() {
	metrics = &PrometheusMetrics{
		HttpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqldeck_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HttpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqldeck_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		QueryTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqldeck_queries_total",
				Help: "Total number of executed queries",
			},
			[]string{"dialect", "status"},
		),
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqldeck_query_duration_seconds",
				Help:    "Query execution latency",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
			},
			[]string{"dialect"},
		),
		QueryRowsRead: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqldeck_query_rows_read_total",
				Help: "Total rows returned by queries",
			},
			[]string{"dialect"},
		),
		ActiveQueries: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sqldeck_active_queries",
				Help: "Number of in-flight cancellable queries",
			},
		),
		SchemaCacheSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sqldeck_schema_cache_entries",
				Help: "Number of cached connection schemas",
			},
		),
		QueryCancelsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sqldeck_query_cancels_total",
				Help: "Total number of query cancellation requests",
			},
		),
	}
}

// PrometheusMiddleware records per-request HTTP metrics
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		metrics.HttpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		metrics.HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
	}
}

// RecordQueryMetrics records the outcome of one query execution
func RecordQueryMetrics(dialect, status string, duration time.Duration, rowsRead int64) {
	if metrics == nil {
		return
	}
	metrics.QueryTotal.WithLabelValues(dialect, status).Inc()
	metrics.QueryDuration.WithLabelValues(dialect).Observe(duration.Seconds())
	if rowsRead > 0 {
		metrics.QueryRowsRead.WithLabelValues(dialect).Add(float64(rowsRead))
	}
}

// RecordQueryCancel records a cancellation request
func RecordQueryCancel() {
	if metrics == nil {
		return
	}
	metrics.QueryCancelsTotal.Inc()
}

// UpdateEngineMetrics refreshes the engine state gauges
func UpdateEngineMetrics(activeQueries, schemaCacheEntries int) {
	if metrics == nil {
		return
	}
	metrics.ActiveQueries.Set(float64(activeQueries))
	metrics.SchemaCacheSize.Set(float64(schemaCacheEntries))
}
