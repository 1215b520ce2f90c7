package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Calculation outcomes
const (
	OutcomeFound   = "found"
	OutcomeNoData  = "no_data"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

var (
	// Calculations partitioned by outcome
	CalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steelprice_calculations_total",
			Help: "Total number of kg-price calculations by outcome",
		},
		[]string{"outcome"},
	)

	// Price history query latency; queries may run for minutes
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "steelprice_price_query_duration_seconds",
			Help:    "Latency of price history queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 17),
		},
	)

	RecordsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "steelprice_records_fetched_total",
			Help: "Total number of price records returned by the data source",
		},
	)

	RecordsImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "steelprice_records_imported_total",
			Help: "Total number of price records written by the importer",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Middleware records request counts and latencies. The matched route
// template is used as label to keep cardinality low.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := prometheus.Labels{
			"method": c.Request.Method,
			"route":  route,
			"status": strconv.Itoa(c.Writer.Status()),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
