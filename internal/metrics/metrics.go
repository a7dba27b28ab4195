package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vendas_login_total",
			Help: "Total number of Google sign-in attempts",
		},
	)

	// Sale lifecycle counters
	SaleCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vendas_sales_created_total",
			Help: "Total number of sales committed",
		},
	)

	SaleDeletedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vendas_sales_deleted_total",
			Help: "Total number of sales deleted",
		},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendas_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "invalid_assertion", "invalid_token", "unknown_user", etc.
	)

	SaleErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendas_sale_errors_total",
			Help: "Total number of rejected sale operations",
		},
		[]string{"type"}, // "insufficient_stock", "product_not_found", "db_error", etc.
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendas_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vendas_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vendas_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete", "transaction"
	)
)

// Gauge metrics
var (
	// Active tokens
	ActiveTokensGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vendas_active_tokens",
			Help: "Number of session credentials issued since start",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vendas_info",
			Help: "Information about the sales service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(SaleCreatedCounter)
	prometheus.MustRegister(SaleDeletedCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(SaleErrorCounter)
	prometheus.MustRegister(HTTPRequestCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(ActiveTokensGauge)
	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// RecordAuthError increments the auth error counter for the given type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// RecordSaleError increments the sale error counter for the given type
func RecordSaleError(errorType string) {
	SaleErrorCounter.WithLabelValues(errorType).Inc()
}

// IncreaseActiveTokens increments the active token gauge
func IncreaseActiveTokens() {
	ActiveTokensGauge.Inc()
}

// TrackDBOperation measures database operation durations.
// Usage: defer metrics.TrackDBOperation("query")(time.Now())
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// Middleware creates an Echo middleware that captures metrics for each request
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method
			endpoint := c.Path()

			HTTPRequestCounter.WithLabelValues(endpoint, method, status).Inc()
			RequestDuration.WithLabelValues(endpoint, method, status).
				Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
