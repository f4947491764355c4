package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avocare_stub_http_requests_total",
			Help: "Total number of HTTP requests served by the stand-in backend",
		},
		[]string{"method", "endpoint", "status", "service"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "avocare_stub_http_request_duration_seconds",
			Help:    "Duration of stand-in backend HTTP requests in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .5, 1},
		},
		[]string{"method", "endpoint", "service"},
	)

	forumOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avocare_stub_forum_operations_total",
			Help: "Forum operations processed by the stand-in backend",
		},
		[]string{"operation", "status", "service"},
	)

	censoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avocare_stub_censored_total",
			Help: "Posts and comments stored with censored words",
		},
		[]string{"entity", "service"},
	)
)

// PrometheusMiddleware считает ответы стенда. Метка endpoint - шаблон маршрута gin,
// неизвестные пути идут в "unmatched".
func PrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()), serviceName).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint, serviceName).Observe(time.Since(start).Seconds())
	}
}

// RecordForumOperation - status: ok, rejected, not_found, forbidden
func RecordForumOperation(operation, status, serviceName string) {
	forumOperationsTotal.WithLabelValues(operation, status, serviceName).Inc()
}

func RecordCensored(entity, serviceName string) {
	censoredTotal.WithLabelValues(entity, serviceName).Inc()
}
