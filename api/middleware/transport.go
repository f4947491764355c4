package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Клиентские метрики. Метка route - шаблон пути (/api/forum/:id/like), а не сам путь
var (
	clientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avocare_client_requests_total",
			Help: "Total number of outbound API requests",
		},
		[]string{"method", "route", "status"},
	)

	clientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "avocare_client_request_duration_seconds",
			Help:    "Duration of outbound API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

const RequestIDHeader = "X-Request-ID"

type routeKey struct{}

// WithRoute помечает запрос шаблоном маршрута для метрик и логов
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFrom(r *http.Request) string {
	if route, ok := r.Context().Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}

// RoundTripperFunc - адаптер функции к http.RoundTripper
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Chain оборачивает base в переданные middleware; первый в списке выполняется первым
func Chain(base http.RoundTripper, mws ...func(http.RoundTripper) http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

// Prometheus считает запросы и их длительность
func Prometheus() func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			route := routeFrom(r)

			resp, err := next.RoundTrip(r)

			status := "error"
			if err == nil {
				status = strconv.Itoa(resp.StatusCode)
			}
			clientRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			clientRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			return resp, err
		})
	}
}

// RequestID проставляет X-Request-ID, если его еще нет
func RequestID() func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(RequestIDHeader) == "" {
				r = r.Clone(r.Context())
				r.Header.Set(RequestIDHeader, uuid.NewString())
			}
			return next.RoundTrip(r)
		})
	}
}

// RateLimit ждет токен лимитера перед отправкой; nil-лимитер ничего не ограничивает
func RateLimit(limiter *rate.Limiter) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		if limiter == nil {
			return next
		}
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if err := limiter.Wait(r.Context()); err != nil {
				return nil, err
			}
			return next.RoundTrip(r)
		})
	}
}

// AccessLog пишет в лог каждый исходящий запрос
func AccessLog(logger *zap.SugaredLogger) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		if logger == nil {
			return next
		}
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			fields := []interface{}{
				"method", r.Method,
				"route", routeFrom(r),
				"url", r.URL.Path,
				"request_id", r.Header.Get(RequestIDHeader),
				"time", time.Since(start),
			}
			if err != nil {
				logger.Debugw("API request failed", append(fields, "error", err)...)
				return resp, err
			}
			logger.Debugw("API request", append(fields, "status", resp.StatusCode)...)
			return resp, err
		})
	}
}
