package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "policy_portal_http_request_duration_seconds",
		Help:    "Latency of HTTP handlers by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	RateLimitedRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "policy_portal_rate_limited_requests_total",
		Help: "Requests rejected by the per-client rate limiter.",
	}, []string{"route"})
)

func Init() {
	prometheus.MustRegister(
		HTTPRequestDuration,
		RateLimitedRequests,
	)
}

// Middleware records request latency keyed by the matched route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			HTTPRequestDuration.
				WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
