package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"policyPortal/pkg/metrics"
	jsonres "policyPortal/pkg/response"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// ClientLimiter keeps one token bucket per client key (user id, or IP for
// anonymous callers).
type ClientLimiter struct {
	mu       sync.Mutex
	m        map[string]*clientEntry
	r        rate.Limit
	b        int
	idleTTL  time.Duration
	lastScan time.Time
}

type clientEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewClientLimiter(reqPerSec float64, burst int) *ClientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ClientLimiter{
		m:       make(map[string]*clientEntry),
		r:       rate.Limit(reqPerSec),
		b:       burst,
		idleTTL: 10 * time.Minute,
	}
}

// Allow reports whether the client may proceed now.
func (cl *ClientLimiter) Allow(key string, now time.Time) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if now.Sub(cl.lastScan) > cl.idleTTL {
		for k, e := range cl.m {
			if now.Sub(e.lastSeen) > cl.idleTTL {
				delete(cl.m, k)
			}
		}
		cl.lastScan = now
	}

	e, ok := cl.m[key]
	if !ok {
		e = &clientEntry{lim: rate.NewLimiter(cl.r, cl.b)}
		cl.m[key] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}

func (cl *ClientLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if id, ok := UserIDFromContext(c); ok {
				key = "user:" + strconv.FormatUint(uint64(id), 10)
			}

			if !cl.Allow(key, time.Now()) {
				metrics.RateLimitedRequests.WithLabelValues(c.Path()).Inc()
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusTooManyRequests, jsonres.Error(
					"RATE_LIMITED", "Too many requests", nil,
				))
			}
			return next(c)
		}
	}
}
