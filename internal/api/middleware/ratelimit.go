package middleware

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/ecwatch/pricewatch/internal/metrics"
)

// RateLimit returns Echo middleware enforcing a per-client token bucket on
// mutation endpoints. Clients are keyed by the user ID path parameter when
// present, falling back to the remote address. Requests over the limit get
// 429 Too Many Requests.
func RateLimit(perSecond float64, burst int) echo.MiddlewareFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		lim, ok := limiters[key]
		if !ok {
			lim = rate.NewLimiter(rate.Limit(perSecond), burst)
			limiters[key] = lim
		}
		return lim
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Param("user_id")
			if key == "" {
				key = c.RealIP()
			}

			if !limiterFor(key).Allow() {
				metrics.RateLimitedTotal.Inc()
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "rate limit exceeded",
				})
			}

			return next(c)
		}
	}
}
