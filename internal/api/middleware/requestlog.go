package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

// logSuppressPaths are probe endpoints whose repeated successes would
// flood the log. The first success after a failure (or startup) is
// logged; repeats are suppressed until the status changes. Failures are
// always logged.
var logSuppressPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestLog returns Echo middleware that logs requests with structured
// fields. It generates a request ID if none is provided and propagates
// it through the response header and echo context.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var (
		mu         sync.Mutex
		lastProbes = make(map[string]int) // path -> last logged status
	)

	shouldLog := func(path string, status int) bool {
		if _, probe := logSuppressPaths[path]; !probe {
			return true
		}
		if status < 200 || status >= 300 {
			mu.Lock()
			delete(lastProbes, path)
			mu.Unlock()
			return true
		}

		mu.Lock()
		defer mu.Unlock()

		if last, ok := lastProbes[path]; ok && last == status {
			return false
		}
		lastProbes[path] = status
		return true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set("request_id", reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := c.Response().Status

			if !shouldLog(path, status) {
				return err
			}

			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelWarn
			}

			log.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", c.Request().Method),
				slog.String("path", path),
				slog.Int("status", status),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("request_id", reqID),
			)

			return err
		}
	}
}
