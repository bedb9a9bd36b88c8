// Package middleware provides Echo middleware for pricewatch.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecwatch/pricewatch/internal/metrics"
)

// probeGauge returns the up/down gauge for an operational path, or nil
// for regular API paths.
func probeGauge(path string) prometheus.Gauge {
	switch path {
	case "/healthz":
		return metrics.HealthzUp
	case "/readyz":
		return metrics.ReadyzUp
	default:
		return nil
	}
}

// Metrics returns echo middleware recording per-request duration and
// count, labeled by method, route, and status. Probe and scrape paths
// stay out of the histogram and counter; the health probes instead
// flip a 0/1 gauge on every hit.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}

			if g := probeGauge(path); g != nil {
				err := next(c)
				if s := c.Response().Status; s >= http.StatusOK && s < http.StatusMultipleChoices {
					g.Set(1)
				} else {
					g.Set(0)
				}
				return err
			}
			if path == "/metrics" {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			elapsed := time.Since(start).Seconds()

			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			metrics.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(elapsed)
			metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()

			return err
		}
	}
}
