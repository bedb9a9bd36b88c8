package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
)

// Recovery returns echo middleware that converts handler panics into a
// logged 500 response instead of tearing down the connection.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				var cause error
				if e, ok := r.(error); ok {
					cause = e
				} else {
					cause = fmt.Errorf("%v", r)
				}

				log.Error("panic recovered",
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
					"error", cause.Error(),
					"stack", string(debug.Stack()),
				)

				err = c.JSON(http.StatusInternalServerError, map[string]string{
					"error": "internal server error",
				})
			}()
			return next(c)
		}
	}
}
