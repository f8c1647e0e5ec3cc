package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	applogger "PulseDesk/pkg/logger"
	"PulseDesk/pkg/metrics"
)

// Metrics records request metrics labelled by the route template, and logs
// requests slower than slowThreshold.
func Metrics(rec *metrics.Recorder, l *applogger.Logger, slowThreshold time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := routeLabel(c)
			method := c.Request().Method

			rec.HTTPStarted(route, method)
			start := time.Now()

			err := next(c)

			dur := time.Since(start)
			res := c.Response()
			status := res.Status
			rec.HTTPFinished(route, method, strconv.Itoa(status), statusClass(status), dur.Seconds(), res.Size)

			if l != nil && slowThreshold > 0 && dur >= slowThreshold {
				l.Warn("http request slow",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.Int("status", status),
					applogger.Duration("duration_ms", dur),
				)
			}
			return err
		}
	}
}

// routeLabel uses the matched route template to keep label cardinality low.
func routeLabel(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

func statusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
