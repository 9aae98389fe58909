package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ghprime/jwt-pizza-service/internal/metrics"
)

// Instrument records request counts per HTTP verb, service latency and
// server-side failures for every handled request.
func Instrument(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			m.Request(c.Request().Method)
			err := next(c)
			m.ObserveLatency("service", time.Since(start))
			if err != nil || c.Response().Status >= 500 {
				m.ServerError()
			}
			return err
		}
	}
}
