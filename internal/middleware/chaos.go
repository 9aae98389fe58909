package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ghprime/jwt-pizza-service/internal/chaos"
)

// CheckChaos fails a fraction of requests to the named endpoint while a
// fault rule is armed for it. Unarmed endpoints are untouched.
func CheckChaos(manager *chaos.Manager, endpoint string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if manager.HasChaos(endpoint, c.Request().Method) && chaos.Strike() {
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Chaos monkey"})
			}
			return next(c)
		}
	}
}
