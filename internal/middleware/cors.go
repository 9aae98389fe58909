package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORS reflects the caller origin and allows the verbs and headers the
// API surface uses. Credentials are allowed so browser clients can send
// the bearer token.
func CORS(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		origin := c.Request().Header.Get(echo.HeaderOrigin)
		if origin == "" {
			origin = "*"
		}
		header := c.Response().Header()
		header.Set(echo.HeaderAccessControlAllowOrigin, origin)
		header.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, PUT, DELETE")
		header.Set(echo.HeaderAccessControlAllowHeaders, "Content-Type, Authorization")
		header.Set(echo.HeaderAccessControlAllowCredentials, "true")
		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusNoContent)
		}
		return next(c)
	}
}
