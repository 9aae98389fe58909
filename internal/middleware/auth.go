package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ghprime/jwt-pizza-service/internal/database"
	"github.com/ghprime/jwt-pizza-service/internal/model"
	"github.com/ghprime/jwt-pizza-service/internal/utils"
)

const userContextKey = "authUser"

// ReadToken pulls the bearer token from the Authorization header.
// Returns "" when no bearer token is present.
func ReadToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// Authenticate resolves the caller identity on every request. A request
// carrying a bearer token is only treated as authenticated when the token
// still maps to a live session in the auth store and parses as a valid
// user token. Requests without a token pass through anonymously.
func Authenticate(dao database.DAO, secret string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ReadToken(c)
			if token == "" {
				return next(c)
			}
			ok, err := dao.IsLoggedIn(c.Request().Context(), token)
			if err != nil || !ok {
				return next(c)
			}
			user, err := utils.ParseUserToken(secret, token)
			if err != nil {
				log.Debug().Err(err).Msg("rejecting unparsable auth token")
				return next(c)
			}
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user stored by Authenticate.
func CurrentUser(c echo.Context) (model.User, bool) {
	user, ok := c.Get(userContextKey).(model.User)
	return user, ok
}

// RequireAuth rejects requests that did not authenticate.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := CurrentUser(c); !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		}
		return next(c)
	}
}
