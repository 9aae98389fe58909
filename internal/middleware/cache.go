package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const menuCacheKey = "menu:v1"

// bodyCapture tees the response body so a successful payload can be
// stored in the cache after the handler runs.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *bodyCapture) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// MenuCache serves the menu from redis when a cached copy exists and
// refills the cache from successful responses. With a nil client the
// middleware is a pass-through.
func MenuCache(client *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if client == nil || c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			if cached, err := client.Get(ctx, menuCacheKey).Bytes(); err == nil {
				return c.JSONBlob(http.StatusOK, cached)
			}
			capture := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = capture
			if err := next(c); err != nil {
				return err
			}
			if capture.status == http.StatusOK {
				client.Set(ctx, menuCacheKey, capture.buf.Bytes(), ttl)
			}
			return nil
		}
	}
}

// InvalidateMenu drops the cached menu after a menu change.
func InvalidateMenu(c echo.Context, client *redis.Client) {
	if client == nil {
		return
	}
	client.Del(c.Request().Context(), menuCacheKey)
}
