package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/ghprime/jwt-pizza-service/internal/handler"
	"github.com/ghprime/jwt-pizza-service/internal/middleware"
)

// menuCacheTTL bounds staleness of the cached menu; menu writes also
// invalidate it directly.
const menuCacheTTL = 5 * time.Minute

// RegisterRoutes registers routes that do not require authentication:
// the service root, health check, API docs and the 404 fallback.
func RegisterRoutes(e *echo.Echo, docs echo.HandlerFunc) {
	e.GET("/", handler.Welcome)
	e.GET("/healthz", handler.Health)
	e.GET("/api/docs", docs)
	e.RouteNotFound("/*", handler.NotFound)
}

// RegisterAuth registers the /api/auth endpoints. Register and login are
// open; logout and user updates require a session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/api/auth")
	g.POST("", a.Register)
	g.PUT("", a.Login)
	g.DELETE("", a.Logout, middleware.RequireAuth)
	g.PUT("/:userId", a.UpdateUser, middleware.RequireAuth)
}

// RegisterOrder registers the /api/order endpoints. The menu read is
// public and may be served from the redis cache; everything else needs a
// session. Order creation is subject to chaos fault injection.
func RegisterOrder(e *echo.Echo, o *handler.OrderHandler, rdb *redis.Client) {
	g := e.Group("/api/order")
	g.GET("/menu", o.GetMenu, middleware.MenuCache(rdb, menuCacheTTL))
	g.PUT("/menu", o.AddMenuItem, middleware.RequireAuth)
	g.GET("", o.GetOrders, middleware.RequireAuth)
	g.POST("", o.CreateOrder, middleware.RequireAuth, middleware.CheckChaos(o.Chaos, "order"))
	g.PUT("/chaos/:state", o.SetChaos, middleware.RequireAuth)
}

// RegisterFranchise registers the /api/franchise endpoints. Listing is
// public; everything else needs a session, with per-handler authz.
func RegisterFranchise(e *echo.Echo, f *handler.FranchiseHandler) {
	g := e.Group("/api/franchise")
	g.GET("", f.GetFranchises)
	g.GET("/:userId", f.GetUserFranchises, middleware.RequireAuth)
	g.POST("", f.CreateFranchise, middleware.RequireAuth)
	g.DELETE("/:franchiseId", f.DeleteFranchise, middleware.RequireAuth)
	g.POST("/:franchiseId/store", f.CreateStore, middleware.RequireAuth)
	g.DELETE("/:franchiseId/store/:storeId", f.DeleteStore, middleware.RequireAuth)
}
