package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ghprime/jwt-pizza-service/internal/chaos"
	"github.com/ghprime/jwt-pizza-service/internal/config"
	"github.com/ghprime/jwt-pizza-service/internal/database"
	"github.com/ghprime/jwt-pizza-service/internal/factory"
	"github.com/ghprime/jwt-pizza-service/internal/metrics"
	"github.com/ghprime/jwt-pizza-service/internal/middleware"
	"github.com/ghprime/jwt-pizza-service/internal/model"
	"github.com/ghprime/jwt-pizza-service/internal/queue"
	queuepub "github.com/ghprime/jwt-pizza-service/internal/service"
)

// Factory fulfills accepted orders. Satisfied by factory.Client.
type Factory interface {
	CreateOrder(ctx context.Context, user model.User, order model.DinerOrder) (factory.Result, error)
}

// OrderHandler bundles dependencies for menu and order endpoints.
type OrderHandler struct {
	Cfg     config.Config
	DAO     database.DAO
	Factory Factory
	Chaos   *chaos.Manager
	Metrics *metrics.Metrics
	Redis   *redis.Client
	Log     zerolog.Logger
}

func NewOrderHandler(cfg config.Config, dao database.DAO, f Factory, ch *chaos.Manager, m *metrics.Metrics, rdb *redis.Client, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{Cfg: cfg, DAO: dao, Factory: f, Chaos: ch, Metrics: m, Redis: rdb, Log: log}
}

// GetMenu: list every item on the menu. Public.
func (h *OrderHandler) GetMenu(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	menu, err := h.DAO.GetMenu(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, menu)
}

// AddMenuItem: admins extend the menu; the full updated menu is returned.
func (h *OrderHandler) AddMenuItem(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	if !caller.HasRole(model.RoleAdmin) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "unable to add menu item"})
	}

	var item model.MenuItem
	if err := c.Bind(&item); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.DAO.AddMenuItem(ctx, item); err != nil {
		return fail(c, err)
	}
	middleware.InvalidateMenu(c, h.Redis)
	menu, err := h.DAO.GetMenu(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, menu)
}

// GetOrders: one page of the caller's order history.
func (h *OrderHandler) GetOrders(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			page = parsed
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, err := h.DAO.GetOrders(ctx, caller, page)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// CreateOrder: persist the order, then hand it to the factory for
// fulfillment. The order stays on record even when the factory rejects it.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)

	var req model.DinerOrder
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	order, err := h.DAO.AddDinerOrder(ctx, caller, req)
	if err != nil {
		return fail(c, err)
	}

	result, err := h.Factory.CreateOrder(ctx, caller, order)
	if err != nil {
		h.Metrics.PizzaFailures(len(order.Items))
		h.Log.Error().Err(err).Int64("orderId", order.ID).Msg("factory rejected order")
		var fe *factory.Error
		resp := echo.Map{"message": "Failed to fulfill order at factory"}
		if errors.As(err, &fe) && fe.ReportURL != "" {
			resp["reportPizzaCreationErrorToPizzaFactoryUrl"] = fe.ReportURL
		}
		return c.JSON(http.StatusInternalServerError, resp)
	}

	var total float64
	for _, item := range order.Items {
		total += item.Price
	}
	h.Metrics.PizzasSold(len(order.Items))
	h.Metrics.Revenue(total)
	h.publishOrderCreated(caller, order, total)

	return c.JSON(http.StatusOK, echo.Map{
		"order":                       order,
		"reportSlowPizzaToFactoryUrl": result.ReportURL,
		"jwt":                         result.JWT,
	})
}

// publishOrderCreated emits the order event in the background; a broker
// outage never affects the order response.
func (h *OrderHandler) publishOrderCreated(user model.User, order model.DinerOrder, total float64) {
	if h.Cfg.AMQPURL == "" {
		return
	}
	event := queue.OrderCreatedEvent{
		OrderID:     order.ID,
		DinerID:     user.ID,
		DinerEmail:  user.Email,
		FranchiseID: order.FranchiseID,
		StoreID:     order.StoreID,
		Pizzas:      len(order.Items),
		Total:       total,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queuepub.PublishOrderCreated(ctx, h.Cfg.AMQPURL, event); err != nil {
			h.Log.Warn().Err(err).Int64("orderId", order.ID).Msg("order event not published")
		}
	}()
}

// SetChaos: admins arm or disarm fault injection for order creation.
func (h *OrderHandler) SetChaos(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	if !caller.HasRole(model.RoleAdmin) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "unauthorized"})
	}
	armed := c.Param("state") == "true"
	h.Chaos.SetChaos("order", armed, http.MethodPost)
	return c.JSON(http.StatusOK, echo.Map{"chaos": armed})
}
