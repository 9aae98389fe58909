package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ghprime/jwt-pizza-service/internal/config"
)

// Version reported by the welcome and docs endpoints.
const Version = "1.0.0"

type endpointDoc struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

var apiEndpoints = []endpointDoc{
	{http.MethodPost, "/api/auth", "Register a new user"},
	{http.MethodPut, "/api/auth", "Login existing user"},
	{http.MethodPut, "/api/auth/:userId", "Update user"},
	{http.MethodDelete, "/api/auth", "Logout a user"},
	{http.MethodGet, "/api/order/menu", "Get the pizza menu"},
	{http.MethodPut, "/api/order/menu", "Add an item to the menu"},
	{http.MethodGet, "/api/order", "Get the orders for the authenticated user"},
	{http.MethodPost, "/api/order", "Create an order for the authenticated user"},
	{http.MethodGet, "/api/franchise", "List all the franchises"},
	{http.MethodGet, "/api/franchise/:userId", "List a user's franchises"},
	{http.MethodPost, "/api/franchise", "Create a new franchise"},
	{http.MethodDelete, "/api/franchise/:franchiseId", "Delete a franchise"},
	{http.MethodPost, "/api/franchise/:franchiseId/store", "Create a new franchise store"},
	{http.MethodDelete, "/api/franchise/:franchiseId/store/:storeId", "Delete a store"},
}

// Docs describes the API surface and where the service points for
// fulfillment and persistence. Secrets stay out of the response.
func Docs(cfg config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"version":   Version,
			"endpoints": apiEndpoints,
			"config": echo.Map{
				"factory": cfg.FactoryURL,
				"db":      cfg.DBHost,
			},
		})
	}
}

// Welcome greets callers hitting the service root.
func Welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "welcome to JWT Pizza", "version": Version})
}

// NotFound answers every unregistered route.
func NotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{"message": "unknown endpoint"})
}
