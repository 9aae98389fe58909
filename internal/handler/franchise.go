package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ghprime/jwt-pizza-service/internal/database"
	"github.com/ghprime/jwt-pizza-service/internal/middleware"
	"github.com/ghprime/jwt-pizza-service/internal/model"
)

// FranchiseHandler bundles dependencies for franchise and store endpoints.
type FranchiseHandler struct {
	DAO database.DAO
	Log zerolog.Logger
}

func NewFranchiseHandler(dao database.DAO, log zerolog.Logger) *FranchiseHandler {
	return &FranchiseHandler{DAO: dao, Log: log}
}

func pathID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// GetFranchises: list all franchises. Admins see admin rosters and
// revenue, everyone else gets names and stores only.
func (h *FranchiseHandler) GetFranchises(c echo.Context) error {
	var authUser *model.User
	if caller, ok := middleware.CurrentUser(c); ok {
		authUser = &caller
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	franchises, err := h.DAO.GetFranchises(ctx, authUser)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, franchises)
}

// GetUserFranchises: the franchises a user administers. Callers only see
// their own unless they are an admin; anyone else gets an empty list.
func (h *FranchiseHandler) GetUserFranchises(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	userID, err := pathID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
	}
	if caller.ID != userID && !caller.HasRole(model.RoleAdmin) {
		return c.JSON(http.StatusOK, []model.Franchise{})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	franchises, err := h.DAO.GetUserFranchises(ctx, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, franchises)
}

// CreateFranchise: admin only.
func (h *FranchiseHandler) CreateFranchise(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	if !caller.HasRole(model.RoleAdmin) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "unable to create a franchise"})
	}

	var franchise model.Franchise
	if err := c.Bind(&franchise); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.DAO.CreateFranchise(ctx, franchise)
	if err != nil {
		return fail(c, err)
	}
	h.Log.Info().Int64("franchiseId", created.ID).Str("name", created.Name).Msg("franchise created")
	return c.JSON(http.StatusOK, created)
}

// DeleteFranchise: admin only. Removes the franchise with its stores and
// admin role assignments.
func (h *FranchiseHandler) DeleteFranchise(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	if !caller.HasRole(model.RoleAdmin) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "unable to delete a franchise"})
	}
	franchiseID, err := pathID(c, "franchiseId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid franchise id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.DAO.DeleteFranchise(ctx, franchiseID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "franchise deleted"})
}

// canManageFranchise reports whether the caller administers the franchise
// or is a global admin.
func (h *FranchiseHandler) canManageFranchise(ctx context.Context, caller model.User, franchiseID int64) (bool, error) {
	if caller.HasRole(model.RoleAdmin) {
		return true, nil
	}
	franchise, err := h.DAO.GetFranchise(ctx, franchiseID)
	if err != nil {
		return false, err
	}
	for _, admin := range franchise.Admins {
		if admin.ID == caller.ID {
			return true, nil
		}
	}
	return false, nil
}

// CreateStore: admin or an admin of the owning franchise.
func (h *FranchiseHandler) CreateStore(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	franchiseID, err := pathID(c, "franchiseId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid franchise id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	allowed, err := h.canManageFranchise(ctx, caller, franchiseID)
	if err != nil {
		return fail(c, err)
	}
	if !allowed {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "unable to create a store"})
	}

	var store model.Store
	if err := c.Bind(&store); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	created, err := h.DAO.CreateStore(ctx, franchiseID, store)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, created)
}

// DeleteStore: admin or an admin of the owning franchise.
func (h *FranchiseHandler) DeleteStore(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	franchiseID, err := pathID(c, "franchiseId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid franchise id"})
	}
	storeID, err := pathID(c, "storeId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid store id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	allowed, err := h.canManageFranchise(ctx, caller, franchiseID)
	if err != nil {
		return fail(c, err)
	}
	if !allowed {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "unable to delete a store"})
	}

	if err := h.DAO.DeleteStore(ctx, franchiseID, storeID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "store deleted"})
}
