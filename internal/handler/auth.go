package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ghprime/jwt-pizza-service/internal/config"
	"github.com/ghprime/jwt-pizza-service/internal/database"
	"github.com/ghprime/jwt-pizza-service/internal/metrics"
	"github.com/ghprime/jwt-pizza-service/internal/middleware"
	"github.com/ghprime/jwt-pizza-service/internal/model"
	"github.com/ghprime/jwt-pizza-service/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg     config.Config
	DAO     database.DAO
	Metrics *metrics.Metrics
	Log     zerolog.Logger
}

func NewAuthHandler(cfg config.Config, dao database.DAO, m *metrics.Metrics, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, DAO: dao, Metrics: m, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type updateUserReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type authResp struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// fail maps store errors onto their HTTP status. Anything untyped is
// reported as an internal failure without leaking the cause.
func fail(c echo.Context, err error) error {
	msg := "internal server error"
	var se *database.StatusError
	if errors.As(err, &se) {
		msg = se.Message
	}
	return c.JSON(database.StatusCode(err), echo.Map{"message": msg})
}

// issueSession signs a token for the user and records its session.
func (h *AuthHandler) issueSession(ctx context.Context, user model.User) (string, error) {
	token, err := utils.SignUserToken(h.Cfg.JWTSecret, user)
	if err != nil {
		return "", err
	}
	if err := h.DAO.LoginUser(ctx, user.ID, token); err != nil {
		return "", err
	}
	return token, nil
}

// Register: create a diner and log them in immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "name, email, and password are required"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "name, email, and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.DAO.AddUser(ctx, model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Roles:    []model.RoleAssignment{{Role: model.RoleDiner}},
	})
	if err != nil {
		h.Metrics.AuthAttempt(false)
		return fail(c, err)
	}
	token, err := h.issueSession(ctx, user)
	if err != nil {
		h.Metrics.AuthAttempt(false)
		return fail(c, err)
	}
	h.Metrics.AuthAttempt(true)
	h.Metrics.UserLoggedIn()
	h.Log.Info().Int64("userId", user.ID).Str("email", user.Email).Msg("user registered")
	return c.JSON(http.StatusOK, authResp{User: user, Token: token})
}

// Login: verify credentials and open a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.DAO.GetUser(ctx, req.Email, req.Password)
	if err != nil {
		h.Metrics.AuthAttempt(false)
		return fail(c, err)
	}
	token, err := h.issueSession(ctx, user)
	if err != nil {
		h.Metrics.AuthAttempt(false)
		return fail(c, err)
	}
	h.Metrics.AuthAttempt(true)
	h.Metrics.UserLoggedIn()
	return c.JSON(http.StatusOK, authResp{User: user, Token: token})
}

// Logout: close the caller's session.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.DAO.LogoutUser(ctx, middleware.ReadToken(c)); err != nil {
		return fail(c, err)
	}
	h.Metrics.UserLoggedOut()
	return c.JSON(http.StatusOK, echo.Map{"message": "logout successful"})
}

// UpdateUser: change a user's email or password. Only the user
// themselves or an admin may do this.
func (h *AuthHandler) UpdateUser(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
	}
	if caller.ID != userID && !caller.HasRole(model.RoleAdmin) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "unauthorized"})
	}

	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.DAO.UpdateUser(ctx, userID, req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
