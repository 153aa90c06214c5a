package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "login_failed", err)
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		l.Warn("login_failed", "status", http.StatusBadRequest, "reason", "missing credentials")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	res, err := h.d.Session.Login(ctx, req.Email, req.Password)
	if err != nil {
		l.Warn("login_failed", "status", http.StatusUnauthorized, "error", err)
		return c.JSON(http.StatusUnauthorized, res)
	}

	l.Info("login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, res)
}

func (h *Handlers) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup")

	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "signup_failed", err)
	}
	req.Name, req.Email = strings.TrimSpace(req.Name), strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		l.Warn("signup_failed", "status", http.StatusBadRequest, "reason", "missing fields")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and password are required"})
	}

	res, err := h.d.Session.Signup(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		l.Warn("signup_failed", "status", http.StatusBadRequest, "error", err)
		return c.JSON(http.StatusBadRequest, res)
	}

	l.Info("signup_success", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, res)
}

// Logout ends the session and drops every per-user view.
func (h *Handlers) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	err := h.d.Session.Logout(ctx)
	h.d.Cart.Reset()
	h.d.Checkout.Reset()
	h.d.Orders.Reset()
	h.d.Admin.Cancel()
	h.d.Shop.CancelDelete()
	if err != nil {
		l.Error("logout_error", "status", http.StatusOK, "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out", "next_route": "/login"})
}

func (h *Handlers) Me(c echo.Context) error {
	id, ok := h.d.Session.Current()
	if !ok {
		return c.JSON(http.StatusOK, echo.Map{"user": nil})
	}
	out := echo.Map{"user": id}
	if exp, ok := h.d.Session.CredentialExpiry(); ok {
		out["credential_expires_at"] = exp
	}
	return c.JSON(http.StatusOK, out)
}
