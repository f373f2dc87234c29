package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"unhidden/domain"
)

type LoginRequest struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

func (h *Handler) GetLoginForm(c echo.Context) error {
	if h.isLoggedIn(c) {
		return c.Redirect(http.StatusFound, "/dashboard")
	}
	return c.Render(http.StatusOK, "admin-login.html", struct {
		Locals              Locals
		RegistrationEnabled bool
	}{
		Locals:              Locals{Title: "Admin Login", Description: "Admin login page"},
		RegistrationEnabled: h.EnableRegistration,
	})
}

// Login always redirects: to the dashboard on success, back to the login
// form on any failure, without saying which credential was wrong.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.Redirect(http.StatusFound, "/admin")
	}

	sess, err := h.Auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, domain.ErrAuthFailure) {
			h.Log.Error("login", zap.Error(err))
		}
		return c.Redirect(http.StatusFound, "/admin")
	}

	cookie, err := h.sessionCookie(sess)
	if err != nil {
		h.Log.Error("sign session cookie", zap.Error(err))
		return c.Redirect(http.StatusFound, "/admin")
	}
	c.SetCookie(cookie)
	return c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) Register(c echo.Context) error {
	if !h.EnableRegistration {
		return echo.NewHTTPError(http.StatusForbidden, domain.ErrRegistrationDisabled.Error())
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.Redirect(http.StatusFound, "/admin")
	}

	user, err := h.Auth.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			h.Log.Info("registration rejected", zap.String("username", req.Username), zap.Error(err))
		} else {
			h.Log.Error("register", zap.Error(err))
		}
		return c.Redirect(http.StatusFound, "/admin")
	}

	h.Log.Info("admin registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return c.Redirect(http.StatusFound, "/admin")
}

func (h *Handler) Logout(c echo.Context) error {
	if id := h.sessionID(c); id != "" {
		if err := h.Auth.Logout(c.Request().Context(), id); err != nil {
			h.Log.Error("logout", zap.Error(err))
		}
	}
	h.clearSessionCookie(c)
	return c.Redirect(http.StatusFound, "/admin")
}
