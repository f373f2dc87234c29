package handler

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"unhidden/web"
)

// NewServer wires middleware, templates, error pages and routes onto a new
// Echo instance.
func NewServer(h *Handler, bodyLimit string) (*echo.Echo, error) {
	templates, err := NewTemplateRegistry(web.Templates())
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = templates
	e.HTTPErrorHandler = h.httpErrorHandler(web.Assets())

	// The limit must wrap the body before the override parses the form.
	e.Pre(middleware.BodyLimit(bodyLimit))
	// HTML forms can only POST; "_method" carries PUT and DELETE.
	e.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: middleware.MethodFromForm("_method"),
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			h.Log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	h.Routes(e)
	return e, nil
}

func (h *Handler) Routes(e *echo.Echo) {
	// Public
	e.GET("/", h.GetPosts)
	e.GET("/post/:id", h.GetPost)
	e.POST("/search", h.Search)
	e.GET("/about", h.GetAbout)
	e.GET("/contact", h.GetContact)
	e.StaticFS("/static", web.Assets())

	// Session
	e.GET("/admin", h.GetLoginForm)
	e.POST("/admin", h.Login)
	e.POST("/admin/register", h.Register)
	e.GET("/logout", h.Logout)

	// Admin
	auth := h.RequireSession()
	e.GET("/dashboard", h.GetDashboard, auth...)
	e.GET("/add-post", h.GetAddPostForm, auth...)
	e.POST("/add-post", h.CreatePost, auth...)
	e.GET("/edit-post/:id", h.GetEditPostForm, auth...)
	e.PUT("/edit-post/:id", h.UpdatePost, auth...)
	e.DELETE("/delete-post/:id", h.DeletePost, auth...)
}

// httpErrorHandler answers with the static error page for the status code.
func (h *Handler) httpErrorHandler(assets fs.FS) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}
		if code >= http.StatusInternalServerError {
			h.Log.Error("request failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
		}

		page, readErr := fs.ReadFile(assets, fmt.Sprintf("%d.html", code))
		if readErr != nil {
			readErr = c.String(code, http.StatusText(code))
		} else {
			readErr = c.HTMLBlob(code, page)
		}
		if readErr != nil {
			h.Log.Error("write error page", zap.Error(readErr))
		}
	}
}
