package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"unhidden/domain"
)

type PostForm struct {
	Title string `form:"title"`
	Body  string `form:"body"`
}

func (h *Handler) GetDashboard(c echo.Context) error {
	posts, err := h.Posts.DashboardPosts(c.Request().Context())
	if err != nil {
		h.Log.Error("dashboard posts", zap.Error(err))
		return echo.ErrInternalServerError
	}
	return c.Render(http.StatusOK, "dashboard.html", struct {
		Locals Locals
		Posts  []PostDTO
	}{
		Locals: Locals{Title: "Dashboard", Description: "Admin dashboard"},
		Posts:  newPostDTOs(posts),
	})
}

func (h *Handler) GetAddPostForm(c echo.Context) error {
	return c.Render(http.StatusOK, "post-add.html", struct {
		Locals Locals
	}{
		Locals: Locals{Title: "Add New Post", Description: "Create a new blog post"},
	})
}

func (h *Handler) CreatePost(c echo.Context) error {
	var form PostForm
	if err := c.Bind(&form); err != nil {
		return c.Redirect(http.StatusFound, "/dashboard")
	}

	p, err := h.Posts.CreatePost(c.Request().Context(), form.Title, form.Body)
	if err != nil {
		h.logMutation("create post", "", err)
		return c.Redirect(http.StatusFound, "/dashboard")
	}
	h.Log.Info("post created", zap.String("id", p.ID))
	return c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) GetEditPostForm(c echo.Context) error {
	id := c.Param("id")
	p, err := h.Posts.GetPost(c.Request().Context(), id)
	if err != nil {
		h.logMutation("edit form", id, err)
		return c.Redirect(http.StatusFound, "/dashboard")
	}
	return c.Render(http.StatusOK, "post-edit.html", struct {
		Locals Locals
		Post   PostDTO
	}{
		Locals: Locals{Title: "Edit Post", Description: "Edit blog post"},
		Post:   newPostDTO(p),
	})
}

func (h *Handler) UpdatePost(c echo.Context) error {
	id := c.Param("id")
	var form PostForm
	if err := c.Bind(&form); err != nil {
		return c.Redirect(http.StatusFound, "/dashboard")
	}

	if err := h.Posts.UpdatePost(c.Request().Context(), id, form.Title, form.Body); err != nil {
		h.logMutation("update post", id, err)
	}
	return c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) DeletePost(c echo.Context) error {
	id := c.Param("id")
	if err := h.Posts.DeletePost(c.Request().Context(), id); err != nil {
		h.logMutation("delete post", id, err)
	}
	return c.Redirect(http.StatusFound, "/dashboard")
}

// logMutation logs expected rejections quietly and store failures loudly.
func (h *Handler) logMutation(op, id string, err error) {
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if id != "" {
		fields = append(fields, zap.String("id", id))
	}
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidID):
		h.Log.Warn("post mutation rejected", fields...)
	default:
		h.Log.Error("post mutation failed", fields...)
	}
}
