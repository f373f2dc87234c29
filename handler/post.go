package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"unhidden/domain"
	"unhidden/service"
)

type SearchRequest struct {
	SearchTerm string `form:"searchTerm"`
}

func (h *Handler) GetPosts(c echo.Context) error {
	page := service.ParsePage(c.QueryParam("page"))
	result, err := h.Posts.ListPosts(c.Request().Context(), page, service.DefaultPageSize)
	if err != nil {
		h.Log.Error("list posts", zap.Int("page", page), zap.Error(err))
		return echo.ErrInternalServerError
	}

	return c.Render(http.StatusOK, "index.html", struct {
		Locals      Locals
		Posts       []PostDTO
		CurrentPage int
		NextPage    int
		HasNextPage bool
		LoggedIn    bool
	}{
		Locals:      Locals{Title: "Unhidden", Description: "Welcome to the Unhidden Blog"},
		Posts:       newPostDTOs(result.Items),
		CurrentPage: result.CurrentPage,
		NextPage:    result.NextPage,
		HasNextPage: result.HasNextPage,
		LoggedIn:    h.isLoggedIn(c),
	})
}

// GetPost renders a single post. Malformed and unknown ids both answer 404.
func (h *Handler) GetPost(c echo.Context) error {
	p, err := h.Posts.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidID) {
			return echo.ErrNotFound
		}
		h.Log.Error("get post", zap.String("id", c.Param("id")), zap.Error(err))
		return echo.ErrInternalServerError
	}

	dto := newPostDTO(p)
	return c.Render(http.StatusOK, "post-view.html", struct {
		Locals   Locals
		Post     PostDTO
		LoggedIn bool
	}{
		Locals:   Locals{Title: dto.Title, Description: "Unhidden blog post"},
		Post:     dto,
		LoggedIn: h.isLoggedIn(c),
	})
}

func (h *Handler) Search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.ErrBadRequest
	}

	posts, err := h.Posts.SearchPosts(c.Request().Context(), req.SearchTerm)
	if err != nil {
		h.Log.Error("search posts", zap.Error(err))
		return echo.ErrInternalServerError
	}

	return c.Render(http.StatusOK, "search.html", struct {
		Locals     Locals
		SearchTerm string
		Posts      []PostDTO
		LoggedIn   bool
	}{
		Locals:     Locals{Title: "Search Results", Description: "Search the site"},
		SearchTerm: service.SanitizeSearchTerm(req.SearchTerm),
		Posts:      newPostDTOs(posts),
		LoggedIn:   h.isLoggedIn(c),
	})
}

type staticPage struct {
	Locals   Locals
	LoggedIn bool
}

func (h *Handler) GetAbout(c echo.Context) error {
	return c.Render(http.StatusOK, "about.html", staticPage{
		Locals:   Locals{Title: "About", Description: "About the Unhidden Blog"},
		LoggedIn: h.isLoggedIn(c),
	})
}

func (h *Handler) GetContact(c echo.Context) error {
	return c.Render(http.StatusOK, "contact.html", staticPage{
		Locals:   Locals{Title: "Contact", Description: "Get in touch"},
		LoggedIn: h.isLoggedIn(c),
	})
}
