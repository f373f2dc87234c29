package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"unhidden/domain"
	"unhidden/service"
	"unhidden/store"
)

func TestGetPosts_Pagination(t *testing.T) {
	app := newTestApp(t, false)
	app.seed(t, 15)

	rec := app.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Post 14")
	assert.Contains(t, body, "Post 05")
	assert.NotContains(t, body, "Post 04")
	assert.Contains(t, body, `href="/?page=2"`)
	assert.Less(t, strings.Index(body, "Post 14"), strings.Index(body, "Post 05"), "newest first")

	rec = app.do(t, http.MethodGet, "/?page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "Post 04")
	assert.Contains(t, body, "Post 00")
	assert.NotContains(t, body, "Post 05")
	assert.NotContains(t, body, "View Older Posts")
}

func TestGetPosts_BadPageFallsBackToFirst(t *testing.T) {
	app := newTestApp(t, false)
	app.seed(t, 12)

	for _, page := range []string{"abc", "0", "-2"} {
		rec := app.do(t, http.MethodGet, "/?page="+page, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Post 11", "page=%s", page)
	}

	rec := app.do(t, http.MethodGet, "/?page=9", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No posts yet.")
}

func TestGetPost(t *testing.T) {
	app := newTestApp(t, false)
	p := app.seed(t, 1)[0]

	rec := app.do(t, http.MethodGet, "/post/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Post 00")
	assert.Contains(t, rec.Body.String(), "<strong>00</strong>")
}

func TestGetPost_MissingOrMalformed(t *testing.T) {
	app := newTestApp(t, false)

	for _, id := range []string{uuid.NewString(), "not-a-valid-id"} {
		rec := app.do(t, http.MethodGet, "/post/"+id, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Page not found")
	}
}

func TestGetPost_SanitizesBody(t *testing.T) {
	app := newTestApp(t, false)
	cookie := app.login(t)
	rec := app.do(t, http.MethodPost, "/add-post", url.Values{
		"title": {"xss"},
		"body":  {"hi <script>alert(1)</script>"},
	}, cookie)
	assertRedirect(t, rec, "/dashboard")

	all, err := app.posts.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)

	rec = app.do(t, http.MethodGet, "/post/"+all[0].ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hi")
	assert.NotContains(t, rec.Body.String(), "<script>")
}

func TestSearch(t *testing.T) {
	app := newTestApp(t, false)
	app.seed(t, 3)

	rec := app.do(t, http.MethodPost, "/search", url.Values{"searchTerm": {"post 01"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Post 01")
	assert.NotContains(t, body, "Post 02")

	rec = app.do(t, http.MethodPost, "/search", url.Values{"searchTerm": {"nothing here"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No results found.")
}

func TestStaticPages(t *testing.T) {
	app := newTestApp(t, false)
	for _, path := range []string{"/about", "/contact", "/static/css/style.css"} {
		rec := app.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	rec := app.do(t, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPosts_StoreFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("database is locked"))

	h := &Handler{
		Posts:         service.NewPostService(store.NewPostStore(db)),
		Auth:          service.NewAuthService(store.NewUserStore(db), store.NewSessionStore(db), 0),
		Log:           zap.NewNop(),
		SessionSecret: testSecret,
	}
	e, err := NewServer(h, "1M")
	require.NoError(t, err)
	app := &testApp{e: e}

	rec := app.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
	assert.NotContains(t, rec.Body.String(), "database is locked")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostDTO(t *testing.T) {
	dto := newPostDTO(domain.Post{Title: "<b>Bold</b> title", Body: "# Heading\n\ntext"})
	assert.Equal(t, "Bold title", dto.Title)
	assert.Contains(t, string(dto.Content), "<h1")
	assert.Contains(t, string(dto.Content), "Heading")
}
