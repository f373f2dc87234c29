package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"unhidden/domain"
	"unhidden/service"
	"unhidden/store"
)

const (
	testSecret   = "test-secret"
	testUser     = "admin"
	testPassword = "password1"
)

type testApp struct {
	e     *echo.Echo
	db    *sql.DB
	posts *store.PostStore
	auth  *service.AuthService
}

func newTestApp(t *testing.T, enableRegistration bool) *testApp {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	posts := store.NewPostStore(db)
	auth := service.NewAuthService(store.NewUserStore(db), store.NewSessionStore(db), time.Hour)
	h := &Handler{
		Posts:              service.NewPostService(posts),
		Auth:               auth,
		Log:                zap.NewNop(),
		SessionSecret:      testSecret,
		EnableRegistration: enableRegistration,
	}
	e, err := NewServer(h, "1M")
	require.NoError(t, err)
	return &testApp{e: e, db: db, posts: posts, auth: auth}
}

func (a *testApp) do(t *testing.T, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// login registers the admin account and returns its session cookie.
func (a *testApp) login(t *testing.T) *http.Cookie {
	t.Helper()
	_, err := a.auth.Register(context.Background(), testUser, testPassword)
	require.NoError(t, err)

	rec := a.do(t, http.MethodPost, "/admin", url.Values{"username": {testUser}, "password": {testPassword}})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get(echo.HeaderLocation))
	cookie := sessionCookieFrom(rec)
	require.NotNil(t, cookie)
	return cookie
}

func sessionCookieFrom(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			return c
		}
	}
	return nil
}

func (a *testApp) seed(t *testing.T, n int) []domain.Post {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := make([]domain.Post, 0, n)
	for i := 0; i < n; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		p := domain.Post{
			ID:        uuid.NewString(),
			Title:     fmt.Sprintf("Post %02d", i),
			Body:      fmt.Sprintf("Body **%02d**", i),
			CreatedAt: at,
			UpdatedAt: at,
		}
		require.NoError(t, a.posts.Create(context.Background(), p))
		posts = append(posts, p)
	}
	return posts
}

func (a *testApp) count(t *testing.T) int {
	t.Helper()
	n, err := a.posts.Count(context.Background())
	require.NoError(t, err)
	return n
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, location, rec.Header().Get(echo.HeaderLocation))
}
