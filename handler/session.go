package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"unhidden/domain"
)

const (
	sessionCookieName = "session"
	tokenContextKey   = "session-token"
	sessionContextKey = "session"
)

// sessionCookie wraps the session id in a signed token. The session row stays
// authoritative; the signature only makes the cookie tamper-evident.
func (h *Handler) sessionCookie(sess domain.Session) (*http.Cookie, error) {
	if h.SessionSecret == "" {
		return nil, errors.New("missing secret")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   sess.UserID,
		IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	})
	signed, err := token.SignedString([]byte(h.SessionSecret))
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

func (h *Handler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(h.SessionSecret), nil
}

// sessionID returns the id carried by a validly signed, unexpired cookie.
func (h *Handler) sessionID(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, h.keyFunc)
	if err != nil || !token.Valid {
		return ""
	}
	return claims.ID
}

// isLoggedIn reports whether the request carries a live session. It is only
// used to decorate public pages, so store errors count as logged out.
func (h *Handler) isLoggedIn(c echo.Context) bool {
	id := h.sessionID(c)
	if id == "" {
		return false
	}
	_, err := h.Auth.Authenticate(c.Request().Context(), id)
	return err == nil
}

// RequireSession guards admin routes. Requests without a valid session are
// redirected to the login page before the handler runs.
func (h *Handler) RequireSession() []echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(h.SessionSecret),
		TokenLookup: "cookie:" + sessionCookieName,
		ContextKey:  tokenContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(jwt.RegisteredClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.Redirect(http.StatusFound, "/admin")
		},
	})

	load := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get(tokenContextKey).(*jwt.Token)
			if !ok {
				return c.Redirect(http.StatusFound, "/admin")
			}
			claims, ok := token.Claims.(*jwt.RegisteredClaims)
			if !ok {
				return c.Redirect(http.StatusFound, "/admin")
			}
			sess, err := h.Auth.Authenticate(c.Request().Context(), claims.ID)
			if err != nil {
				if !errors.Is(err, domain.ErrAuthFailure) {
					h.Log.Error("resolve session", zap.Error(err))
				}
				h.clearSessionCookie(c)
				return c.Redirect(http.StatusFound, "/admin")
			}
			c.Set(sessionContextKey, sess)
			return next(c)
		}
	}

	return []echo.MiddlewareFunc{verify, load}
}
