package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// Context keys set by RequireAuth
const (
	ContextUserUID   = "userUID"
	ContextUserEmail = "userEmail"
	ContextUserName  = "userName"
)

// SessionCookieName is the cookie holding the Firebase session
const SessionCookieName = "session"

// TokenVerifier is the part of the Firebase auth client RequireAuth needs
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*auth.Token, error)
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})
}

// RequireAuth returns a middleware that accepts either a Firebase ID token in
// the Authorization header or a session cookie
func RequireAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if verifier == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "auth is not configured")
			}
			ctx := c.Request().Context()

			var token *auth.Token
			var err error
			if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
				idToken, ok := strings.CutPrefix(header, "Bearer ")
				if !ok || idToken == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
				}
				token, err = verifier.VerifyIDToken(ctx, idToken)
			} else {
				cookie, cerr := c.Cookie(SessionCookieName)
				if cerr != nil || cookie.Value == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
				}
				token, err = verifier.VerifySessionCookie(ctx, cookie.Value)
				if err != nil {
					ClearSessionCookie(c)
				}
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
			}

			c.Set(ContextUserUID, token.UID)
			if email, ok := token.Claims["email"].(string); ok {
				c.Set(ContextUserEmail, email)
			}
			if name, ok := token.Claims["name"].(string); ok {
				c.Set(ContextUserName, name)
			}

			return next(c)
		}
	}
}
