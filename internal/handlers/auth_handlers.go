package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"tripmate/internal/middleware"
	"tripmate/internal/models"
	"tripmate/internal/services"
)

const sessionTTL = time.Hour * 24 * 5

// SessionIssuer verifies Firebase ID tokens and exchanges them for session cookies
type SessionIssuer interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	issuer       SessionIssuer
	profiles     *services.ProfileDirectory
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(issuer SessionIssuer, profiles *services.ProfileDirectory, secureCookie bool) *AuthHandler {
	return &AuthHandler{issuer: issuer, profiles: profiles, secureCookie: secureCookie}
}

func claim(token *auth.Token, key string) string {
	v, _ := token.Claims[key].(string)
	return v
}

// HandleLogin verifies the Firebase ID token, records the user's profile and
// creates a session cookie
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	if h.issuer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "auth is not configured")
	}

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}

	ctx := c.Request().Context()
	token, err := h.issuer.VerifyIDToken(ctx, tokenString)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	profile := models.UserProfile{
		UID:         token.UID,
		DisplayName: claim(token, "name"),
		Email:       claim(token, "email"),
		PhotoURL:    claim(token, "picture"),
	}
	if _, err := h.profiles.Get(ctx, token.UID); err != nil {
		profile.CreatedAt = time.Now()
	}
	if err := h.profiles.Put(ctx, profile); err != nil {
		// login still works, the profile is retried on the next login
		slog.Warn("Failed to record profile", "uid", token.UID, "error", err)
	}

	cookieValue, err := h.issuer.SessionCookie(ctx, tokenString, sessionTTL)
	if err != nil {
		slog.Error("Failed to create session cookie", "uid", token.UID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create session")
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    cookieValue,
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, map[string]string{
		"status": "success",
		"uid":    token.UID,
	})
}

// HandleLogout clears the session cookie
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	middleware.ClearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]string{
		"status": "logged out",
	})
}
