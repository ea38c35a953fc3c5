package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"tripmate/internal/models"
	"tripmate/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileDirectory
}

func NewProfileHandler(profiles *services.ProfileDirectory) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

func (h *ProfileHandler) Me(c echo.Context) error {
	profile, err := h.profiles.Get(c.Request().Context(), currentUID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateMe changes the caller's display name or photo. Cached copies are
// invalidated so trips show the new name right away.
func (h *ProfileHandler) UpdateMe(c echo.Context) error {
	var req profileRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.DisplayName) == "" && req.PhotoURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}

	ctx := c.Request().Context()
	uid := currentUID(c)
	err := h.profiles.Put(ctx, models.UserProfile{
		UID:         uid,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
		Email:       getStringFromContext(c, "userEmail"),
	})
	if err != nil {
		return err
	}

	profile, err := h.profiles.Get(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// SearchUser finds a registered user by exact email, for inviting them
func (h *ProfileHandler) SearchUser(c echo.Context) error {
	email := strings.TrimSpace(c.QueryParam("email"))
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}
	profile, err := h.profiles.SearchByEmail(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.UserProfile{
		UID:         profile.UID,
		DisplayName: profile.DisplayName,
		PhotoURL:    profile.PhotoURL,
	})
}
