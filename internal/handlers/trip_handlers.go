package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"tripmate/internal/models"
	"tripmate/internal/services"
)

type TripHandler struct {
	trips *services.TripService
}

func NewTripHandler(trips *services.TripService) *TripHandler {
	return &TripHandler{trips: trips}
}

type tripRequest struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

type memberRequest struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

func (h *TripHandler) ListTrips(c echo.Context) error {
	trips, err := h.trips.ListTrips(c.Request().Context(), currentUID(c))
	if err != nil {
		return err
	}
	if trips == nil {
		trips = []models.Trip{}
	}
	return c.JSON(http.StatusOK, trips)
}

func (h *TripHandler) CreateTrip(c echo.Context) error {
	var req tripRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	trip, err := h.trips.CreateTrip(c.Request().Context(), currentUID(c), req.Name, req.Date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, trip)
}

func (h *TripHandler) GetTrip(c echo.Context) error {
	detail, err := h.trips.GetTrip(c.Request().Context(), currentUID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *TripHandler) UpdateTrip(c echo.Context) error {
	var req tripRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	trip, err := h.trips.UpdateTrip(c.Request().Context(), currentUID(c), c.Param("id"), req.Name, req.Date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, trip)
}

func (h *TripHandler) DeleteTrip(c echo.Context) error {
	if err := h.trips.DeleteTrip(c.Request().Context(), currentUID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TripHandler) JoinTrip(c echo.Context) error {
	if err := h.trips.JoinTrip(c.Request().Context(), currentUID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddMember accepts either a uid or the email of a registered user
func (h *TripHandler) AddMember(c echo.Context) error {
	var req memberRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	uid := strings.TrimSpace(req.UID)
	if uid == "" && strings.TrimSpace(req.Email) != "" {
		profile, err := h.trips.Profiles().SearchByEmail(ctx, req.Email)
		if err != nil {
			return err
		}
		uid = profile.UID
	}
	if uid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "uid or email is required")
	}

	if err := h.trips.AddMember(ctx, currentUID(c), c.Param("id"), uid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TripHandler) RemoveMember(c echo.Context) error {
	if err := h.trips.RemoveMember(c.Request().Context(), currentUID(c), c.Param("id"), c.Param("uid")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
