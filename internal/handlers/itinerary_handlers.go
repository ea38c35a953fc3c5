package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tripmate/internal/services"
)

type ItineraryHandler struct {
	trips *services.TripService
}

func NewItineraryHandler(trips *services.TripService) *ItineraryHandler {
	return &ItineraryHandler{trips: trips}
}

type groupRequest struct {
	Name   string `json:"name"`
	Filter string `json:"filter"`
}

func (h *ItineraryHandler) GetItinerary(c echo.Context) error {
	view, err := h.trips.Itinerary(c.Request().Context(), currentUID(c), c.Param("id"), c.QueryParam("group"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *ItineraryHandler) CreateItem(c echo.Context) error {
	var in services.ItemInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	item, err := h.trips.CreateItem(c.Request().Context(), currentUID(c), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *ItineraryHandler) UpdateItem(c echo.Context) error {
	var in services.ItemInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	item, err := h.trips.UpdateItem(c.Request().Context(), currentUID(c), c.Param("id"), c.Param("iid"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *ItineraryHandler) DeleteItem(c echo.Context) error {
	if err := h.trips.DeleteItem(c.Request().Context(), currentUID(c), c.Param("id"), c.Param("iid")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ItineraryHandler) Days(c echo.Context) error {
	days, err := h.trips.Days(c.Request().Context(), currentUID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, days)
}

func (h *ItineraryHandler) AddGroup(c echo.Context) error {
	var req groupRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	groups, err := h.trips.AddGroup(c.Request().Context(), currentUID(c), c.Param("id"), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string][]string{"groups": groups})
}

// RenameGroup renames :name to the body's name and moves its items along
func (h *ItineraryHandler) RenameGroup(c echo.Context) error {
	var req groupRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	change, err := h.trips.RenameGroup(c.Request().Context(), currentUID(c), c.Param("id"), pathParam(c, "name"), req.Name, req.Filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, change)
}

// DeleteGroup removes :name and moves its items back to "전체"
func (h *ItineraryHandler) DeleteGroup(c echo.Context) error {
	change, err := h.trips.DeleteGroup(c.Request().Context(), currentUID(c), c.Param("id"), pathParam(c, "name"), c.QueryParam("filter"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, change)
}
