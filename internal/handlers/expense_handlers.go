package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"tripmate/internal/export"
	"tripmate/internal/models"
	"tripmate/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExpenseHandler struct {
	trips *services.TripService
}

func NewExpenseHandler(trips *services.TripService) *ExpenseHandler {
	return &ExpenseHandler{trips: trips}
}

type settleRequest struct {
	UID string `json:"uid"`
}

type settlementResponse struct {
	Trip models.Trip `json:"trip"`
	services.SettlementReport
}

func (h *ExpenseHandler) ListExpenses(c echo.Context) error {
	expenses, err := h.trips.ListExpenses(c.Request().Context(), currentUID(c), c.Param("id"))
	if err != nil {
		return err
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	return c.JSON(http.StatusOK, expenses)
}

func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	var in services.ExpenseInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	e, err := h.trips.CreateExpense(c.Request().Context(), currentUID(c), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *ExpenseHandler) UpdateExpense(c echo.Context) error {
	var in services.ExpenseInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	e, err := h.trips.UpdateExpense(c.Request().Context(), currentUID(c), c.Param("id"), c.Param("eid"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (h *ExpenseHandler) DeleteExpense(c echo.Context) error {
	if err := h.trips.DeleteExpense(c.Request().Context(), currentUID(c), c.Param("id"), c.Param("eid")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleSettlement flips the settled mark of the caller, or of "uid" when given
func (h *ExpenseHandler) ToggleSettlement(c echo.Context) error {
	var req settleRequest
	if c.Request().ContentLength > 0 {
		if err := bindJSON(c, &req); err != nil {
			return err
		}
	}
	e, err := h.trips.ToggleSettlement(c.Request().Context(), currentUID(c), c.Param("id"), c.Param("eid"), req.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (h *ExpenseHandler) Settlement(c echo.Context) error {
	trip, report, err := h.trips.Settlement(c.Request().Context(), currentUID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settlementResponse{Trip: trip, SettlementReport: report})
}

// ExportSettlement downloads the settlement as an xlsx workbook
func (h *ExpenseHandler) ExportSettlement(c echo.Context) error {
	trip, report, err := h.trips.Settlement(c.Request().Context(), currentUID(c), c.Param("id"))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, export.Report{
		Trip:         trip,
		Participants: report.Participants,
		Expenses:     report.Expenses,
		Stats:        report.Stats,
		Balances:     report.Balances,
	}); err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(export.Filename(trip))))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
