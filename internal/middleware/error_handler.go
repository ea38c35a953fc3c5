package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"tripmate/internal/itinerary"
	"tripmate/internal/services"
	"tripmate/internal/settlement"
	"tripmate/internal/store"
)

var badRequest = []error{
	settlement.ErrEmptySplitGroup,
	settlement.ErrBlankItem,
	settlement.ErrNonPositiveAmount,
	settlement.ErrUnknownCurrency,
	settlement.ErrMissingAmountKRW,
	settlement.ErrMissingPayer,
	settlement.ErrUnknownParticipant,
	itinerary.ErrMalformedDateRange,
	itinerary.ErrTripTooLong,
	itinerary.ErrMalformedTime,
	itinerary.ErrDayOutOfRange,
	itinerary.ErrBlankActivity,
	itinerary.ErrReservedGroupName,
	itinerary.ErrBlankGroupName,
	itinerary.ErrUnknownGroup,
	services.ErrBlankTripName,
}

// StatusFor maps a service error to its HTTP status
func StatusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	// partial writes may also wrap a not-found item
	case errors.Is(err, services.ErrPartialCascade), errors.Is(err, services.ErrStoreWrite):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrNotOwner),
		errors.Is(err, services.ErrOwnerEviction):
		return http.StatusForbidden
	case errors.Is(err, itinerary.ErrDuplicateGroupName):
		return http.StatusConflict
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders every error as {"error": message}
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := StatusFor(err)
	message := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		slog.Error("Request failed",
			"method", c.Request().Method, "path", c.Path(), "status", code, "error", err)
		if code == http.StatusInternalServerError {
			message = "something went wrong, please try again later"
		}
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, map[string]string{"error": message})
	}
	if writeErr != nil {
		slog.Error("Failed to write error response", "error", writeErr)
	}
}
