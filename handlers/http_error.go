package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"ride-booking/internal/status"
)

// httpError maps the engine's error taxonomy onto HTTP statuses.
// Illegal-transition class errors come back as 409: a correct client never
// produces them, and the body is deliberately generic.
func httpError(err error) error {
	switch {
	case errors.Is(err, status.ErrSessionNotFound),
		errors.Is(err, status.ErrBookingNotFound),
		errors.Is(err, status.ErrTripNotFound),
		errors.Is(err, status.ErrSeatNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, status.ErrSeatUnavailable),
		errors.Is(err, status.ErrHoldExpiredOrMissing):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, status.ErrValidation),
		errors.Is(err, status.ErrInvalidCode),
		errors.Is(err, status.ErrCodeNotApplicable):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, status.ErrPaymentFailed):
		return echo.NewHTTPError(http.StatusPaymentRequired, err.Error())

	case errors.Is(err, status.ErrReconcileRequired):
		return echo.NewHTTPError(http.StatusInternalServerError, "payment recorded, booking pending reconciliation")

	case errors.Is(err, status.ErrIllegalTransition),
		errors.Is(err, status.ErrNotPending),
		errors.Is(err, status.ErrNotCancellable),
		errors.Is(err, status.ErrInvalidSeatForBooking),
		errors.Is(err, status.ErrStepNotAllowed):
		return echo.NewHTTPError(http.StatusConflict, "operation not allowed in current state")

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
