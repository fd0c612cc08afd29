package handlers

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"ride-booking/services"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	bookings *services.BookingService
}

func NewBookingHandler(bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

func (h *BookingHandler) Register(e *echo.Echo) {
	e.GET("/api/bookings", h.GetBooking)
	e.POST("/api/bookings/confirm", h.ConfirmPayment)
	e.POST("/api/bookings/cancel", h.CancelBooking)
	e.POST("/api/bookings/check-in", h.CheckIn)
	e.POST("/api/bookings/complete", h.Complete)
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	booking, err := h.bookings.Get(c.Request().Context(), c.QueryParam("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, booking)
}

// ConfirmPayment promotes a Pending booking once an async provider reports
// success.
func (h *BookingHandler) ConfirmPayment(c echo.Context) error {
	var req struct {
		BookingID string `json:"booking_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	booking, err := h.bookings.ConfirmPayment(c.Request().Context(), req.BookingID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	var req struct {
		BookingID string `json:"booking_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	booking, err := h.bookings.Cancel(c.Request().Context(), req.BookingID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) CheckIn(c echo.Context) error {
	var req struct {
		BookingID string `json:"booking_id"`
		SeatID    string `json:"seat_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	booking, err := h.bookings.CheckIn(c.Request().Context(), req.BookingID, req.SeatID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) Complete(c echo.Context) error {
	var req struct {
		BookingID string `json:"booking_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	booking, err := h.bookings.Complete(c.Request().Context(), req.BookingID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, booking)
}
