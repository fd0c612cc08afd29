package handlers

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"ride-booking/models"
	"ride-booking/services"
)

// SessionHandler exposes the booking wizard over HTTP.
type SessionHandler struct {
	workflow *services.Workflow
}

func NewSessionHandler(workflow *services.Workflow) *SessionHandler {
	return &SessionHandler{workflow: workflow}
}

func (h *SessionHandler) Register(e *echo.Echo) {
	e.POST("/api/sessions", h.StartSession)
	e.GET("/api/sessions", h.GetSession)
	e.GET("/api/trips", h.SearchTrips)
	e.GET("/api/seats", h.SeatMap)
	e.POST("/api/sessions/select-trip", h.SelectTrip)
	e.POST("/api/sessions/hold-seats", h.HoldSeats)
	e.POST("/api/sessions/release-seat", h.ReleaseSeat)
	e.POST("/api/sessions/passenger", h.SetPassenger)
	e.POST("/api/sessions/extras", h.SelectExtras)
	e.POST("/api/sessions/pickup", h.SetDoorstepPickup)
	e.POST("/api/sessions/discount", h.ApplyDiscount)
	e.POST("/api/sessions/advance", h.Advance)
	e.POST("/api/sessions/back", h.Back)
	e.POST("/api/sessions/payment", h.SubmitPayment)
	e.POST("/api/sessions/abandon", h.AbandonSession)
}

func (h *SessionHandler) StartSession(c echo.Context) error {
	session, err := h.workflow.StartSession(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) GetSession(c echo.Context) error {
	session, err := h.workflow.GetSession(c.Request().Context(), c.QueryParam("session_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) SearchTrips(c echo.Context) error {
	trips, err := h.workflow.SearchTrips(c.Request().Context(),
		c.QueryParam("origin"), c.QueryParam("destination"), c.QueryParam("date"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"trips": trips})
}

func (h *SessionHandler) SeatMap(c echo.Context) error {
	seats, err := h.workflow.SeatMap(c.Request().Context(), c.QueryParam("trip_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"seats": seats})
}

func (h *SessionHandler) SelectTrip(c echo.Context) error {
	var req struct {
		SessionID string `json:"session_id"`
		TripID    string `json:"trip_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	session, err := h.workflow.SelectTrip(c.Request().Context(), req.SessionID, req.TripID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) HoldSeats(c echo.Context) error {
	var req struct {
		SessionID string   `json:"session_id"`
		SeatIDs   []string `json:"seat_ids"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	session, err := h.workflow.HoldSeats(c.Request().Context(), req.SessionID, req.SeatIDs)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) ReleaseSeat(c echo.Context) error {
	var req struct {
		SessionID string `json:"session_id"`
		SeatID    string `json:"seat_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	session, err := h.workflow.ReleaseSeat(c.Request().Context(), req.SessionID, req.SeatID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) SetPassenger(c echo.Context) error {
	var req struct {
		SessionID string           `json:"session_id"`
		Passenger models.Passenger `json:"passenger"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	session, err := h.workflow.SetPassenger(c.Request().Context(), req.SessionID, req.Passenger)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) SelectExtras(c echo.Context) error {
	var req struct {
		SessionID string                  `json:"session_id"`
		Extras    []models.ExtraSelection `json:"extras"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	session, err := h.workflow.SelectExtras(c.Request().Context(), req.SessionID, req.Extras)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) SetDoorstepPickup(c echo.Context) error {
	var req struct {
		SessionID string `json:"session_id"`
		Doorstep  bool   `json:"doorstep"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	session, err := h.workflow.SetDoorstepPickup(c.Request().Context(), req.SessionID, req.Doorstep)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) ApplyDiscount(c echo.Context) error {
	var req struct {
		SessionID string `json:"session_id"`
		Code      string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	session, err := h.workflow.ApplyDiscount(c.Request().Context(), req.SessionID, req.Code)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Advance(c echo.Context) error {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	session, err := h.workflow.Advance(c.Request().Context(), req.SessionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Back(c echo.Context) error {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	session, err := h.workflow.Back(c.Request().Context(), req.SessionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) SubmitPayment(c echo.Context) error {
	var req struct {
		SessionID string                `json:"session_id"`
		Payment   models.PaymentDetails `json:"payment"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	booking, err := h.workflow.SubmitPayment(c.Request().Context(), req.SessionID, req.Payment)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, booking)
}

func (h *SessionHandler) AbandonSession(c echo.Context) error {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	if err := h.workflow.AbandonSession(c.Request().Context(), req.SessionID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"released": true})
}
