package models

import "time"

type SeatPosition string

const (
	PositionWindow SeatPosition = "window"
	PositionAisle  SeatPosition = "aisle"
	PositionMiddle SeatPosition = "middle"
)

type SeatTier string

const (
	TierStandard SeatTier = "standard"
	TierPremium  SeatTier = "premium"
	TierEconomy  SeatTier = "economy"
)

type SeatStatus string

const (
	SeatFree   SeatStatus = "free"
	SeatHeld   SeatStatus = "held"
	SeatBooked SeatStatus = "booked"
)

// Seat is owned by the inventory for the lifetime of a trip. The static part
// (number, row, position, tier) is derived deterministically from the vehicle
// layout; only the availability fields mutate.
type Seat struct {
	ID            string       `json:"id"` // unique per trip
	TripID        string       `json:"trip_id"`
	SeatNumber    string       `json:"seat_number"` // e.g. "2C"
	Row           int          `json:"row"`
	Column        int          `json:"column"`
	Position      SeatPosition `json:"position"`
	Tier          SeatTier     `json:"tier"`
	Status        SeatStatus   `json:"status"`
	HeldBy        string       `json:"held_by,omitempty"`
	HoldExpiresAt *time.Time   `json:"hold_expires_at,omitempty"`
	BookingID     string       `json:"booking_id,omitempty"`
}
