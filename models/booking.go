package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCheckedIn BookingStatus = "checked_in"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// allowedTransitions is the closed transition table for booking statuses.
// Cancelled and Completed are terminal.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCheckedIn, BookingCancelled, BookingCompleted},
	BookingCheckedIn: {BookingCompleted},
	BookingCancelled: {},
	BookingCompleted: {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to BookingStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Booking is the durable record created once payment succeeds. It is never
// deleted, only status-transitioned.
type Booking struct {
	ID               string          `json:"id"`
	SessionID        string          `json:"session_id"`
	TripID           string          `json:"trip_id"`
	Passenger        Passenger       `json:"passenger"`
	SeatIDs          []string        `json:"seat_ids"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	Status           BookingStatus   `json:"status"`
	ConfirmationCode string          `json:"confirmation_code"`
	TransactionID    string          `json:"transaction_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	CheckedInAt      *time.Time      `json:"checked_in_at,omitempty"`
}
