package notify

import (
	"context"

	"github.com/shopspring/decimal"

	"ride-booking/models"
)

// Ticket is the delivery payload for a confirmed booking.
type Ticket struct {
	BookingID        string          `json:"booking_id"`
	ConfirmationCode string          `json:"confirmation_code"`
	PassengerName    string          `json:"passenger_name"`
	Origin           string          `json:"origin"`
	Destination      string          `json:"destination"`
	Date             string          `json:"date"`
	Time             string          `json:"time"`
	SeatNumbers      []string        `json:"seat_numbers"`
	Total            decimal.Decimal `json:"total"`
}

// Notifier delivers tickets and booking status events to passengers.
type Notifier interface {
	// Deliver sends the ticket to the recipient over the chosen method.
	Deliver(ctx context.Context, method models.DeliveryMethod, recipient string, ticket *Ticket) error

	// BookingEvent announces a status change on the passenger's channel.
	BookingEvent(ctx context.Context, recipient, bookingID string, bookingStatus models.BookingStatus) error
}

// Noop discards everything. Default when no delivery keys are configured.
type Noop struct{}

func (Noop) Deliver(ctx context.Context, method models.DeliveryMethod, recipient string, ticket *Ticket) error {
	return nil
}

func (Noop) BookingEvent(ctx context.Context, recipient, bookingID string, bookingStatus models.BookingStatus) error {
	return nil
}
