package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Step is one stop of the linear booking wizard.
type Step string

const (
	StepSearch        Step = "search"
	StepSelectTrip    Step = "select_trip"
	StepSelectSeats   Step = "select_seats"
	StepPassengerInfo Step = "passenger_info"
	StepPayment       Step = "payment"
	StepConfirmation  Step = "confirmation"
)

var stepOrder = []Step{
	StepSearch,
	StepSelectTrip,
	StepSelectSeats,
	StepPassengerInfo,
	StepPayment,
	StepConfirmation,
}

// Index returns the step's position in the wizard, or -1 for unknown steps.
func (s Step) Index() int {
	for i, step := range stepOrder {
		if step == s {
			return i
		}
	}
	return -1
}

// Next returns the following step. ok is false at the end of the wizard.
func (s Step) Next() (Step, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(stepOrder) {
		return s, false
	}
	return stepOrder[i+1], true
}

// Prev returns the preceding step. ok is false at the start of the wizard.
func (s Step) Prev() (Step, bool) {
	i := s.Index()
	if i <= 0 {
		return s, false
	}
	return stepOrder[i-1], true
}

type DeliveryMethod string

const (
	DeliveryEmail DeliveryMethod = "email"
	DeliverySMS   DeliveryMethod = "sms"
	DeliveryApp   DeliveryMethod = "app"
)

type Passenger struct {
	Name           string         `json:"name"`
	Phone          string         `json:"phone"`
	Email          string         `json:"email,omitempty"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
}

type ExtraSelection struct {
	ExtraID  string `json:"extra_id"`
	Quantity int    `json:"quantity"`
}

type AppliedDiscount struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// FareBreakdown is the computed fare snapshot carried by a session.
type FareBreakdown struct {
	BaseFare    decimal.Decimal `json:"base_fare"`
	ServiceFee  decimal.Decimal `json:"service_fee"`
	ExtrasTotal decimal.Decimal `json:"extras_total"`
	PickupFee   decimal.Decimal `json:"pickup_fee"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

type PaymentMethod string

const (
	PaymentCard        PaymentMethod = "card"
	PaymentMobileMoney PaymentMethod = "mobile_money"
)

type PaymentDetails struct {
	Method         PaymentMethod `json:"method"`
	CardholderName string        `json:"cardholder_name,omitempty"`
	CardNumber     string        `json:"card_number,omitempty"`
	Expiry         string        `json:"expiry,omitempty"` // MM/YY
	CVV            string        `json:"cvv,omitempty"`
	CardToken      string        `json:"card_token,omitempty"` // tokenized PAN for real gateways
	MobileNumber   string        `json:"mobile_number,omitempty"`
}

// BookingSession is the transient state of one wizard run. Single-writer:
// only the owning session mutates it.
type BookingSession struct {
	ID                string           `json:"id"`
	Step              Step             `json:"step"`
	TripID            string           `json:"trip_id,omitempty"`
	HeldSeatIDs       []string         `json:"held_seat_ids,omitempty"`
	Passenger         Passenger        `json:"passenger"`
	Extras            []ExtraSelection `json:"extras,omitempty"`
	DoorstepPickup    bool             `json:"doorstep_pickup"`
	Discount          *AppliedDiscount `json:"discount,omitempty"`
	Fare              *FareBreakdown   `json:"fare,omitempty"`
	BookingID         string           `json:"booking_id,omitempty"`
	ReconcileRequired bool             `json:"reconcile_required,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// HasSeat reports whether the session currently holds the given seat.
func (s *BookingSession) HasSeat(seatID string) bool {
	for _, id := range s.HeldSeatIDs {
		if id == seatID {
			return true
		}
	}
	return false
}
