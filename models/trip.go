package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type VehicleType string

const (
	VehicleSedan   VehicleType = "sedan"
	VehicleVan     VehicleType = "van"
	VehicleBus     VehicleType = "bus"
	VehicleMinibus VehicleType = "minibus"
)

type TripStatus string

const (
	TripScheduled  TripStatus = "scheduled"
	TripInProgress TripStatus = "in-progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

// Trip is immutable reference data once published, except for its status.
type Trip struct {
	ID            string          `json:"id"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	ScheduledDate string          `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime string          `json:"scheduled_time"` // HH:MM
	PricePerSeat  decimal.Decimal `json:"price_per_seat"`
	VehicleID     string          `json:"vehicle_id"`
	DriverID      string          `json:"driver_id"`
	Status        TripStatus      `json:"status"`
}

type Vehicle struct {
	ID       string      `json:"id"`
	Type     VehicleType `json:"type"`
	Capacity int         `json:"capacity"`
	Features []string    `json:"features,omitempty"`
}

type Extra struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFlat    DiscountKind = "flat"
)

// DiscountRule is one entry of the discount code table.
type DiscountRule struct {
	Code      string          `json:"code"`
	Kind      DiscountKind    `json:"kind"`
	Value     decimal.Decimal `json:"value"` // percent (0-100) or flat amount
	MinSpend  decimal.Decimal `json:"min_spend"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}
