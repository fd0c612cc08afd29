package services

import (
	"context"

	"github.com/shopspring/decimal"

	"ride-booking/internal/status"
	"ride-booking/models"
)

// TripCatalog is the external trip/vehicle/extras reference-data collaborator.
type TripCatalog interface {
	ListTrips(ctx context.Context, origin, destination, date string) ([]models.Trip, error)
	GetTrip(ctx context.Context, id string) (*models.Trip, error)
	GetVehicle(ctx context.Context, id string) (*models.Vehicle, error)
	ListExtras(ctx context.Context) ([]models.Extra, error)
	GetExtra(ctx context.Context, id string) (*models.Extra, error)
}

// MemoryCatalog serves a fixed dataset. Stands in for the real catalog
// service in development and tests.
type MemoryCatalog struct {
	trips    map[string]models.Trip
	vehicles map[string]models.Vehicle
	extras   map[string]models.Extra
}

func NewMemoryCatalog(trips []models.Trip, vehicles []models.Vehicle, extras []models.Extra) *MemoryCatalog {
	c := &MemoryCatalog{
		trips:    make(map[string]models.Trip, len(trips)),
		vehicles: make(map[string]models.Vehicle, len(vehicles)),
		extras:   make(map[string]models.Extra, len(extras)),
	}
	for _, t := range trips {
		c.trips[t.ID] = t
	}
	for _, v := range vehicles {
		c.vehicles[v.ID] = v
	}
	for _, e := range extras {
		c.extras[e.ID] = e
	}
	return c
}

// NewFixtureCatalog returns a catalog preloaded with a small intercity
// dataset, used by the dev server.
func NewFixtureCatalog() *MemoryCatalog {
	vehicles := []models.Vehicle{
		{ID: "veh-sedan-1", Type: models.VehicleSedan, Capacity: 4, Features: []string{"ac"}},
		{ID: "veh-van-1", Type: models.VehicleVan, Capacity: 10, Features: []string{"ac", "wifi"}},
		{ID: "veh-bus-1", Type: models.VehicleBus, Capacity: 32, Features: []string{"ac", "wifi", "toilet"}},
	}
	trips := []models.Trip{
		{
			ID: "trip-acc-ksi-0800", Origin: "Accra", Destination: "Kumasi",
			ScheduledDate: "2026-09-05", ScheduledTime: "08:00",
			PricePerSeat: decimal.NewFromInt(45), VehicleID: "veh-bus-1",
			DriverID: "drv-001", Status: models.TripScheduled,
		},
		{
			ID: "trip-acc-ksi-1400", Origin: "Accra", Destination: "Kumasi",
			ScheduledDate: "2026-09-05", ScheduledTime: "14:00",
			PricePerSeat: decimal.NewFromInt(55), VehicleID: "veh-van-1",
			DriverID: "drv-002", Status: models.TripScheduled,
		},
		{
			ID: "trip-acc-cpc-0930", Origin: "Accra", Destination: "Cape Coast",
			ScheduledDate: "2026-09-06", ScheduledTime: "09:30",
			PricePerSeat: decimal.NewFromInt(30), VehicleID: "veh-sedan-1",
			DriverID: "drv-003", Status: models.TripScheduled,
		},
	}
	extras := []models.Extra{
		{ID: "extra-water", Name: "Bottled water", UnitPrice: decimal.NewFromInt(2)},
		{ID: "extra-snack", Name: "Snack pack", UnitPrice: decimal.NewFromInt(5)},
		{ID: "extra-luggage", Name: "Extra luggage", UnitPrice: decimal.NewFromInt(10)},
	}
	return NewMemoryCatalog(trips, vehicles, extras)
}

func (c *MemoryCatalog) ListTrips(ctx context.Context, origin, destination, date string) ([]models.Trip, error) {
	var out []models.Trip
	for _, t := range c.trips {
		if origin != "" && t.Origin != origin {
			continue
		}
		if destination != "" && t.Destination != destination {
			continue
		}
		if date != "" && t.ScheduledDate != date {
			continue
		}
		if t.Status != models.TripScheduled {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (c *MemoryCatalog) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	t, ok := c.trips[id]
	if !ok {
		return nil, status.ErrTripNotFound
	}
	return &t, nil
}

func (c *MemoryCatalog) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	v, ok := c.vehicles[id]
	if !ok {
		return nil, status.ErrTripNotFound
	}
	return &v, nil
}

func (c *MemoryCatalog) ListExtras(ctx context.Context) ([]models.Extra, error) {
	out := make([]models.Extra, 0, len(c.extras))
	for _, e := range c.extras {
		out = append(out, e)
	}
	return out, nil
}

func (c *MemoryCatalog) GetExtra(ctx context.Context, id string) (*models.Extra, error) {
	e, ok := c.extras[id]
	if !ok {
		return nil, status.ErrTripNotFound
	}
	return &e, nil
}
