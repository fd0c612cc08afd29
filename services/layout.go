package services

import (
	"fmt"

	"ride-booking/models"
)

// GenerateLayout builds the seat map for a (trip, vehicle) pair. The result
// is fully determined by its inputs so the same trip always renders the same
// seats, no matter how often or where the layout is regenerated.
//
// Layout rules:
//   - sedan: 2 rows x 2 seats, all window, standard tier
//   - van: ceil(capacity/2) rows x 2 seats, rows 1-2 premium
//   - bus/minibus: ceil(capacity/4) rows x 4 seats, outer columns window,
//     inner columns aisle/middle, rows 1-3 premium
//
// The grid is truncated to the vehicle's capacity.
func GenerateLayout(tripID string, vehicleType models.VehicleType, capacity int) []models.Seat {
	if capacity <= 0 {
		return nil
	}

	var rows, cols, premiumRows int
	switch vehicleType {
	case models.VehicleSedan:
		rows, cols, premiumRows = 2, 2, 0
	case models.VehicleVan:
		rows, cols, premiumRows = (capacity+1)/2, 2, 2
	case models.VehicleBus, models.VehicleMinibus:
		rows, cols, premiumRows = (capacity+3)/4, 4, 3
	default:
		rows, cols, premiumRows = (capacity+3)/4, 4, 0
	}

	seats := make([]models.Seat, 0, capacity)
	for row := 1; row <= rows && len(seats) < capacity; row++ {
		for col := 1; col <= cols && len(seats) < capacity; col++ {
			number := fmt.Sprintf("%d%c", row, 'A'+col-1)

			tier := models.TierStandard
			if row <= premiumRows {
				tier = models.TierPremium
			}

			seats = append(seats, models.Seat{
				ID:         fmt.Sprintf("%s:%s", tripID, number),
				TripID:     tripID,
				SeatNumber: number,
				Row:        row,
				Column:     col,
				Position:   seatPosition(vehicleType, col, cols),
				Tier:       tier,
				Status:     models.SeatFree,
			})
		}
	}

	return seats
}

func seatPosition(vehicleType models.VehicleType, col, cols int) models.SeatPosition {
	if vehicleType == models.VehicleSedan || cols == 2 {
		return models.PositionWindow
	}
	switch col {
	case 1, cols:
		return models.PositionWindow
	case 2:
		return models.PositionAisle
	default:
		return models.PositionMiddle
	}
}
