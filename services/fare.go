package services

import (
	"github.com/shopspring/decimal"

	"ride-booking/models"
)

var (
	serviceFeeRate = decimal.NewFromFloat(0.10)
	flatPickupFee  = decimal.NewFromFloat(5.00)
)

// ExtraLine is one selected extra with its quantity.
type ExtraLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// FareInput is everything a fare quote depends on.
type FareInput struct {
	PricePerSeat   decimal.Decimal
	SeatCount      int
	Extras         []ExtraLine
	DoorstepPickup bool
	Discount       decimal.Decimal
}

// FareCalculator is pure computation; it holds no state.
type FareCalculator struct{}

func NewFareCalculator() *FareCalculator {
	return &FareCalculator{}
}

// Quote computes the fare breakdown. Every component is rounded to two
// decimals before it is added, and the discount can never push the total
// below zero.
func (f *FareCalculator) Quote(in FareInput) models.FareBreakdown {
	baseFare := round2(in.PricePerSeat.Mul(decimal.NewFromInt(int64(in.SeatCount))))
	serviceFee := round2(baseFare.Mul(serviceFeeRate))

	extrasTotal := decimal.Zero
	for _, line := range in.Extras {
		if line.Quantity <= 0 {
			continue
		}
		extrasTotal = extrasTotal.Add(round2(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))))
	}
	extrasTotal = round2(extrasTotal)

	pickupFee := decimal.Zero
	if in.DoorstepPickup {
		pickupFee = flatPickupFee
	}

	preDiscount := baseFare.Add(serviceFee).Add(extrasTotal).Add(pickupFee)

	discount := round2(in.Discount)
	if discount.GreaterThan(preDiscount) {
		discount = preDiscount
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	return models.FareBreakdown{
		BaseFare:    baseFare,
		ServiceFee:  serviceFee,
		ExtrasTotal: extrasTotal,
		PickupFee:   pickupFee,
		Discount:    discount,
		Total:       round2(preDiscount.Sub(discount)),
	}
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
