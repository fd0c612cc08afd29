package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ride-booking/internal/services/notify"
	"ride-booking/internal/services/payment"
	"ride-booking/internal/status"
	"ride-booking/models"
	"ride-booking/monitoring"
)

const (
	busTrip   = "trip-acc-ksi-0800" // Accra -> Kumasi, 45 per seat, 32-seat bus
	validCard = "4242424242424242"
	badCard   = "4000000000000002"
)

func busSeat(number string) string {
	return busTrip + ":" + number
}

func setupWorkflow(t *testing.T) (*Workflow, *MemoryInventory) {
	t.Helper()
	logger := zap.NewNop()
	mon := monitoring.NewMonitor()

	inv := NewMemoryInventory(logger, mon)
	bookings := NewBookingService(NewMemoryBookingRepo(), inv, notify.Noop{}, logger, mon)

	gateway := payment.NewSandbox(logger)
	gateway.Latency = 0

	wf := NewWorkflow(
		NewMemorySessionStore(),
		inv,
		NewFixtureCatalog(),
		NewFareCalculator(),
		NewDiscountValidator(DefaultDiscountRules()),
		bookings,
		gateway,
		notify.Noop{},
		logger,
		mon,
		WorkflowConfig{
			MaxSeatsPerBooking: 4,
			HoldTTL:            10 * time.Minute,
			SessionTTL:         30 * time.Minute,
			PaymentTimeout:     5 * time.Second,
			Currency:           "GHS",
		},
	)
	return wf, inv
}

// sessionAtPayment walks a session through the wizard up to the payment step
// with one held seat and a valid passenger.
func sessionAtPayment(t *testing.T, wf *Workflow) *models.BookingSession {
	t.Helper()
	ctx := context.Background()

	session, err := wf.StartSession(ctx)
	require.NoError(t, err)
	require.Equal(t, models.StepSearch, session.Step)

	session, err = wf.SelectTrip(ctx, session.ID, busTrip)
	require.NoError(t, err)
	require.Equal(t, models.StepSelectTrip, session.Step)

	session, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, models.StepSelectSeats, session.Step)

	session, err = wf.HoldSeats(ctx, session.ID, []string{busSeat("1A")})
	require.NoError(t, err)

	session, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, models.StepPassengerInfo, session.Step)

	session, err = wf.SetPassenger(ctx, session.ID, models.Passenger{
		Name:  "Jane Mensah",
		Phone: "0555123456",
	})
	require.NoError(t, err)

	session, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, models.StepPayment, session.Step)

	return session
}

func TestWorkflow_HappyPath(t *testing.T) {
	wf, inv := setupWorkflow(t)
	ctx := context.Background()

	session := sessionAtPayment(t, wf)

	session, err := wf.ApplyDiscount(ctx, session.ID, "FIRST10")
	require.NoError(t, err)
	require.NotNil(t, session.Discount)
	// base 45.00 + fee 4.50, 10% off 49.50.
	assert.Equal(t, "4.95", session.Discount.Amount.StringFixed(2))

	booking, err := wf.SubmitPayment(ctx, session.ID, models.PaymentDetails{
		Method:         models.PaymentCard,
		CardholderName: "Jane Mensah",
		CardNumber:     validCard,
		Expiry:         "12/27",
		CVV:            "123",
	})
	require.NoError(t, err)

	assert.Equal(t, models.BookingConfirmed, booking.Status)
	assert.Regexp(t, confirmationCodePattern, booking.ConfirmationCode)
	assert.Equal(t, "44.55", booking.TotalPrice.StringFixed(2))
	assert.NotEmpty(t, booking.TransactionID)

	session, err = wf.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepConfirmation, session.Step)
	assert.Equal(t, booking.ID, session.BookingID)

	seats, err := inv.Seats(ctx, busTrip)
	require.NoError(t, err)
	for _, s := range seats {
		if s.ID == busSeat("1A") {
			assert.Equal(t, models.SeatBooked, s.Status)
			assert.Equal(t, booking.ID, s.BookingID)
		}
	}
}

func TestWorkflow_DeclinedCardKeepsHolds(t *testing.T) {
	wf, inv := setupWorkflow(t)
	ctx := context.Background()

	session := sessionAtPayment(t, wf)

	_, err := wf.SubmitPayment(ctx, session.ID, models.PaymentDetails{
		Method:         models.PaymentCard,
		CardholderName: "Jane Mensah",
		CardNumber:     badCard,
		Expiry:         "12/27",
		CVV:            "123",
	})
	assert.ErrorIs(t, err, status.ErrPaymentFailed)

	// Session stays at the payment step with the hold intact, so the
	// passenger can retry with another card.
	session, err = wf.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepPayment, session.Step)
	assert.Empty(t, session.BookingID)

	seats, _ := inv.Seats(ctx, busTrip)
	for _, s := range seats {
		if s.ID == busSeat("1A") {
			assert.Equal(t, models.SeatHeld, s.Status)
			assert.Equal(t, session.ID, s.HeldBy)
		}
	}
}

func TestWorkflow_CannotAdvancePastSeatsWithoutHolds(t *testing.T) {
	wf, _ := setupWorkflow(t)
	ctx := context.Background()

	session, err := wf.StartSession(ctx)
	require.NoError(t, err)
	session, err = wf.SelectTrip(ctx, session.ID, busTrip)
	require.NoError(t, err)
	session, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, models.StepSelectSeats, session.Step)

	_, err = wf.Advance(ctx, session.ID)
	assert.ErrorIs(t, err, status.ErrValidation)
}

func TestWorkflow_CannotAdvanceFromSearchWithoutTrip(t *testing.T) {
	wf, _ := setupWorkflow(t)
	ctx := context.Background()

	session, err := wf.StartSession(ctx)
	require.NoError(t, err)

	// Search itself passes its guard, but the select-trip step then blocks.
	session, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, models.StepSelectTrip, session.Step)

	_, err = wf.Advance(ctx, session.ID)
	assert.ErrorIs(t, err, status.ErrValidation)
}

func TestWorkflow_ReleasingLastSeatBlocksPayment(t *testing.T) {
	wf, _ := setupWorkflow(t)
	ctx := context.Background()

	session, err := wf.StartSession(ctx)
	require.NoError(t, err)
	session, err = wf.SelectTrip(ctx, session.ID, busTrip)
	require.NoError(t, err)
	_, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	_, err = wf.HoldSeats(ctx, session.ID, []string{busSeat("1A")})
	require.NoError(t, err)
	_, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	_, err = wf.SetPassenger(ctx, session.ID, models.Passenger{
		Name: "Jane Mensah", Phone: "0555123456",
	})
	require.NoError(t, err)

	// Dropping the last seat at the passenger step must close the door to
	// the payment step.
	session, err = wf.ReleaseSeat(ctx, session.ID, busSeat("1A"))
	require.NoError(t, err)
	require.Empty(t, session.HeldSeatIDs)

	_, err = wf.Advance(ctx, session.ID)
	assert.ErrorIs(t, err, status.ErrValidation)

	session, err = wf.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepPassengerInfo, session.Step)
}

func TestWorkflow_FailedHoldBatchRollsBack(t *testing.T) {
	wf, inv := setupWorkflow(t)
	ctx := context.Background()

	session, err := wf.StartSession(ctx)
	require.NoError(t, err)
	_, err = wf.SelectTrip(ctx, session.ID, busTrip)
	require.NoError(t, err)
	_, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)

	// Another session already has 1B; the whole batch must fail without
	// leaving 1A stranded on an unsaved session.
	require.NoError(t, inv.Hold(ctx, busTrip, busSeat("1B"), "other-sess", 10*time.Minute))

	_, err = wf.HoldSeats(ctx, session.ID, []string{busSeat("1A"), busSeat("1B")})
	assert.ErrorIs(t, err, status.ErrSeatUnavailable)

	session, err = wf.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, session.HeldSeatIDs)

	seats, _ := inv.Seats(ctx, busTrip)
	for _, s := range seats {
		switch s.ID {
		case busSeat("1A"):
			assert.Equal(t, models.SeatFree, s.Status)
		case busSeat("1B"):
			assert.Equal(t, models.SeatHeld, s.Status)
			assert.Equal(t, "other-sess", s.HeldBy)
		}
	}
}

func TestWorkflow_AdvanceCannotCrossPayment(t *testing.T) {
	wf, _ := setupWorkflow(t)
	session := sessionAtPayment(t, wf)

	_, err := wf.Advance(context.Background(), session.ID)
	assert.ErrorIs(t, err, status.ErrStepNotAllowed)
}

func TestWorkflow_PassengerGuard(t *testing.T) {
	wf, _ := setupWorkflow(t)
	ctx := context.Background()

	session, err := wf.StartSession(ctx)
	require.NoError(t, err)
	session, err = wf.SelectTrip(ctx, session.ID, busTrip)
	require.NoError(t, err)
	_, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	_, err = wf.HoldSeats(ctx, session.ID, []string{busSeat("1A")})
	require.NoError(t, err)
	session, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, models.StepPassengerInfo, session.Step)

	// No passenger yet.
	_, err = wf.Advance(ctx, session.ID)
	assert.ErrorIs(t, err, status.ErrValidation)

	// Email delivery needs an email address.
	_, err = wf.SetPassenger(ctx, session.ID, models.Passenger{
		Name: "Jane Mensah", Phone: "0555123456", DeliveryMethod: models.DeliveryEmail,
	})
	require.NoError(t, err)
	_, err = wf.Advance(ctx, session.ID)
	assert.ErrorIs(t, err, status.ErrValidation)

	_, err = wf.SetPassenger(ctx, session.ID, models.Passenger{
		Name: "Jane Mensah", Phone: "0555123456",
		Email: "jane@example.com", DeliveryMethod: models.DeliveryEmail,
	})
	require.NoError(t, err)
	session, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepPayment, session.Step)
}

func TestWorkflow_BackRules(t *testing.T) {
	wf, _ := setupWorkflow(t)
	ctx := context.Background()

	session, err := wf.StartSession(ctx)
	require.NoError(t, err)

	// Nowhere to go from the first step.
	_, err = wf.Back(ctx, session.ID)
	assert.ErrorIs(t, err, status.ErrStepNotAllowed)

	session, err = wf.SelectTrip(ctx, session.ID, busTrip)
	require.NoError(t, err)
	session, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, models.StepSelectSeats, session.Step)

	session, err = wf.Back(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepSelectTrip, session.Step)
}

func TestWorkflow_NoBackFromConfirmation(t *testing.T) {
	wf, _ := setupWorkflow(t)
	ctx := context.Background()

	session := sessionAtPayment(t, wf)
	_, err := wf.SubmitPayment(ctx, session.ID, models.PaymentDetails{
		Method:         models.PaymentCard,
		CardholderName: "Jane Mensah",
		CardNumber:     validCard,
		Expiry:         "12/27",
		CVV:            "123",
	})
	require.NoError(t, err)

	_, err = wf.Back(ctx, session.ID)
	assert.ErrorIs(t, err, status.ErrStepNotAllowed)
}

func TestWorkflow_SeatLimit(t *testing.T) {
	wf, _ := setupWorkflow(t)
	ctx := context.Background()

	session, err := wf.StartSession(ctx)
	require.NoError(t, err)
	session, err = wf.SelectTrip(ctx, session.ID, busTrip)
	require.NoError(t, err)
	_, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)

	_, err = wf.HoldSeats(ctx, session.ID, []string{
		busSeat("1A"), busSeat("1B"), busSeat("1C"), busSeat("1D"),
	})
	require.NoError(t, err)

	_, err = wf.HoldSeats(ctx, session.ID, []string{busSeat("2A")})
	assert.ErrorIs(t, err, status.ErrValidation)

	// Re-holding an already held seat does not count against the limit.
	_, err = wf.HoldSeats(ctx, session.ID, []string{busSeat("1A")})
	assert.NoError(t, err)
}

func TestWorkflow_ChangingTripDropsHolds(t *testing.T) {
	wf, inv := setupWorkflow(t)
	ctx := context.Background()

	session, err := wf.StartSession(ctx)
	require.NoError(t, err)
	session, err = wf.SelectTrip(ctx, session.ID, busTrip)
	require.NoError(t, err)
	_, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	_, err = wf.HoldSeats(ctx, session.ID, []string{busSeat("1A")})
	require.NoError(t, err)

	session, err = wf.SelectTrip(ctx, session.ID, "trip-acc-ksi-1400")
	require.NoError(t, err)
	assert.Empty(t, session.HeldSeatIDs)

	seats, _ := inv.Seats(ctx, busTrip)
	for _, s := range seats {
		assert.Equal(t, models.SeatFree, s.Status)
	}
}

func TestWorkflow_ReleaseSeatRecalculatesFare(t *testing.T) {
	wf, _ := setupWorkflow(t)
	ctx := context.Background()

	session, err := wf.StartSession(ctx)
	require.NoError(t, err)
	session, err = wf.SelectTrip(ctx, session.ID, busTrip)
	require.NoError(t, err)
	_, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)

	session, err = wf.HoldSeats(ctx, session.ID, []string{busSeat("1A"), busSeat("1B")})
	require.NoError(t, err)
	require.NotNil(t, session.Fare)
	assert.Equal(t, "99.00", session.Fare.Total.StringFixed(2))

	session, err = wf.ReleaseSeat(ctx, session.ID, busSeat("1B"))
	require.NoError(t, err)
	assert.Equal(t, []string{busSeat("1A")}, session.HeldSeatIDs)
	assert.Equal(t, "49.50", session.Fare.Total.StringFixed(2))
}

func TestWorkflow_ExtrasAndPickupInFare(t *testing.T) {
	wf, _ := setupWorkflow(t)
	ctx := context.Background()

	session, err := wf.StartSession(ctx)
	require.NoError(t, err)
	session, err = wf.SelectTrip(ctx, session.ID, busTrip)
	require.NoError(t, err)
	_, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	_, err = wf.HoldSeats(ctx, session.ID, []string{busSeat("1A")})
	require.NoError(t, err)

	session, err = wf.SelectExtras(ctx, session.ID, []models.ExtraSelection{
		{ExtraID: "extra-snack", Quantity: 2},
	})
	require.NoError(t, err)
	session, err = wf.SetDoorstepPickup(ctx, session.ID, true)
	require.NoError(t, err)

	// 45 + 4.50 + 10 extras + 5 pickup.
	assert.Equal(t, "64.50", session.Fare.Total.StringFixed(2))

	_, err = wf.SelectExtras(ctx, session.ID, []models.ExtraSelection{
		{ExtraID: "extra-unknown", Quantity: 1},
	})
	assert.ErrorIs(t, err, status.ErrValidation)

	_, err = wf.SelectExtras(ctx, session.ID, []models.ExtraSelection{
		{ExtraID: "extra-snack", Quantity: 0},
	})
	assert.ErrorIs(t, err, status.ErrValidation)
}

func TestWorkflow_DiscountErrors(t *testing.T) {
	wf, _ := setupWorkflow(t)
	ctx := context.Background()

	session, err := wf.StartSession(ctx)
	require.NoError(t, err)
	session, err = wf.SelectTrip(ctx, session.ID, busTrip)
	require.NoError(t, err)
	_, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	_, err = wf.HoldSeats(ctx, session.ID, []string{busSeat("1A")})
	require.NoError(t, err)

	_, err = wf.ApplyDiscount(ctx, session.ID, "NOPE")
	assert.ErrorIs(t, err, status.ErrInvalidCode)

	// WEEKEND15 needs a 50.00 spend; one 45 seat plus fee is 49.50.
	_, err = wf.ApplyDiscount(ctx, session.ID, "WEEKEND15")
	assert.ErrorIs(t, err, status.ErrCodeNotApplicable)
}

func TestWorkflow_SubmitPaymentValidation(t *testing.T) {
	wf, _ := setupWorkflow(t)
	ctx := context.Background()

	session := sessionAtPayment(t, wf)

	cases := []struct {
		name    string
		details models.PaymentDetails
	}{
		{"missing cardholder", models.PaymentDetails{Method: models.PaymentCard, CardNumber: validCard, Expiry: "12/27", CVV: "123"}},
		{"short pan", models.PaymentDetails{Method: models.PaymentCard, CardholderName: "J", CardNumber: "4242", Expiry: "12/27", CVV: "123"}},
		{"bad expiry", models.PaymentDetails{Method: models.PaymentCard, CardholderName: "J", CardNumber: validCard, Expiry: "13/27", CVV: "123"}},
		{"bad cvv", models.PaymentDetails{Method: models.PaymentCard, CardholderName: "J", CardNumber: validCard, Expiry: "12/27", CVV: "12"}},
		{"short mobile", models.PaymentDetails{Method: models.PaymentMobileMoney, MobileNumber: "055"}},
		{"unknown method", models.PaymentDetails{Method: "cash"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := wf.SubmitPayment(ctx, session.ID, tc.details)
			assert.ErrorIs(t, err, status.ErrValidation)
		})
	}
}

func TestWorkflow_SubmitPaymentRequiresPaymentStep(t *testing.T) {
	wf, _ := setupWorkflow(t)
	ctx := context.Background()

	session, err := wf.StartSession(ctx)
	require.NoError(t, err)

	_, err = wf.SubmitPayment(ctx, session.ID, models.PaymentDetails{
		Method: models.PaymentMobileMoney, MobileNumber: "0555123456",
	})
	assert.ErrorIs(t, err, status.ErrStepNotAllowed)
}

func TestWorkflow_MobileMoneyPayment(t *testing.T) {
	wf, _ := setupWorkflow(t)
	ctx := context.Background()

	session := sessionAtPayment(t, wf)

	booking, err := wf.SubmitPayment(ctx, session.ID, models.PaymentDetails{
		Method:       models.PaymentMobileMoney,
		MobileNumber: "0555123456",
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, booking.Status)
	assert.Equal(t, "49.50", booking.TotalPrice.StringFixed(2))
}

func TestWorkflow_AbandonReleasesEverything(t *testing.T) {
	wf, inv := setupWorkflow(t)
	ctx := context.Background()

	session, err := wf.StartSession(ctx)
	require.NoError(t, err)
	session, err = wf.SelectTrip(ctx, session.ID, busTrip)
	require.NoError(t, err)
	_, err = wf.Advance(ctx, session.ID)
	require.NoError(t, err)
	_, err = wf.HoldSeats(ctx, session.ID, []string{busSeat("1A"), busSeat("1B")})
	require.NoError(t, err)

	require.NoError(t, wf.AbandonSession(ctx, session.ID))

	_, err = wf.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, status.ErrSessionNotFound)

	seats, _ := inv.Seats(ctx, busTrip)
	for _, s := range seats {
		assert.Equal(t, models.SeatFree, s.Status)
	}
}

func TestWorkflow_SearchTrips(t *testing.T) {
	wf, _ := setupWorkflow(t)
	ctx := context.Background()

	trips, err := wf.SearchTrips(ctx, "Accra", "Kumasi", "2026-09-05")
	require.NoError(t, err)
	assert.Len(t, trips, 2)

	trips, err = wf.SearchTrips(ctx, "Accra", "", "")
	require.NoError(t, err)
	assert.Len(t, trips, 3)

	trips, err = wf.SearchTrips(ctx, "Tamale", "", "")
	require.NoError(t, err)
	assert.Empty(t, trips)
}
