package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ride-booking/internal/services/notify"
	"ride-booking/internal/status"
	"ride-booking/models"
	"ride-booking/monitoring"
)

var confirmationCodePattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{6}$`)

func setupBookingService(t *testing.T) (*BookingService, *MemoryInventory) {
	t.Helper()
	inv := NewMemoryInventory(zap.NewNop(), monitoring.NewMonitor())
	_, err := inv.EnsureLayout(context.Background(), "trip-1", models.VehicleBus, 16)
	require.NoError(t, err)

	svc := NewBookingService(NewMemoryBookingRepo(), inv, notify.Noop{}, zap.NewNop(), monitoring.NewMonitor())
	return svc, inv
}

func heldSession(t *testing.T, inv *MemoryInventory, seatNumbers ...string) *models.BookingSession {
	t.Helper()
	session := &models.BookingSession{
		ID:     "sess-1",
		TripID: "trip-1",
		Passenger: models.Passenger{
			Name:  "Jane Mensah",
			Phone: "0555123456",
		},
	}
	for _, n := range seatNumbers {
		id := seatID(n)
		require.NoError(t, inv.Hold(context.Background(), "trip-1", id, session.ID, 10*time.Minute))
		session.HeldSeatIDs = append(session.HeldSeatIDs, id)
	}
	return session
}

func TestBookingService_CreateCommitsSeats(t *testing.T) {
	svc, inv := setupBookingService(t)
	ctx := context.Background()
	session := heldSession(t, inv, "1A", "1B")

	booking, err := svc.Create(ctx, session, decimal.NewFromInt(99), "txn-1")
	require.NoError(t, err)

	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Regexp(t, confirmationCodePattern, booking.ConfirmationCode)
	assert.Equal(t, "txn-1", booking.TransactionID)
	assert.ElementsMatch(t, []string{seatID("1A"), seatID("1B")}, booking.SeatIDs)

	seats, _ := inv.Seats(ctx, "trip-1")
	for _, s := range seats {
		if s.ID == seatID("1A") || s.ID == seatID("1B") {
			assert.Equal(t, models.SeatBooked, s.Status)
			assert.Equal(t, booking.ID, s.BookingID)
		}
	}
}

func TestBookingService_CreateFailsOnStaleHold(t *testing.T) {
	svc, inv := setupBookingService(t)
	ctx := context.Background()
	session := heldSession(t, inv, "1A")

	require.NoError(t, inv.Release(ctx, "trip-1", seatID("1A"), session.ID))

	_, err := svc.Create(ctx, session, decimal.NewFromInt(45), "txn-1")
	assert.ErrorIs(t, err, status.ErrHoldExpiredOrMissing)
}

func TestBookingService_ConfirmPayment(t *testing.T) {
	svc, inv := setupBookingService(t)
	ctx := context.Background()
	session := heldSession(t, inv, "1A")

	booking, err := svc.Create(ctx, session, decimal.NewFromInt(45), "txn-1")
	require.NoError(t, err)

	confirmed, err := svc.ConfirmPayment(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, confirmed.Status)

	// Confirming twice is a caller bug.
	_, err = svc.ConfirmPayment(ctx, booking.ID)
	assert.ErrorIs(t, err, status.ErrNotPending)
}

func TestBookingService_CancelFreesSeats(t *testing.T) {
	svc, inv := setupBookingService(t)
	ctx := context.Background()
	session := heldSession(t, inv, "1A", "1B")

	booking, err := svc.Create(ctx, session, decimal.NewFromInt(99), "txn-1")
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(ctx, booking.ID)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)

	seats, _ := inv.Seats(ctx, "trip-1")
	for _, s := range seats {
		assert.Equal(t, models.SeatFree, s.Status, "seat %s", s.ID)
	}

	// The record survives cancellation but cannot be cancelled again.
	_, err = svc.Cancel(ctx, booking.ID)
	assert.ErrorIs(t, err, status.ErrNotCancellable)

	got, err := svc.Get(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, got.Status)
}

func TestBookingService_CheckIn(t *testing.T) {
	svc, inv := setupBookingService(t)
	ctx := context.Background()
	session := heldSession(t, inv, "1A")

	booking, err := svc.Create(ctx, session, decimal.NewFromInt(45), "txn-1")
	require.NoError(t, err)

	// Pending bookings cannot check in.
	_, err = svc.CheckIn(ctx, booking.ID, seatID("1A"))
	assert.ErrorIs(t, err, status.ErrIllegalTransition)

	_, err = svc.ConfirmPayment(ctx, booking.ID)
	require.NoError(t, err)

	// Nor can a seat that is not on the booking.
	_, err = svc.CheckIn(ctx, booking.ID, seatID("2A"))
	assert.ErrorIs(t, err, status.ErrInvalidSeatForBooking)

	checked, err := svc.CheckIn(ctx, booking.ID, seatID("1A"))
	require.NoError(t, err)
	assert.Equal(t, models.BookingCheckedIn, checked.Status)
	require.NotNil(t, checked.CheckedInAt)

	// CheckedIn bookings are past the cancellation window.
	_, err = svc.Cancel(ctx, booking.ID)
	assert.ErrorIs(t, err, status.ErrNotCancellable)
}

func TestBookingService_Complete(t *testing.T) {
	svc, inv := setupBookingService(t)
	ctx := context.Background()
	session := heldSession(t, inv, "1A")

	booking, err := svc.Create(ctx, session, decimal.NewFromInt(45), "txn-1")
	require.NoError(t, err)

	// Pending cannot complete.
	_, err = svc.Complete(ctx, booking.ID)
	assert.ErrorIs(t, err, status.ErrIllegalTransition)

	_, err = svc.ConfirmPayment(ctx, booking.ID)
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, booking.ID, seatID("1A"))
	require.NoError(t, err)

	done, err := svc.Complete(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, done.Status)

	// Terminal: nothing moves out of Completed.
	_, err = svc.Complete(ctx, booking.ID)
	assert.ErrorIs(t, err, status.ErrIllegalTransition)
	_, err = svc.Cancel(ctx, booking.ID)
	assert.ErrorIs(t, err, status.ErrNotCancellable)
}

func TestBookingService_UnknownBooking(t *testing.T) {
	svc, _ := setupBookingService(t)

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, status.ErrBookingNotFound)
}
