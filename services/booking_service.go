package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ride-booking/internal/services/notify"
	"ride-booking/internal/status"
	"ride-booking/models"
	"ride-booking/monitoring"
	"ride-booking/utils"
)

// BookingService owns the booking status state machine and the seat
// commit/release operations around it.
type BookingService struct {
	repo      BookingRepo
	inventory SeatInventory
	notifier  notify.Notifier
	logger    *zap.Logger
	monitor   *monitoring.Monitor
	now       func() time.Time
}

func NewBookingService(repo BookingRepo, inventory SeatInventory, notifier notify.Notifier, logger *zap.Logger, monitor *monitoring.Monitor) *BookingService {
	return &BookingService{
		repo:      repo,
		inventory: inventory,
		notifier:  notifier,
		logger:    logger,
		monitor:   monitor,
		now:       time.Now,
	}
}

// Create commits the session's seat holds and writes the booking in Pending.
// The commit happens first: if any hold is stale the booking is never
// created and no seat changes state.
func (s *BookingService) Create(ctx context.Context, session *models.BookingSession, totalPrice decimal.Decimal, transactionID string) (*models.Booking, error) {
	bookingID := uuid.New().String()

	if err := s.inventory.Commit(ctx, session.TripID, session.HeldSeatIDs, session.ID, bookingID); err != nil {
		return nil, err
	}

	code, err := s.uniqueConfirmationCode(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	booking := &models.Booking{
		ID:               bookingID,
		SessionID:        session.ID,
		TripID:           session.TripID,
		Passenger:        session.Passenger,
		SeatIDs:          append([]string(nil), session.HeldSeatIDs...),
		TotalPrice:       totalPrice,
		Status:           models.BookingPending,
		ConfirmationCode: code,
		TransactionID:    transactionID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Save(ctx, booking); err != nil {
		return nil, fmt.Errorf("save booking: %w", err)
	}

	s.monitor.TrackBooking(string(models.BookingPending))
	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("trip_id", booking.TripID),
		zap.Int("seats", len(booking.SeatIDs)),
		zap.String("total", totalPrice.StringFixed(2)))

	return booking, nil
}

// ConfirmPayment moves a Pending booking to Confirmed.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != models.BookingPending {
		s.logDefect("confirm", booking)
		return nil, status.ErrNotPending
	}

	return s.transition(ctx, booking, models.BookingConfirmed)
}

// Cancel is legal from Pending or Confirmed and returns the booking's seats
// to the pool. Cancelling a cancelled booking fails; the record stays.
func (s *BookingService) Cancel(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(booking.Status, models.BookingCancelled) {
		s.logDefect("cancel", booking)
		return nil, status.ErrNotCancellable
	}

	if err := s.inventory.Free(ctx, booking.TripID, booking.SeatIDs); err != nil {
		return nil, fmt.Errorf("free seats: %w", err)
	}

	return s.transition(ctx, booking, models.BookingCancelled)
}

// CheckIn is legal from Confirmed only; the seat must belong to the booking.
func (s *BookingService) CheckIn(ctx context.Context, bookingID, seatID string) (*models.Booking, error) {
	booking, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != models.BookingConfirmed {
		s.logDefect("check_in", booking)
		return nil, status.ErrIllegalTransition
	}

	owned := false
	for _, id := range booking.SeatIDs {
		if id == seatID {
			owned = true
			break
		}
	}
	if !owned {
		s.logger.Error("check-in with foreign seat",
			zap.String("booking_id", bookingID),
			zap.String("seat_id", seatID))
		return nil, status.ErrInvalidSeatForBooking
	}

	checkedInAt := s.now()
	booking.CheckedInAt = &checkedInAt
	return s.transition(ctx, booking, models.BookingCheckedIn)
}

// Complete marks the trip as run. Legal from Confirmed or CheckedIn.
func (s *BookingService) Complete(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(booking.Status, models.BookingCompleted) {
		s.logDefect("complete", booking)
		return nil, status.ErrIllegalTransition
	}

	return s.transition(ctx, booking, models.BookingCompleted)
}

func (s *BookingService) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	return s.repo.Get(ctx, bookingID)
}

func (s *BookingService) transition(ctx context.Context, booking *models.Booking, to models.BookingStatus) (*models.Booking, error) {
	booking.Status = to
	booking.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}

	s.monitor.TrackBooking(string(to))
	if err := s.notifier.BookingEvent(ctx, booking.Passenger.Phone, booking.ID, to); err != nil {
		s.logger.Warn("booking event not delivered",
			zap.String("booking_id", booking.ID), zap.Error(err))
	}

	return booking, nil
}

func (s *BookingService) logDefect(op string, booking *models.Booking) {
	// These are caller bugs, not user input problems.
	s.logger.Error("illegal booking transition attempted",
		zap.String("operation", op),
		zap.String("booking_id", booking.ID),
		zap.String("status", string(booking.Status)))
}

func (s *BookingService) uniqueConfirmationCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := utils.ConfirmationCode()
		if err != nil {
			return "", err
		}
		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("confirmation code space exhausted after retries")
}
