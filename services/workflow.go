package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ride-booking/internal/services/notify"
	"ride-booking/internal/services/payment"
	"ride-booking/internal/status"
	"ride-booking/models"
	"ride-booking/monitoring"
)

// WorkflowConfig tunes the wizard.
type WorkflowConfig struct {
	MaxSeatsPerBooking int
	HoldTTL            time.Duration
	SessionTTL         time.Duration
	PaymentTimeout     time.Duration
	Currency           string
}

// Workflow is the per-session wizard state machine. It sequences the booking
// steps, gates advancement on per-step guards, and drives the inventory,
// fare, discount and lifecycle components. Sessions are single-writer; all
// cross-session contention lives in the SeatInventory.
type Workflow struct {
	sessions  SessionStore
	inventory SeatInventory
	catalog   TripCatalog
	fare      *FareCalculator
	discounts *DiscountValidator
	bookings  *BookingService
	gateway   payment.Gateway
	notifier  notify.Notifier
	logger    *zap.Logger
	monitor   *monitoring.Monitor
	cfg       WorkflowConfig
}

func NewWorkflow(
	sessions SessionStore,
	inventory SeatInventory,
	catalog TripCatalog,
	fare *FareCalculator,
	discounts *DiscountValidator,
	bookings *BookingService,
	gateway payment.Gateway,
	notifier notify.Notifier,
	logger *zap.Logger,
	monitor *monitoring.Monitor,
	cfg WorkflowConfig,
) *Workflow {
	if cfg.MaxSeatsPerBooking < 1 {
		cfg.MaxSeatsPerBooking = 1
	}
	return &Workflow{
		sessions:  sessions,
		inventory: inventory,
		catalog:   catalog,
		fare:      fare,
		discounts: discounts,
		bookings:  bookings,
		gateway:   gateway,
		notifier:  notifier,
		logger:    logger,
		monitor:   monitor,
		cfg:       cfg,
	}
}

// StartSession opens a fresh wizard run at the search step.
func (w *Workflow) StartSession(ctx context.Context) (*models.BookingSession, error) {
	now := time.Now()
	session := &models.BookingSession{
		ID:        uuid.New().String(),
		Step:      models.StepSearch,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := w.save(ctx, session); err != nil {
		return nil, err
	}
	w.monitor.SessionStarted()
	return session, nil
}

// SearchTrips proxies the trip catalog.
func (w *Workflow) SearchTrips(ctx context.Context, origin, destination, date string) ([]models.Trip, error) {
	return w.catalog.ListTrips(ctx, origin, destination, date)
}

// GetSession returns the current session state.
func (w *Workflow) GetSession(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	return w.sessions.Get(ctx, sessionID)
}

// SelectTrip pins the session to a trip and materializes its seat map.
// Changing trips drops any holds taken on the previous one.
func (w *Workflow) SelectTrip(ctx context.Context, sessionID, tripID string) (*models.BookingSession, error) {
	session, err := w.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step.Index() > models.StepSelectSeats.Index() {
		return nil, fmt.Errorf("%w: cannot change trip at %s", status.ErrStepNotAllowed, session.Step)
	}

	trip, err := w.catalog.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != models.TripScheduled {
		return nil, fmt.Errorf("%w: trip %s is %s", status.ErrValidation, tripID, trip.Status)
	}

	vehicle, err := w.catalog.GetVehicle(ctx, trip.VehicleID)
	if err != nil {
		return nil, err
	}

	if session.TripID != "" && session.TripID != tripID {
		w.releaseHolds(ctx, session)
	}

	if _, err := w.inventory.EnsureLayout(ctx, trip.ID, vehicle.Type, vehicle.Capacity); err != nil {
		return nil, err
	}

	session.TripID = trip.ID
	if session.Step == models.StepSearch {
		session.Step = models.StepSelectTrip
	}
	if err := w.refreshFare(ctx, session); err != nil {
		return nil, err
	}
	return session, w.save(ctx, session)
}

// SeatMap returns the availability snapshot for a trip.
func (w *Workflow) SeatMap(ctx context.Context, tripID string) ([]models.Seat, error) {
	return w.inventory.Seats(ctx, tripID)
}

// HoldSeats claims seats for the session, up to the per-booking limit.
func (w *Workflow) HoldSeats(ctx context.Context, sessionID string, seatIDs []string) (*models.BookingSession, error) {
	session, err := w.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TripID == "" {
		return nil, fmt.Errorf("%w: no trip selected", status.ErrValidation)
	}
	if session.Step != models.StepSelectSeats {
		return nil, fmt.Errorf("%w: seat selection at %s", status.ErrStepNotAllowed, session.Step)
	}

	requested := 0
	for _, seatID := range seatIDs {
		if !session.HasSeat(seatID) {
			requested++
		}
	}
	if len(session.HeldSeatIDs)+requested > w.cfg.MaxSeatsPerBooking {
		return nil, fmt.Errorf("%w: at most %d seats per booking", status.ErrValidation, w.cfg.MaxSeatsPerBooking)
	}

	var acquired []string
	for _, seatID := range seatIDs {
		if err := w.inventory.Hold(ctx, session.TripID, seatID, session.ID, w.cfg.HoldTTL); err != nil {
			// Roll back this batch's new holds; the session record never
			// saw them, so nothing else would release them before the TTL.
			for _, id := range acquired {
				if rerr := w.inventory.Release(ctx, session.TripID, id, session.ID); rerr != nil {
					w.logger.Warn("hold rollback failed",
						zap.String("session_id", session.ID),
						zap.String("seat_id", id),
						zap.Error(rerr))
				}
			}
			return nil, err
		}
		if !session.HasSeat(seatID) {
			session.HeldSeatIDs = append(session.HeldSeatIDs, seatID)
			acquired = append(acquired, seatID)
		}
	}

	if err := w.refreshFare(ctx, session); err != nil {
		return nil, err
	}
	return session, w.save(ctx, session)
}

// ReleaseSeat drops one held seat.
func (w *Workflow) ReleaseSeat(ctx context.Context, sessionID, seatID string) (*models.BookingSession, error) {
	session, err := w.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasSeat(seatID) {
		return session, nil
	}

	if err := w.inventory.Release(ctx, session.TripID, seatID, session.ID); err != nil {
		return nil, err
	}

	kept := session.HeldSeatIDs[:0]
	for _, id := range session.HeldSeatIDs {
		if id != seatID {
			kept = append(kept, id)
		}
	}
	session.HeldSeatIDs = kept

	if err := w.refreshFare(ctx, session); err != nil {
		return nil, err
	}
	return session, w.save(ctx, session)
}

// SetPassenger stores the passenger draft. Validation happens at advance.
func (w *Workflow) SetPassenger(ctx context.Context, sessionID string, p models.Passenger) (*models.BookingSession, error) {
	session, err := w.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step == models.StepConfirmation {
		return nil, status.ErrStepNotAllowed
	}
	if p.DeliveryMethod == "" {
		p.DeliveryMethod = models.DeliverySMS
	}
	session.Passenger = p
	return session, w.save(ctx, session)
}

// SelectExtras replaces the session's extras selection.
func (w *Workflow) SelectExtras(ctx context.Context, sessionID string, extras []models.ExtraSelection) (*models.BookingSession, error) {
	session, err := w.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step == models.StepConfirmation {
		return nil, status.ErrStepNotAllowed
	}

	for _, sel := range extras {
		if _, err := w.catalog.GetExtra(ctx, sel.ExtraID); err != nil {
			return nil, fmt.Errorf("%w: unknown extra %s", status.ErrValidation, sel.ExtraID)
		}
		if sel.Quantity < 1 {
			return nil, fmt.Errorf("%w: extra quantity must be positive", status.ErrValidation)
		}
	}

	session.Extras = extras
	if err := w.refreshFare(ctx, session); err != nil {
		return nil, err
	}
	return session, w.save(ctx, session)
}

// SetDoorstepPickup toggles the doorstep pickup option.
func (w *Workflow) SetDoorstepPickup(ctx context.Context, sessionID string, doorstep bool) (*models.BookingSession, error) {
	session, err := w.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step == models.StepConfirmation {
		return nil, status.ErrStepNotAllowed
	}

	session.DoorstepPickup = doorstep
	if err := w.refreshFare(ctx, session); err != nil {
		return nil, err
	}
	return session, w.save(ctx, session)
}

// ApplyDiscount validates a code against the current pre-discount total.
func (w *Workflow) ApplyDiscount(ctx context.Context, sessionID, code string) (*models.BookingSession, error) {
	session, err := w.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step == models.StepConfirmation {
		return nil, status.ErrStepNotAllowed
	}

	quote, err := w.quote(ctx, session, nil)
	if err != nil {
		return nil, err
	}
	preDiscount := quote.BaseFare.Add(quote.ServiceFee).Add(quote.ExtrasTotal).Add(quote.PickupFee)

	amount, err := w.discounts.Apply(code, preDiscount)
	if err != nil {
		return nil, err
	}

	session.Discount = &models.AppliedDiscount{Code: strings.ToUpper(strings.TrimSpace(code)), Amount: amount}
	if err := w.refreshFare(ctx, session); err != nil {
		return nil, err
	}
	return session, w.save(ctx, session)
}

// Advance moves the wizard forward one step if the current step's guard
// passes. The payment step cannot be crossed here; only SubmitPayment does
// that.
func (w *Workflow) Advance(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	session, err := w.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := w.guard(session); err != nil {
		return nil, err
	}

	next, ok := session.Step.Next()
	if !ok {
		return nil, status.ErrStepNotAllowed
	}
	session.Step = next
	return session, w.save(ctx, session)
}

// Back moves one step backward. Always legal except from Confirmation (the
// booking exists by then) and from the first step.
func (w *Workflow) Back(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	session, err := w.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step == models.StepConfirmation {
		return nil, status.ErrStepNotAllowed
	}

	prev, ok := session.Step.Prev()
	if !ok {
		return nil, status.ErrStepNotAllowed
	}
	session.Step = prev
	return session, w.save(ctx, session)
}

// AbandonSession releases every hold and forgets the session.
func (w *Workflow) AbandonSession(ctx context.Context, sessionID string) error {
	session, err := w.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	w.releaseHolds(ctx, session)
	if err := w.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	w.monitor.SessionEnded()
	return nil
}

// SubmitPayment charges the gateway and, on success, turns the session's
// holds into a booking. On gateway failure the session stays at the payment
// step with its holds intact. A successful charge followed by a failed
// booking creation is flagged for manual reconciliation, never retried.
func (w *Workflow) SubmitPayment(ctx context.Context, sessionID string, details models.PaymentDetails) (*models.Booking, error) {
	session, err := w.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step != models.StepPayment {
		return nil, fmt.Errorf("%w: submit at %s", status.ErrStepNotAllowed, session.Step)
	}

	// The full guard chain is re-checked here: the payment step must be
	// unreachable with an incomplete session, whatever path the caller took.
	if err := w.validateTripAndSeats(session); err != nil {
		return nil, err
	}
	if err := validatePassenger(session.Passenger); err != nil {
		return nil, err
	}
	if err := validatePaymentDetails(details); err != nil {
		return nil, err
	}

	fare, err := w.quote(ctx, session, session.Discount)
	if err != nil {
		return nil, err
	}
	session.Fare = &fare

	chargeCtx, cancel := context.WithTimeout(ctx, w.cfg.PaymentTimeout)
	defer cancel()

	started := time.Now()
	result, err := w.gateway.Charge(chargeCtx, &payment.ChargeRequest{
		Amount:    fare.Total,
		Currency:  w.cfg.Currency,
		Reference: session.ID,
		Details:   details,
	})
	if err != nil {
		w.monitor.TrackPayment(string(w.gateway.GetProvider()), "error", time.Since(started))
		w.logger.Warn("payment charge failed", zap.String("session_id", session.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", status.ErrPaymentFailed, err)
	}
	w.monitor.TrackPayment(string(w.gateway.GetProvider()), string(result.Status), time.Since(started))

	if result.Status == payment.StatusDeclined {
		return nil, fmt.Errorf("%w: declined by %s", status.ErrPaymentFailed, w.gateway.GetProvider())
	}

	booking, err := w.bookings.Create(ctx, session, fare.Total, result.TransactionID)
	if err != nil {
		// Money moved but no booking exists. Park the session for manual
		// reconciliation and keep the holds.
		session.ReconcileRequired = true
		_ = w.save(ctx, session)
		w.logger.Error("charge succeeded but booking creation failed",
			zap.String("session_id", session.ID),
			zap.String("transaction_id", result.TransactionID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: transaction %s", status.ErrReconcileRequired, result.TransactionID)
	}

	if result.Status == payment.StatusSucceeded {
		booking, err = w.bookings.ConfirmPayment(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
	}

	w.deliverTicket(ctx, session, booking)

	session.BookingID = booking.ID
	session.Step = models.StepConfirmation
	if err := w.save(ctx, session); err != nil {
		return nil, err
	}
	w.monitor.SessionEnded()

	return booking, nil
}

func (w *Workflow) guard(session *models.BookingSession) error {
	switch session.Step {
	case models.StepSearch:
		return nil
	case models.StepSelectTrip:
		if session.TripID == "" {
			return fmt.Errorf("%w: no trip selected", status.ErrValidation)
		}
		return nil
	case models.StepSelectSeats:
		return w.validateTripAndSeats(session)
	case models.StepPassengerInfo:
		// Seats are re-checked here: a release after the seat step must not
		// let the session reach payment with nothing held.
		if err := w.validateTripAndSeats(session); err != nil {
			return err
		}
		return validatePassenger(session.Passenger)
	case models.StepPayment, models.StepConfirmation:
		return status.ErrStepNotAllowed
	default:
		return status.ErrStepNotAllowed
	}
}

func (w *Workflow) validateTripAndSeats(session *models.BookingSession) error {
	if session.TripID == "" {
		return fmt.Errorf("%w: no trip selected", status.ErrValidation)
	}
	if len(session.HeldSeatIDs) < 1 {
		return fmt.Errorf("%w: no seats held", status.ErrValidation)
	}
	if len(session.HeldSeatIDs) > w.cfg.MaxSeatsPerBooking {
		return fmt.Errorf("%w: at most %d seats per booking", status.ErrValidation, w.cfg.MaxSeatsPerBooking)
	}
	return nil
}

func (w *Workflow) refreshFare(ctx context.Context, session *models.BookingSession) error {
	if session.TripID == "" {
		session.Fare = nil
		return nil
	}
	fare, err := w.quote(ctx, session, session.Discount)
	if err != nil {
		return err
	}
	session.Fare = &fare
	return nil
}

func (w *Workflow) quote(ctx context.Context, session *models.BookingSession, discount *models.AppliedDiscount) (models.FareBreakdown, error) {
	trip, err := w.catalog.GetTrip(ctx, session.TripID)
	if err != nil {
		return models.FareBreakdown{}, err
	}

	input := FareInput{
		PricePerSeat:   trip.PricePerSeat,
		SeatCount:      len(session.HeldSeatIDs),
		DoorstepPickup: session.DoorstepPickup,
	}
	for _, sel := range session.Extras {
		extra, err := w.catalog.GetExtra(ctx, sel.ExtraID)
		if err != nil {
			return models.FareBreakdown{}, err
		}
		input.Extras = append(input.Extras, ExtraLine{UnitPrice: extra.UnitPrice, Quantity: sel.Quantity})
	}
	if discount != nil {
		input.Discount = discount.Amount
	}

	return w.fare.Quote(input), nil
}

func (w *Workflow) releaseHolds(ctx context.Context, session *models.BookingSession) {
	for _, seatID := range session.HeldSeatIDs {
		if err := w.inventory.Release(ctx, session.TripID, seatID, session.ID); err != nil {
			w.logger.Warn("hold release failed",
				zap.String("session_id", session.ID),
				zap.String("seat_id", seatID),
				zap.Error(err))
		}
	}
	session.HeldSeatIDs = nil
	session.Fare = nil
}

func (w *Workflow) deliverTicket(ctx context.Context, session *models.BookingSession, booking *models.Booking) {
	trip, err := w.catalog.GetTrip(ctx, booking.TripID)
	if err != nil {
		w.logger.Warn("ticket delivery skipped", zap.Error(err))
		return
	}

	numbers := make([]string, 0, len(booking.SeatIDs))
	if seats, err := w.inventory.Seats(ctx, booking.TripID); err == nil {
		byID := make(map[string]string, len(seats))
		for _, s := range seats {
			byID[s.ID] = s.SeatNumber
		}
		for _, id := range booking.SeatIDs {
			numbers = append(numbers, byID[id])
		}
	}

	recipient := session.Passenger.Phone
	if session.Passenger.DeliveryMethod == models.DeliveryEmail {
		recipient = session.Passenger.Email
	}

	err = w.notifier.Deliver(ctx, session.Passenger.DeliveryMethod, recipient, &notify.Ticket{
		BookingID:        booking.ID,
		ConfirmationCode: booking.ConfirmationCode,
		PassengerName:    booking.Passenger.Name,
		Origin:           trip.Origin,
		Destination:      trip.Destination,
		Date:             trip.ScheduledDate,
		Time:             trip.ScheduledTime,
		SeatNumbers:      numbers,
		Total:            booking.TotalPrice,
	})
	if err != nil {
		w.logger.Warn("ticket delivery failed",
			zap.String("booking_id", booking.ID), zap.Error(err))
	}
}

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

func validatePassenger(p models.Passenger) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: passenger name required", status.ErrValidation)
	}
	if strings.TrimSpace(p.Phone) == "" {
		return fmt.Errorf("%w: passenger phone required", status.ErrValidation)
	}
	if p.DeliveryMethod == models.DeliveryEmail && !strings.Contains(p.Email, "@") {
		return fmt.Errorf("%w: email required for email delivery", status.ErrValidation)
	}
	return nil
}

func validatePaymentDetails(d models.PaymentDetails) error {
	switch d.Method {
	case models.PaymentCard:
		if strings.TrimSpace(d.CardholderName) == "" {
			return fmt.Errorf("%w: cardholder name required", status.ErrValidation)
		}
		if len(cardDigits(d.CardNumber)) < 16 {
			return fmt.Errorf("%w: card number must have at least 16 digits", status.ErrValidation)
		}
		if !expiryPattern.MatchString(d.Expiry) {
			return fmt.Errorf("%w: expiry must be MM/YY", status.ErrValidation)
		}
		if !cvvPattern.MatchString(d.CVV) {
			return fmt.Errorf("%w: cvv must be 3-4 digits", status.ErrValidation)
		}
		return nil
	case models.PaymentMobileMoney:
		if len(cardDigits(d.MobileNumber)) < 10 {
			return fmt.Errorf("%w: mobile number must have at least 10 digits", status.ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported payment method %q", status.ErrValidation, d.Method)
	}
}

func cardDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (w *Workflow) save(ctx context.Context, session *models.BookingSession) error {
	session.UpdatedAt = time.Now()
	return w.sessions.Put(ctx, session, w.cfg.SessionTTL)
}
