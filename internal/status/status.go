package status

import "errors"

// Recoverable errors: surfaced inline, the session stays usable.
var (
	ErrValidation           = errors.New("validation: guard failed")
	ErrSeatUnavailable      = errors.New("inventory: seat unavailable")
	ErrHoldExpiredOrMissing = errors.New("inventory: hold expired or missing")
	ErrInvalidCode          = errors.New("discount: invalid code")
	ErrCodeNotApplicable    = errors.New("discount: code not applicable")
	ErrPaymentFailed        = errors.New("payment: payment failed")
)

// ErrReconcileRequired means the charge went through but the booking record
// could not be created. Never retried automatically; holds stay in place.
var ErrReconcileRequired = errors.New("payment: charge succeeded but booking creation failed")

// Caller errors: unreachable from a correct client, logged as defects.
var (
	ErrIllegalTransition     = errors.New("booking: illegal status transition")
	ErrNotPending            = errors.New("booking: not pending")
	ErrNotCancellable        = errors.New("booking: not cancellable")
	ErrInvalidSeatForBooking = errors.New("booking: seat does not belong to booking")
	ErrStepNotAllowed        = errors.New("session: step not allowed")
)

var (
	ErrSessionNotFound = errors.New("session: not found")
	ErrBookingNotFound = errors.New("booking: not found")
	ErrTripNotFound    = errors.New("trip: not found")
	ErrSeatNotFound    = errors.New("inventory: seat not found")
)
