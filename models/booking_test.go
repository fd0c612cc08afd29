package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingCheckedIn, false},
		{BookingPending, BookingCompleted, false},
		{BookingConfirmed, BookingCheckedIn, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingCompleted, true},
		{BookingConfirmed, BookingPending, false},
		{BookingCheckedIn, BookingCompleted, true},
		{BookingCheckedIn, BookingCancelled, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCancelled, BookingCancelled, false},
		{BookingCompleted, BookingCheckedIn, false},
		{BookingCompleted, BookingCancelled, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStepOrder(t *testing.T) {
	assert.Equal(t, 0, StepSearch.Index())
	assert.Equal(t, 5, StepConfirmation.Index())
	assert.Equal(t, -1, Step("bogus").Index())

	next, ok := StepSearch.Next()
	assert.True(t, ok)
	assert.Equal(t, StepSelectTrip, next)

	_, ok = StepConfirmation.Next()
	assert.False(t, ok)

	prev, ok := StepSelectTrip.Prev()
	assert.True(t, ok)
	assert.Equal(t, StepSearch, prev)

	_, ok = StepSearch.Prev()
	assert.False(t, ok)
}

func TestSessionHasSeat(t *testing.T) {
	s := BookingSession{HeldSeatIDs: []string{"trip-1:1A", "trip-1:1B"}}
	assert.True(t, s.HasSeat("trip-1:1A"))
	assert.False(t, s.HasSeat("trip-1:2A"))
}
