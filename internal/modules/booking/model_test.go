// README: Booking state machine table tests.
package booking

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusPending, StatusAccepted, true},
		{StatusAccepted, StatusStarted, true},
		{StatusStarted, StatusCompleted, true},
		// direct cancels
		{StatusPending, StatusCancelled, true},
		{StatusAccepted, StatusCancelled, true},
		// disputed-cancellation sub-flow
		{StatusAccepted, StatusCancellationRequested, true},
		{StatusCancellationRequested, StatusCancelled, true},
		{StatusCancellationRequested, StatusAccepted, true},
		// invalid: skipping states
		{StatusPending, StatusStarted, false},
		{StatusPending, StatusCompleted, false},
		{StatusAccepted, StatusCompleted, false},
		// invalid: started trips cannot be cancelled
		{StatusStarted, StatusCancelled, false},
		{StatusStarted, StatusCancellationRequested, false},
		// invalid: terminal states have no outgoing edges
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusAccepted, false},
		// invalid: only accepted bookings can request cancellation
		{StatusPending, StatusCancellationRequested, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusAccepted, StatusStarted, StatusCancellationRequested} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestPreviousStatus(t *testing.T) {
	now := time.Now()
	history := []Event{
		{From: StatusNone, To: StatusPending, CreatedAt: now},
		{From: StatusPending, To: StatusAccepted, CreatedAt: now},
		{From: StatusAccepted, To: StatusCancellationRequested, CreatedAt: now},
	}
	prev, ok := PreviousStatus(history, StatusCancellationRequested)
	if !ok || prev != StatusAccepted {
		t.Errorf("PreviousStatus = (%s, %v), want (accepted, true)", prev, ok)
	}
	if _, ok := PreviousStatus(history, StatusCompleted); ok {
		t.Error("PreviousStatus should not find a status never entered")
	}
}
