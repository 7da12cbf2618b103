// README: Booking aggregate, status definitions and history log.
package booking

import (
	"time"

	"vahan/internal/modules/payment"
	"vahan/internal/modules/pricing"
	"vahan/internal/types"
)

type Status string

const (
	StatusNone                  Status = "none"
	StatusPending               Status = "pending"
	StatusAccepted              Status = "accepted"
	StatusStarted               Status = "started"
	StatusCompleted             Status = "completed"
	StatusCancelled             Status = "cancelled"
	StatusCancellationRequested Status = "cancellation_requested"
)

// AllowedTransitions represents the booking state flow as code. No edge
// skips an adjacent state except direct-to-cancelled.
var AllowedTransitions = map[Status][]Status{
	StatusPending:               {StatusAccepted, StatusCancelled},
	StatusAccepted:              {StatusStarted, StatusCancellationRequested, StatusCancelled},
	StatusStarted:               {StatusCompleted},
	StatusCancellationRequested: {StatusCancelled, StatusAccepted},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type ActorKind string

const (
	ActorCustomer ActorKind = "customer"
	ActorDriver   ActorKind = "driver"
	ActorAdmin    ActorKind = "admin"
	ActorSystem   ActorKind = "system"
)

type Actor struct {
	ID   types.ID
	Kind ActorKind
}

// Event is one row of the append-only status history. History is never
// rewritten; rejection of a cancellation request reads it to find the status
// to revert to.
type Event struct {
	ID        int64
	BookingID types.ID
	From      Status
	To        Status
	Actor     Actor
	Reason    string
	Notes     string
	CreatedAt time.Time
}

type TripDetails struct {
	Pickup             types.Point
	PickupAddress      string
	Destination        types.Point
	DestinationAddress string
	DepartureAt        time.Time
	ReturnAt           *time.Time
	PassengerCount     int
	DistanceKm         float64
	Duration           time.Duration
	TripType           pricing.TripType
}

// PricingSnapshot freezes the quote at creation; later tariff edits never
// reprice an existing booking.
type PricingSnapshot struct {
	RatePerKm   int64
	BaseAmount  int64
	GSTAmount   int64
	TotalAmount int64
	TripType    pricing.TripType
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Cancellation is the nested cancellation/refund record. RequestStatus is
// only meaningful for the cancellation_requested sub-flow; direct cancels
// leave it empty.
type Cancellation struct {
	Actor          Actor
	At             time.Time
	Reason         string
	RequestStatus  RequestStatus
	Refund         payment.Refund
	PenaltyApplied bool
}

type Booking struct {
	ID            types.ID
	Number        string
	CustomerID    types.ID
	DriverID      types.ID
	VehicleID     types.ID
	Trip          TripDetails
	Pricing       PricingSnapshot
	Payment       payment.Plan
	Status        Status
	StatusVersion int
	Cancellation  *Cancellation
	CreatedAt     time.Time
	AcceptedAt    *time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
}

// PreviousStatus walks the history backwards for the last status held before
// the current one. Used to revert a rejected cancellation request to where
// the booking actually was, not to a hardcoded default.
func PreviousStatus(history []Event, current Status) (Status, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].To == current {
			return history[i].From, true
		}
	}
	return StatusNone, false
}
