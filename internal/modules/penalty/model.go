// README: Penalty types, amounts and record shape.
package penalty

import (
	"time"

	"vahan/internal/types"
)

type Type string

// Time-derived cancellation penalties.
const (
	Type30MinAfterAcceptance Type = "cancellation_30min_after_acceptance"
	Type3HWithin             Type = "cancellation_3h_within"
	Type12HWithin            Type = "cancellation_12h_within"
	Type12HBefore            Type = "cancellation_12h_before"
)

// Admin-triggered fixed penalties. These are never calculated automatically
// but share the same application path into the wallet.
const (
	TypeWrongVehicle     Type = "wrong_vehicle_assigned"
	TypeWrongDriver      Type = "wrong_driver_assigned"
	TypeUncleanVehicle   Type = "vehicle_uncleanliness"
	TypePoorCondition    Type = "vehicle_poor_condition"
	TypeMisbehavior      Type = "driver_misbehavior"
	TypeMissedCompletion Type = "missing_in_app_completion"
)

type Status string

const (
	StatusActive Status = "active"
	StatusWaived Status = "waived"
	StatusPaid   Status = "paid"
)

// Descriptor is the pure output of the calculator.
type Descriptor struct {
	Type   Type
	Amount int64
	Reason string
}

type Record struct {
	ID        int64
	DriverID  types.ID
	Type      Type
	Amount    int64
	Reason    string
	BookingID *types.ID
	Status    Status
	AppliedBy types.ID
	CreatedAt time.Time
}
