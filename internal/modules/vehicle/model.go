// README: Vehicle entity and availability status definitions.
package vehicle

import (
	"time"

	"vahan/internal/modules/pricing"
	"vahan/internal/types"
)

type BookingStatus string

const (
	StatusAvailable   BookingStatus = "available"
	StatusBooked      BookingStatus = "booked"
	StatusInTrip      BookingStatus = "in_trip"
	StatusMaintenance BookingStatus = "under_maintenance"
	StatusOffline     BookingStatus = "offline"
)

type Vehicle struct {
	ID           types.ID
	DriverID     *types.ID
	Category     pricing.Category
	VehicleType  string
	Model        string
	SeatCount    int
	Status       BookingStatus
	// CurrentBookingID is non-nil exactly when Status is booked or in_trip.
	CurrentBookingID *types.ID
	StatusUpdatedAt  time.Time
}

// AllowedTransitions represents the availability state flow as code.
var AllowedTransitions = map[BookingStatus][]BookingStatus{
	StatusAvailable:   {StatusBooked, StatusMaintenance, StatusOffline},
	StatusBooked:      {StatusInTrip, StatusAvailable},
	StatusInTrip:      {StatusAvailable},
	StatusMaintenance: {StatusAvailable},
	StatusOffline:     {StatusAvailable},
}

func CanTransition(from, to BookingStatus) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Held reports whether a booking currently owns the vehicle. Driver-facing
// availability writes are rejected while this is true.
func (v *Vehicle) Held() bool {
	return v.Status == StatusBooked || v.Status == StatusInTrip
}
