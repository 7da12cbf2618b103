// README: Vehicle availability state machine; the booking engine is the only caller
// that may hold or release a vehicle.
package vehicle

import (
	"context"
	"errors"
	"log/slog"

	"vahan/internal/types"
)

var (
	ErrNotFound    = errors.New("vehicle not found")
	ErrUnavailable = errors.New("vehicle unavailable")
	ErrHeld        = errors.New("vehicle held by an active booking")
)

type Store interface {
	Get(ctx context.Context, id types.ID) (*Vehicle, error)
	GetByDriver(ctx context.Context, driverID types.ID) (*Vehicle, error)
	CompareAndSetStatus(ctx context.Context, id types.ID, from, to BookingStatus, bookingID *types.ID) (bool, error)
}

type Service struct {
	store Store
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Vehicle, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetByDriver(ctx context.Context, driverID types.ID) (*Vehicle, error) {
	return s.store.GetByDriver(ctx, driverID)
}

// Hold claims the vehicle for a booking. First writer wins; a concurrent
// claim loses the compare-and-set and gets ErrUnavailable, never a blind
// overwrite.
func (s *Service) Hold(ctx context.Context, id, bookingID types.ID) error {
	ok, err := s.store.CompareAndSetStatus(ctx, id, StatusAvailable, StatusBooked, &bookingID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnavailable
	}
	return nil
}

// StartTrip moves a held vehicle into in_trip, keeping the booking reference.
func (s *Service) StartTrip(ctx context.Context, id, bookingID types.ID) error {
	ok, err := s.store.CompareAndSetStatus(ctx, id, StatusBooked, StatusInTrip, &bookingID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnavailable
	}
	return nil
}

// Release returns the vehicle to available at the end of a booking, from
// either booked or in_trip. Releasing an already-available vehicle is a
// no-op so completion and cancellation stay idempotent.
func (s *Service) Release(ctx context.Context, id types.ID) error {
	for _, from := range []BookingStatus{StatusBooked, StatusInTrip} {
		ok, err := s.store.CompareAndSetStatus(ctx, id, from, StatusAvailable, nil)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return nil
}

// SetOffline takes an idle vehicle offline (the wallet-floor rule and
// driver-requested downtime both land here). A vehicle held by an active
// booking cannot be taken offline.
func (s *Service) SetOffline(ctx context.Context, id types.ID) error {
	v, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if v.Held() {
		return ErrHeld
	}
	ok, err := s.store.CompareAndSetStatus(ctx, id, v.Status, StatusOffline, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnavailable
	}
	return nil
}

// SetMaintenance parks an available vehicle for servicing.
func (s *Service) SetMaintenance(ctx context.Context, id types.ID) error {
	ok, err := s.store.CompareAndSetStatus(ctx, id, StatusAvailable, StatusMaintenance, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnavailable
	}
	return nil
}

// SetAvailable brings a vehicle back from offline or maintenance.
func (s *Service) SetAvailable(ctx context.Context, id types.ID) error {
	v, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if v.Held() {
		return ErrHeld
	}
	if v.Status == StatusAvailable {
		return nil
	}
	ok, err := s.store.CompareAndSetStatus(ctx, id, v.Status, StatusAvailable, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnavailable
	}
	return nil
}
