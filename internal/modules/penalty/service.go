// README: Cancellation penalty calculator and application path.
package penalty

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vahan/internal/types"
)

var ErrNotFound = errors.New("penalty not found")

const acceptanceGrace = 30 * time.Minute

// Calculate is a pure function of the three timestamps. The bands use two
// different anchors: the 30-minute rule measures time since acceptance, the
// hour rules measure time to scheduled departure. When both apply, the
// acceptance-anchored rule wins: it exists to punish a quick flip-flop right
// after accepting, and is evaluated first regardless of how close departure
// is.
func Calculate(acceptedAt, scheduledDeparture, cancelledAt time.Time) Descriptor {
	if !acceptedAt.IsZero() && cancelledAt.Sub(acceptedAt) <= acceptanceGrace {
		return Descriptor{
			Type:   Type30MinAfterAcceptance,
			Amount: 100,
			Reason: "cancelled within 30 minutes of acceptance",
		}
	}
	until := scheduledDeparture.Sub(cancelledAt)
	switch {
	case until <= 3*time.Hour:
		return Descriptor{Type: Type3HWithin, Amount: 500, Reason: "cancelled within 3 hours of departure"}
	case until <= 12*time.Hour:
		return Descriptor{Type: Type12HWithin, Amount: 300, Reason: "cancelled within 12 hours of departure"}
	default:
		return Descriptor{Type: Type12HBefore, Amount: 300, Reason: "cancelled more than 12 hours before departure"}
	}
}

type Store interface {
	Create(ctx context.Context, r *Record) error
	ListByDriver(ctx context.Context, driverID types.ID) ([]Record, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

type Wallets interface {
	Debit(ctx context.Context, driverID types.ID, amount int64, description string, bookingID *types.ID) (bool, error)
}

type Service struct {
	store   Store
	wallets Wallets
	log     *slog.Logger
}

func NewService(store Store, wallets Wallets, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, wallets: wallets, log: log}
}

// ApplyCancellation records the calculated penalty and debits the wallet.
// The debit failing (typically an empty wallet) leaves the record active for
// later collection and is reported as a warning, never as an error: penalty
// application must not block the cancellation that triggered it.
func (s *Service) ApplyCancellation(ctx context.Context, driverID, bookingID, appliedBy types.ID, acceptedAt, departure, cancelledAt time.Time) (Descriptor, string, error) {
	d := Calculate(acceptedAt, departure, cancelledAt)
	return d, s.apply(ctx, d, driverID, &bookingID, appliedBy), nil
}

// ApplyFixed posts one of the admin-triggered fixed penalties.
func (s *Service) ApplyFixed(ctx context.Context, d Descriptor, driverID types.ID, bookingID *types.ID, appliedBy types.ID) (string, error) {
	return s.apply(ctx, d, driverID, bookingID, appliedBy), nil
}

func (s *Service) apply(ctx context.Context, d Descriptor, driverID types.ID, bookingID *types.ID, appliedBy types.ID) (warning string) {
	rec := &Record{
		DriverID:  driverID,
		Type:      d.Type,
		Amount:    d.Amount,
		Reason:    d.Reason,
		BookingID: bookingID,
		Status:    StatusActive,
		AppliedBy: appliedBy,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		s.log.Error("penalty record create failed", "driver_id", driverID, "type", d.Type, "err", err)
		return "penalty could not be recorded"
	}
	if _, err := s.wallets.Debit(ctx, driverID, d.Amount, "penalty: "+string(d.Type), bookingID); err != nil {
		s.log.Warn("penalty debit failed, record stays active", "driver_id", driverID, "amount", d.Amount, "err", err)
		return "penalty recorded but wallet debit failed"
	}
	if err := s.store.UpdateStatus(ctx, rec.ID, StatusPaid); err != nil {
		s.log.Error("penalty status update failed", "penalty_id", rec.ID, "err", err)
	}
	return ""
}

// Waive marks a penalty waived (admin action).
func (s *Service) Waive(ctx context.Context, id int64) error {
	return s.store.UpdateStatus(ctx, id, StatusWaived)
}

func (s *Service) ListByDriver(ctx context.Context, driverID types.ID) ([]Record, error) {
	return s.store.ListByDriver(ctx, driverID)
}
