// README: Wallet service; credit/debit with the low-balance floor check.
package wallet

import (
	"context"
	"errors"
	"log/slog"

	"vahan/internal/types"
)

var (
	ErrNotFound            = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrBadAmount           = errors.New("amount must be positive")
)

type Store interface {
	Apply(ctx context.Context, e Entry) (int64, error)
	Get(ctx context.Context, driverID types.ID) (*Wallet, error)
	CreditHouse(ctx context.Context, h HouseEntry) error
	ListHouse(ctx context.Context, limit int) ([]HouseEntry, error)
}

type Service struct {
	store Store
	floor int64
	log   *slog.Logger
}

// NewService builds a wallet service with the auto-offline floor (currency
// units). A zero floor disables the below-floor signal.
func NewService(store Store, floor int64, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, floor: floor, log: log}
}

func (s *Service) Credit(ctx context.Context, driverID types.ID, amount int64, description string, bookingID *types.ID) error {
	if amount <= 0 {
		return ErrBadAmount
	}
	_, err := s.store.Apply(ctx, Entry{
		DriverID:    driverID,
		Type:        EntryCredit,
		Amount:      amount,
		Description: description,
		BookingID:   bookingID,
	})
	return err
}

// Debit posts a debit and reports whether the wallet ended up below the
// auto-offline floor so the caller can take the driver offline.
func (s *Service) Debit(ctx context.Context, driverID types.ID, amount int64, description string, bookingID *types.ID) (belowFloor bool, err error) {
	if amount <= 0 {
		return false, ErrBadAmount
	}
	balance, err := s.store.Apply(ctx, Entry{
		DriverID:    driverID,
		Type:        EntryDebit,
		Amount:      amount,
		Description: description,
		BookingID:   bookingID,
	})
	if err != nil {
		return false, err
	}
	return s.floor > 0 && balance < s.floor, nil
}

func (s *Service) Get(ctx context.Context, driverID types.ID) (*Wallet, error) {
	return s.store.Get(ctx, driverID)
}

// HouseLedger lists recent platform revenue rows for the admin view.
func (s *Service) HouseLedger(ctx context.Context, limit int) ([]HouseEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListHouse(ctx, limit)
}

// SettleCommission debits the driver and mirrors the amount into the house
// revenue ledger. The house credit failing after a successful debit is
// logged for reconciliation rather than unwound; the ledger row can be
// replayed from the wallet entry.
func (s *Service) SettleCommission(ctx context.Context, driverID, bookingID types.ID, amount int64) (belowFloor bool, err error) {
	belowFloor, err = s.Debit(ctx, driverID, amount, "trip commission", &bookingID)
	if err != nil {
		return false, err
	}
	if herr := s.store.CreditHouse(ctx, HouseEntry{
		Amount:      amount,
		Description: "trip commission",
		BookingID:   bookingID,
		DriverID:    driverID,
	}); herr != nil {
		s.log.Error("house ledger credit failed", "booking_id", bookingID, "driver_id", driverID, "err", herr)
	}
	return belowFloor, nil
}
