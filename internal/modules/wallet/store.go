// README: Wallet store backed by PostgreSQL. Every balance change appends a
// ledger row and updates the balance inside one transaction.
package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vahan/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// Apply posts one entry and returns the post-entry balance. Debits are
// guarded by the current balance in the UPDATE itself, so concurrent debits
// can never take the wallet negative or lose an update.
func (s *PGStore) Apply(ctx context.Context, e Entry) (int64, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	delta := e.Amount
	if e.Type == EntryDebit {
		delta = -e.Amount
	}

	var balance int64
	row := tx.QueryRow(ctx, `
		UPDATE wallets
		SET balance = balance + $1
		WHERE driver_id = $2 AND balance + $1 >= 0
		RETURNING balance`,
		delta, string(e.DriverID),
	)
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the wallet does not exist or the debit exceeds the balance.
			exists, eerr := s.exists(ctx, tx, e.DriverID)
			if eerr != nil {
				return 0, eerr
			}
			if !exists {
				return 0, ErrNotFound
			}
			return 0, ErrInsufficientBalance
		}
		return 0, err
	}

	var bookingID *string
	if e.BookingID != nil {
		v := string(*e.BookingID)
		bookingID = &v
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO wallet_entries (driver_id, entry_type, amount, description, booking_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		string(e.DriverID), string(e.Type), e.Amount, e.Description, bookingID,
	); err != nil {
		return 0, fmt.Errorf("append wallet entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *PGStore) exists(ctx context.Context, tx pgx.Tx, driverID types.ID) (bool, error) {
	var ok bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM wallets WHERE driver_id = $1)`, string(driverID),
	).Scan(&ok)
	return ok, err
}

func (s *PGStore) Get(ctx context.Context, driverID types.ID) (*Wallet, error) {
	var w Wallet
	w.DriverID = driverID
	err := s.db.QueryRow(ctx, `
		SELECT balance FROM wallets WHERE driver_id = $1`, string(driverID),
	).Scan(&w.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, entry_type, amount, description, booking_id, created_at
		FROM wallet_entries
		WHERE driver_id = $1
		ORDER BY id`, string(driverID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		e := Entry{DriverID: driverID}
		var bookingID sql.NullString
		if err := rows.Scan(&e.ID, &e.Type, &e.Amount, &e.Description, &bookingID, &e.CreatedAt); err != nil {
			return nil, err
		}
		if bookingID.Valid {
			b := types.ID(bookingID.String)
			e.BookingID = &b
		}
		w.Entries = append(w.Entries, e)
	}
	return &w, rows.Err()
}

func (s *PGStore) CreditHouse(ctx context.Context, h HouseEntry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO house_ledger (amount, description, booking_id, driver_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		h.Amount, h.Description, string(h.BookingID), string(h.DriverID),
	)
	return err
}

// ListHouse returns the newest house ledger rows, most recent first.
func (s *PGStore) ListHouse(ctx context.Context, limit int) ([]HouseEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, amount, description, booking_id, driver_id, created_at
		FROM house_ledger
		ORDER BY id DESC
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HouseEntry
	for rows.Next() {
		var h HouseEntry
		if err := rows.Scan(&h.ID, &h.Amount, &h.Description, &h.BookingID, &h.DriverID, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
