// README: Penalty record store backed by PostgreSQL.
package penalty

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	"vahan/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, r *Record) error {
	var bookingID *string
	if r.BookingID != nil {
		v := string(*r.BookingID)
		bookingID = &v
	}
	return s.db.QueryRow(ctx, `
		INSERT INTO penalties (driver_id, penalty_type, amount, reason, booking_id, status, applied_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id`,
		string(r.DriverID), string(r.Type), r.Amount, r.Reason, bookingID, string(r.Status), string(r.AppliedBy),
	).Scan(&r.ID)
}

func (s *PGStore) ListByDriver(ctx context.Context, driverID types.ID) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, penalty_type, amount, reason, booking_id, status, applied_by, created_at
		FROM penalties
		WHERE driver_id = $1
		ORDER BY id`, string(driverID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r := Record{DriverID: driverID}
		var bookingID sql.NullString
		if err := rows.Scan(&r.ID, &r.Type, &r.Amount, &r.Reason, &bookingID, &r.Status, &r.AppliedBy, &r.CreatedAt); err != nil {
			return nil, err
		}
		if bookingID.Valid {
			b := types.ID(bookingID.String)
			r.BookingID = &b
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE penalties SET status = $1 WHERE id = $2`, string(status), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
