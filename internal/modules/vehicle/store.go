// README: Vehicle store backed by PostgreSQL; holds use compare-and-set on status.
package vehicle

import (
	"context"
	"database/sql"
	"errors"

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

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, driver_id, category, vehicle_type, model, seat_count,
		       booking_status, current_booking_id, status_updated_at
		FROM vehicles
		WHERE id = $1`, string(id),
	)

	var v Vehicle
	var driverID, bookingID sql.NullString
	err := row.Scan(
		&v.ID, &driverID, &v.Category, &v.VehicleType, &v.Model, &v.SeatCount,
		&v.Status, &bookingID, &v.StatusUpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if driverID.Valid {
		d := types.ID(driverID.String)
		v.DriverID = &d
	}
	if bookingID.Valid {
		b := types.ID(bookingID.String)
		v.CurrentBookingID = &b
	}
	return &v, nil
}

// CompareAndSetStatus moves the vehicle from one status to another, setting
// (or clearing) the current booking reference in the same statement so the
// "reference non-null iff booked/in_trip" invariant can never be observed
// half-applied. Returns false when another writer got there first.
func (s *PGStore) CompareAndSetStatus(ctx context.Context, id types.ID, from, to BookingStatus, bookingID *types.ID) (bool, error) {
	var b *string
	if bookingID != nil {
		v := string(*bookingID)
		b = &v
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE vehicles
		SET booking_status = $1,
		    current_booking_id = $2,
		    status_updated_at = NOW()
		WHERE id = $3 AND booking_status = $4`,
		string(to), b, string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) GetByDriver(ctx context.Context, driverID types.ID) (*Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id FROM vehicles WHERE driver_id = $1`, string(driverID),
	)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Get(ctx, types.ID(id))
}
