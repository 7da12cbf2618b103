// README: Booking store backed by PostgreSQL. Status moves through a
// status_version compare-and-set; history is an append-only event table.
package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vahan/internal/modules/payment"
	"vahan/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, b *Booking) error {
	planJSON, err := json.Marshal(b.Payment)
	if err != nil {
		return fmt.Errorf("marshal payment plan: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, booking_number, customer_id, driver_id, vehicle_id,
			pickup_lat, pickup_lng, pickup_address,
			dest_lat, dest_lng, dest_address,
			departure_at, return_at, passenger_count, distance_km, duration_secs, trip_type,
			rate_per_km, base_amount, gst_amount, total_amount,
			payment, status, status_version, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11,
			$12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21,
			$22, $23, $24, $25
		)`,
		string(b.ID), b.Number, string(b.CustomerID), string(b.DriverID), string(b.VehicleID),
		b.Trip.Pickup.Lat, b.Trip.Pickup.Lng, b.Trip.PickupAddress,
		b.Trip.Destination.Lat, b.Trip.Destination.Lng, b.Trip.DestinationAddress,
		b.Trip.DepartureAt, b.Trip.ReturnAt, b.Trip.PassengerCount, b.Trip.DistanceKm,
		int64(b.Trip.Duration/time.Second), string(b.Trip.TripType),
		b.Pricing.RatePerKm, b.Pricing.BaseAmount, b.Pricing.GSTAmount, b.Pricing.TotalAmount,
		planJSON, string(b.Status), b.StatusVersion, b.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, booking_number, customer_id, driver_id, vehicle_id,
		       pickup_lat, pickup_lng, pickup_address,
		       dest_lat, dest_lng, dest_address,
		       departure_at, return_at, passenger_count, distance_km, duration_secs, trip_type,
		       rate_per_km, base_amount, gst_amount, total_amount,
		       payment, status, status_version, cancellation,
		       created_at, accepted_at, started_at, completed_at, cancelled_at
		FROM bookings
		WHERE id = $1`, string(id),
	)

	var b Booking
	var returnAt, acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime
	var durationSecs int64
	var planJSON []byte
	var cancelJSON []byte

	err := row.Scan(
		&b.ID, &b.Number, &b.CustomerID, &b.DriverID, &b.VehicleID,
		&b.Trip.Pickup.Lat, &b.Trip.Pickup.Lng, &b.Trip.PickupAddress,
		&b.Trip.Destination.Lat, &b.Trip.Destination.Lng, &b.Trip.DestinationAddress,
		&b.Trip.DepartureAt, &returnAt, &b.Trip.PassengerCount, &b.Trip.DistanceKm, &durationSecs, &b.Trip.TripType,
		&b.Pricing.RatePerKm, &b.Pricing.BaseAmount, &b.Pricing.GSTAmount, &b.Pricing.TotalAmount,
		&planJSON, &b.Status, &b.StatusVersion, &cancelJSON,
		&b.CreatedAt, &acceptedAt, &startedAt, &completedAt, &cancelledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	b.Trip.Duration = time.Duration(durationSecs) * time.Second
	b.Pricing.TripType = b.Trip.TripType
	if err := json.Unmarshal(planJSON, &b.Payment); err != nil {
		return nil, fmt.Errorf("unmarshal payment plan: %w", err)
	}
	if len(cancelJSON) > 0 {
		var c Cancellation
		if err := json.Unmarshal(cancelJSON, &c); err != nil {
			return nil, fmt.Errorf("unmarshal cancellation: %w", err)
		}
		b.Cancellation = &c
	}
	b.Trip.ReturnAt = toTimePtr(returnAt)
	b.AcceptedAt = toTimePtr(acceptedAt)
	b.StartedAt = toTimePtr(startedAt)
	b.CompletedAt = toTimePtr(completedAt)
	b.CancelledAt = toTimePtr(cancelledAt)
	return &b, nil
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    accepted_at = CASE WHEN $1 = 'accepted' AND accepted_at IS NULL THEN NOW() ELSE accepted_at END,
		    started_at = CASE WHEN $1 = 'started' THEN NOW() ELSE started_at END,
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
		WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to), string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_status_events (
			booking_id, from_status, to_status, actor_id, actor_kind, reason, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(e.BookingID), string(e.From), string(e.To),
		string(e.Actor.ID), string(e.Actor.Kind), e.Reason, e.Notes, e.CreatedAt,
	)
	return err
}

func (s *PGStore) History(ctx context.Context, id types.ID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, from_status, to_status, actor_id, actor_kind, reason, notes, created_at
		FROM booking_status_events
		WHERE booking_id = $1
		ORDER BY id`, string(id),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e := Event{BookingID: id}
		if err := rows.Scan(&e.ID, &e.From, &e.To, &e.Actor.ID, &e.Actor.Kind, &e.Reason, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdatePayment(ctx context.Context, id types.ID, plan *payment.Plan) error {
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal payment plan: %w", err)
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings SET payment = $1 WHERE id = $2`, planJSON, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) UpdateCancellation(ctx context.Context, id types.ID, c *Cancellation) error {
	cancelJSON, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cancellation: %w", err)
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings SET cancellation = $1 WHERE id = $2`, cancelJSON, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) CountCompletedByCustomer(ctx context.Context, customerID types.ID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE customer_id = $1 AND status = 'completed'`, string(customerID),
	).Scan(&n)
	return n, err
}

// HasActiveOverlap reports whether a non-terminal booking already claims the
// vehicle for the same travel day.
func (s *PGStore) HasActiveOverlap(ctx context.Context, vehicleID types.ID, departure time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE vehicle_id = $1
			  AND status IN ('pending','accepted','started','cancellation_requested')
			  AND departure_at::date = $2::date
		)`, string(vehicleID), departure,
	).Scan(&exists)
	return exists, err
}

func (s *PGStore) AccumulateDriverStats(ctx context.Context, driverID types.ID, distanceKm float64, fare int64) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO driver_stats (driver_id, total_distance_km, total_fare, trip_count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (driver_id) DO UPDATE
		SET total_distance_km = driver_stats.total_distance_km + $2,
		    total_fare = driver_stats.total_fare + $3,
		    trip_count = driver_stats.trip_count + 1`,
		string(driverID), distanceKm, fare,
	)
	return err
}

// Referral implements the Customers dependency from the customers table.
func (s *PGStore) Referral(ctx context.Context, customerID types.ID) (*types.ID, bool, error) {
	var referredBy sql.NullString
	var status sql.NullString
	err := s.db.QueryRow(ctx, `
		SELECT referred_by, referral_status FROM customers WHERE id = $1`, string(customerID),
	).Scan(&referredBy, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !referredBy.Valid {
		return nil, false, nil
	}
	d := types.ID(referredBy.String)
	return &d, status.Valid && status.String == "active", nil
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
