// README: Pricing tier store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) GetTier(ctx context.Context, category Category, vehicleType, vehicleModel string, tripType TripType) (TierRow, error) {
	row := s.db.QueryRow(ctx, `
		SELECT category, vehicle_type, vehicle_model, trip_type,
		       flat_rate, rate_50, rate_100, rate_150, rate_200, rate_250, rate_300
		FROM pricing_tiers
		WHERE category = $1 AND vehicle_type = $2 AND vehicle_model = $3 AND trip_type = $4`,
		string(category), vehicleType, vehicleModel, string(tripType),
	)

	var t TierRow
	err := row.Scan(
		&t.Category, &t.VehicleType, &t.VehicleModel, &t.TripType,
		&t.FlatRate,
		&t.BandRates[0], &t.BandRates[1], &t.BandRates[2],
		&t.BandRates[3], &t.BandRates[4], &t.BandRates[5],
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return TierRow{}, ErrNotFound
	}
	if err != nil {
		return TierRow{}, err
	}
	return t, nil
}
