// README: Fare calculator; pure band math plus store-backed quoting.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"vahan/internal/types"
)

var (
	ErrNotFound    = errors.New("pricing not found")
	ErrBadDistance = errors.New("distance must be non-negative")
)

// Fare computes the base fare for a tier row over the given distance.
// Autos are flat-rate. Cars and buses charge each full band at that band's
// rate and the remainder of the final partial band at its rate, then round
// to the nearest rupee. Tax is not included here.
func Fare(row TierRow, distanceKm float64) (int64, error) {
	if distanceKm < 0 {
		return 0, ErrBadDistance
	}
	if row.Category == CategoryAuto {
		return int64(math.Round(float64(row.FlatRate) * distanceKm)), nil
	}

	var total float64
	prev := 0.0
	for i, edge := range bandEdges {
		if distanceKm <= prev {
			break
		}
		span := math.Min(distanceKm, edge) - prev
		total += span * float64(row.BandRates[i])
		prev = edge
	}
	if distanceKm > bandEdges[len(bandEdges)-1] {
		total += (distanceKm - bandEdges[len(bandEdges)-1]) * float64(row.BandRates[5])
	}
	return int64(math.Round(total)), nil
}

// GST is a fixed surcharge on the base fare, never folded into tier rates.
func GST(base, pct int64) int64 {
	return types.RoundPercent(base, pct)
}

type Config struct {
	GSTPercent int64
	// AllowOneWayFallback lets a return-trip quote fall back to the one-way
	// tier when no return tier is configured. Off by default; this is an
	// admin policy decision, not a pricing guess the code makes on its own.
	AllowOneWayFallback bool
}

type Store interface {
	GetTier(ctx context.Context, category Category, vehicleType, vehicleModel string, tripType TripType) (TierRow, error)
}

type Service struct {
	store Store
	cfg   Config
}

func NewService(store Store, cfg Config) *Service {
	if cfg.GSTPercent == 0 {
		cfg.GSTPercent = 5
	}
	return &Service{store: store, cfg: cfg}
}

// Quote resolves the tier row and prices the trip. A missing tier fails
// closed with ErrNotFound; no fallback rate is ever substituted silently.
func (s *Service) Quote(ctx context.Context, category Category, vehicleType, vehicleModel string, tripType TripType, distanceKm float64) (Quote, error) {
	row, err := s.store.GetTier(ctx, category, vehicleType, vehicleModel, tripType)
	if errors.Is(err, ErrNotFound) && tripType == TripReturn && s.cfg.AllowOneWayFallback {
		row, err = s.store.GetTier(ctx, category, vehicleType, vehicleModel, TripOneWay)
	}
	if err != nil {
		return Quote{}, err
	}

	base, err := Fare(row, distanceKm)
	if err != nil {
		return Quote{}, fmt.Errorf("fare for %s/%s: %w", category, vehicleModel, err)
	}
	gst := GST(base, s.cfg.GSTPercent)

	rate := row.FlatRate
	if row.Category != CategoryAuto {
		rate = rateForDistance(row, distanceKm)
	}
	return Quote{
		Base:      base,
		GST:       gst,
		Total:     base + gst,
		RatePerKm: rate,
		TripType:  tripType,
	}, nil
}

// rateForDistance reports the marginal band rate at the trip's total
// distance, kept on the booking as the pricing snapshot's per-km rate.
func rateForDistance(row TierRow, distanceKm float64) int64 {
	for i, edge := range bandEdges {
		if distanceKm <= edge {
			return row.BandRates[i]
		}
	}
	return row.BandRates[5]
}
