// README: Road distance estimation via Google Maps, with a straight-line
// fallback when the API is unreachable.
package maps

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"googlemaps.github.io/maps"

	"vahan/internal/types"
)

const earthRadiusKm = 6371.0

// averageSpeedKmh drives the fallback duration estimate on intercity roads.
const averageSpeedKmh = 45.0

// DistanceService estimates road distance and duration between two points.
// When the Maps API fails, it degrades to a haversine estimate scaled by a
// road factor instead of failing the booking.
type DistanceService struct {
	client     *maps.Client
	roadFactor float64
	log        *slog.Logger
}

// NewDistanceService creates a DistanceService with the given API key. An
// empty key yields a service that always uses the fallback estimate.
func NewDistanceService(apiKey string, roadFactor float64, log *slog.Logger) (*DistanceService, error) {
	if log == nil {
		log = slog.Default()
	}
	if roadFactor <= 0 {
		roadFactor = 1.4
	}
	s := &DistanceService{roadFactor: roadFactor, log: log}
	if apiKey == "" {
		log.Warn("maps api key not set, using straight-line distance estimates")
		return s, nil
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	s.client = client
	return s, nil
}

// Estimate returns road distance in kilometers and trip duration. degraded is
// true when the value came from the straight-line fallback rather than the
// Maps API.
func (s *DistanceService) Estimate(ctx context.Context, pickup, destination types.Point) (float64, time.Duration, bool, error) {
	if s.client != nil {
		km, duration, err := s.matrix(ctx, pickup, destination)
		if err == nil {
			return km, duration, false, nil
		}
		s.log.Warn("distance matrix failed, falling back to straight-line estimate", "err", err)
	}
	km, duration := s.fallback(pickup, destination)
	return km, duration, true, nil
}

func (s *DistanceService) matrix(ctx context.Context, pickup, destination types.Point) (float64, time.Duration, error) {
	r := &maps.DistanceMatrixRequest{
		Origins:      []string{fmt.Sprintf("%f,%f", pickup.Lat, pickup.Lng)},
		Destinations: []string{fmt.Sprintf("%f,%f", destination.Lat, destination.Lng)},
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsMetric,
	}
	resp, err := s.client.DistanceMatrix(ctx, r)
	if err != nil {
		return 0, 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, 0, fmt.Errorf("no route found")
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return 0, 0, fmt.Errorf("no route found: %s", el.Status)
	}
	return float64(el.Distance.Meters) / 1000.0, el.Duration, nil
}

func (s *DistanceService) fallback(pickup, destination types.Point) (float64, time.Duration) {
	km := Haversine(pickup, destination) * s.roadFactor
	duration := time.Duration(km / averageSpeedKmh * float64(time.Hour))
	return km, duration
}

// Haversine returns the great-circle distance between two points in
// kilometers.
func Haversine(a, b types.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
