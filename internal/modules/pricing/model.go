// README: Pricing tier definitions and fare quote shapes.
package pricing

type Category string

const (
	CategoryAuto Category = "auto"
	CategoryCar  Category = "car"
	CategoryBus  Category = "bus"
)

type TripType string

const (
	TripOneWay TripType = "one_way"
	TripReturn TripType = "return"
)

// bandEdges are the upper bounds (km) of the first five distance bands; the
// sixth band is everything beyond the last edge.
var bandEdges = [5]float64{50, 100, 150, 200, 250}

// TierRow is one pricing record for a (category, vehicle type, model, trip
// type) combination. Autos carry a single flat per-km rate; cars and buses
// carry six banded per-km rates (0-50, 50-100, 100-150, 150-200, 200-250,
// 250+).
type TierRow struct {
	Category     Category
	VehicleType  string
	VehicleModel string
	TripType     TripType
	FlatRate     int64
	BandRates    [6]int64
}

// Quote is the priced result handed to booking creation. Total = Base + GST.
type Quote struct {
	Base      int64
	GST       int64
	Total     int64
	RatePerKm int64
	TripType  TripType
}
