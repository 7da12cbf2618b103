// README: In-memory test doubles for the booking service dependencies.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vahan/internal/modules/payment"
	"vahan/internal/modules/penalty"
	"vahan/internal/modules/pricing"
	"vahan/internal/modules/vehicle"
	"vahan/internal/types"
)

// memStore implements Store with the same compare-and-set contract as the
// Postgres store.
type memStore struct {
	mu       sync.Mutex
	bookings map[types.ID]*Booking
	events   []Event
	nextID   int64
	stats    map[types.ID]int // trips per driver
}

func newMemStore() *memStore {
	return &memStore{bookings: map[types.ID]*Booking{}, stats: map[types.ID]int{}}
}

func deepCopy(b *Booking) *Booking {
	cp := *b
	if b.Payment.Online != nil {
		o := *b.Payment.Online
		cp.Payment.Online = &o
	}
	if b.Payment.Cash != nil {
		c := *b.Payment.Cash
		cp.Payment.Cash = &c
	}
	if b.Cancellation != nil {
		c := *b.Cancellation
		cp.Cancellation = &c
	}
	return &cp
}

func (m *memStore) Create(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = deepCopy(b)
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return deepCopy(b), nil
}

func (m *memStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return false, ErrNotFound
	}
	if b.Status != from || b.StatusVersion != version {
		return false, nil
	}
	now := time.Now()
	b.Status = to
	b.StatusVersion++
	switch to {
	case StatusAccepted:
		if b.AcceptedAt == nil {
			b.AcceptedAt = &now
		}
	case StatusStarted:
		b.StartedAt = &now
	case StatusCompleted:
		b.CompletedAt = &now
	case StatusCancelled:
		b.CancelledAt = &now
	}
	return true, nil
}

func (m *memStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = m.nextID
	m.events = append(m.events, *e)
	return nil
}

func (m *memStore) History(_ context.Context, id types.ID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.BookingID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) UpdatePayment(_ context.Context, id types.ID, plan *payment.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	cp := deepCopy(&Booking{Payment: *plan})
	b.Payment = cp.Payment
	return nil
}

func (m *memStore) UpdateCancellation(_ context.Context, id types.ID, c *Cancellation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	cc := *c
	b.Cancellation = &cc
	return nil
}

func (m *memStore) CountCompletedByCustomer(_ context.Context, customerID types.ID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		if b.CustomerID == customerID && b.Status == StatusCompleted {
			n++
		}
	}
	return n, nil
}

func (m *memStore) HasActiveOverlap(_ context.Context, vehicleID types.ID, departure time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.VehicleID == vehicleID && !b.Status.Terminal() &&
			b.Trip.DepartureAt.Format("2006-01-02") == departure.Format("2006-01-02") {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) AccumulateDriverStats(_ context.Context, driverID types.ID, _ float64, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[driverID]++
	return nil
}

// fakeVehicles mirrors the vehicle service's CAS semantics.
type fakeVehicles struct {
	mu       sync.Mutex
	vehicles map[types.ID]*vehicle.Vehicle
	offline  []types.ID
}

func newFakeVehicles(vs ...*vehicle.Vehicle) *fakeVehicles {
	f := &fakeVehicles{vehicles: map[types.ID]*vehicle.Vehicle{}}
	for _, v := range vs {
		f.vehicles[v.ID] = v
	}
	return f
}

func (f *fakeVehicles) Get(_ context.Context, id types.ID) (*vehicle.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return nil, vehicle.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVehicles) Hold(_ context.Context, id, bookingID types.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return vehicle.ErrNotFound
	}
	if v.Status != vehicle.StatusAvailable {
		return vehicle.ErrUnavailable
	}
	v.Status = vehicle.StatusBooked
	v.CurrentBookingID = &bookingID
	return nil
}

func (f *fakeVehicles) StartTrip(_ context.Context, id, bookingID types.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.vehicles[id]
	if v == nil || v.Status != vehicle.StatusBooked {
		return vehicle.ErrUnavailable
	}
	v.Status = vehicle.StatusInTrip
	v.CurrentBookingID = &bookingID
	return nil
}

func (f *fakeVehicles) Release(_ context.Context, id types.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.vehicles[id]
	if v == nil {
		return vehicle.ErrNotFound
	}
	if v.Status == vehicle.StatusBooked || v.Status == vehicle.StatusInTrip {
		v.Status = vehicle.StatusAvailable
		v.CurrentBookingID = nil
	}
	return nil
}

func (f *fakeVehicles) SetOffline(_ context.Context, id types.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.vehicles[id]
	if v == nil {
		return vehicle.ErrNotFound
	}
	v.Status = vehicle.StatusOffline
	v.CurrentBookingID = nil
	f.offline = append(f.offline, id)
	return nil
}

type fakePricer struct {
	err error
}

func (f *fakePricer) Quote(_ context.Context, _ pricing.Category, _, _ string, tripType pricing.TripType, distanceKm float64) (pricing.Quote, error) {
	if f.err != nil {
		return pricing.Quote{}, f.err
	}
	base := int64(distanceKm * 10)
	gst := types.RoundPercent(base, 5)
	return pricing.Quote{Base: base, GST: gst, Total: base + gst, RatePerKm: 10, TripType: tripType}, nil
}

type creditCall struct {
	driverID types.ID
	amount   int64
	desc     string
}

type fakeWallets struct {
	mu          sync.Mutex
	credits     []creditCall
	commissions []creditCall
	settleErr   error
	belowFloor  bool
}

func (f *fakeWallets) Credit(_ context.Context, driverID types.ID, amount int64, description string, _ *types.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credits = append(f.credits, creditCall{driverID, amount, description})
	return nil
}

func (f *fakeWallets) SettleCommission(_ context.Context, driverID, _ types.ID, amount int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settleErr != nil {
		return false, f.settleErr
	}
	f.commissions = append(f.commissions, creditCall{driverID: driverID, amount: amount})
	return f.belowFloor, nil
}

type fakePenalties struct {
	mu      sync.Mutex
	applied []penalty.Descriptor
	warning string
	err     error
}

func (f *fakePenalties) ApplyCancellation(_ context.Context, _, _, _ types.ID, acceptedAt, departure, cancelledAt time.Time) (penalty.Descriptor, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return penalty.Descriptor{}, "", f.err
	}
	d := penalty.Calculate(acceptedAt, departure, cancelledAt)
	f.applied = append(f.applied, d)
	return d, f.warning, nil
}

type fakeDistance struct {
	km       float64
	degraded bool
	err      error
}

func (f *fakeDistance) Estimate(_ context.Context, _, _ types.Point) (float64, time.Duration, bool, error) {
	if f.err != nil {
		return 0, 0, false, f.err
	}
	return f.km, 45 * time.Minute, f.degraded, nil
}

type referral struct {
	referrer types.ID
	active   bool
}

type fakeCustomers struct {
	referrals map[types.ID]referral
}

func (f *fakeCustomers) Referral(_ context.Context, customerID types.ID) (*types.ID, bool, error) {
	r, ok := f.referrals[customerID]
	if !ok {
		return nil, false, nil
	}
	d := r.referrer
	return &d, r.active, nil
}

type fakeGateway struct {
	mu         sync.Mutex
	orders     int
	refunds    int
	createErr  error
	refundErr  error
	rejectSigs bool
}

func (f *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (payment.GatewayOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return payment.GatewayOrder{}, f.createErr
	}
	f.orders++
	return payment.GatewayOrder{ID: fmt.Sprintf("order_%d", f.orders), Amount: amount, Currency: currency, Receipt: receipt}, nil
}

func (f *fakeGateway) VerifySignature(_, _, signature string) bool {
	return !f.rejectSigs && signature != ""
}

func (f *fakeGateway) GetPaymentDetails(_ context.Context, paymentID string) (payment.PaymentDetails, error) {
	return payment.PaymentDetails{ID: paymentID, Status: "captured"}, nil
}

func (f *fakeGateway) Refund(_ context.Context, paymentID string, amount int64, _ string) (payment.RefundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refundErr != nil {
		return payment.RefundResult{}, f.refundErr
	}
	f.refunds++
	return payment.RefundResult{ID: fmt.Sprintf("rfnd_%d", f.refunds), PaymentID: paymentID, Amount: amount, Status: "processed"}, nil
}

type fakeNotifier struct {
	mu                            sync.Mutex
	confirmed, cancelled, settled int
}

func (f *fakeNotifier) BookingConfirmed(_ context.Context, _ *Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed++
}

func (f *fakeNotifier) BookingCancelled(_ context.Context, _ *Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled++
}

func (f *fakeNotifier) SettlementCompleted(_ context.Context, _ *Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settled++
}

type fakeNumbers struct {
	mu sync.Mutex
	n  int
}

func (f *fakeNumbers) Next(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return fmt.Sprintf("VH-20260314-%04d", f.n), nil
}

var errBoom = errors.New("boom")
