// README: Booking state machine; orchestrates vehicle holds, settlement,
// penalties and refunds around the status transitions.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vahan/internal/modules/payment"
	"vahan/internal/modules/penalty"
	"vahan/internal/modules/pricing"
	"vahan/internal/modules/vehicle"
	"vahan/internal/types"
)

var (
	ErrNotFound           = errors.New("booking not found")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrConflict           = errors.New("booking state conflict")
	ErrVehicleUnavailable = errors.New("vehicle unavailable")
	ErrNoDriver           = errors.New("vehicle has no assigned driver")
	ErrPaymentMismatch    = payment.ErrMismatch
	ErrNoRefundDue        = errors.New("no refund due")
	ErrRefundState        = errors.New("invalid refund state")
)

// Store is the booking persistence boundary. The Postgres implementation
// uses a status_version compare-and-set so concurrent transitions on one
// booking serialize as first-writer-wins.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	History(ctx context.Context, id types.ID) ([]Event, error)
	UpdatePayment(ctx context.Context, id types.ID, plan *payment.Plan) error
	UpdateCancellation(ctx context.Context, id types.ID, c *Cancellation) error
	CountCompletedByCustomer(ctx context.Context, customerID types.ID) (int, error)
	HasActiveOverlap(ctx context.Context, vehicleID types.ID, departure time.Time) (bool, error)
	AccumulateDriverStats(ctx context.Context, driverID types.ID, distanceKm float64, fare int64) error
}

type Vehicles interface {
	Get(ctx context.Context, id types.ID) (*vehicle.Vehicle, error)
	Hold(ctx context.Context, id, bookingID types.ID) error
	StartTrip(ctx context.Context, id, bookingID types.ID) error
	Release(ctx context.Context, id types.ID) error
	SetOffline(ctx context.Context, id types.ID) error
}

type Pricer interface {
	Quote(ctx context.Context, category pricing.Category, vehicleType, vehicleModel string, tripType pricing.TripType, distanceKm float64) (pricing.Quote, error)
}

type Wallets interface {
	Credit(ctx context.Context, driverID types.ID, amount int64, description string, bookingID *types.ID) error
	SettleCommission(ctx context.Context, driverID, bookingID types.ID, amount int64) (belowFloor bool, err error)
}

type Penalties interface {
	ApplyCancellation(ctx context.Context, driverID, bookingID, appliedBy types.ID, acceptedAt, departure, cancelledAt time.Time) (penalty.Descriptor, string, error)
}

// DistanceProvider supplies road distance and duration, degraded=true when
// the estimate came from the straight-line fallback.
type DistanceProvider interface {
	Estimate(ctx context.Context, pickup, destination types.Point) (km float64, duration time.Duration, degraded bool, err error)
}

// Customers exposes the one slice of the customer profile this engine needs:
// who referred them and whether the referral is still active.
type Customers interface {
	Referral(ctx context.Context, customerID types.ID) (referrerDriverID *types.ID, active bool, err error)
}

// Notifier delivers fire-and-forget messages; implementations log failures
// and never return them.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b *Booking)
	BookingCancelled(ctx context.Context, b *Booking)
	SettlementCompleted(ctx context.Context, b *Booking)
}

// Numbers issues unique human-readable booking numbers.
type Numbers interface {
	Next(ctx context.Context) (string, error)
}

type Config struct {
	OnlineSplitPercent int64
	CommissionPercent  int64
	ReferralReward     int64
	Currency           string
}

type Service struct {
	store     Store
	vehicles  Vehicles
	pricer    Pricer
	wallets   Wallets
	penalties Penalties
	distance  DistanceProvider
	customers Customers
	gateway   payment.Gateway
	notifier  Notifier
	numbers   Numbers
	cfg       Config
	log       *slog.Logger
}

type Deps struct {
	Store     Store
	Vehicles  Vehicles
	Pricer    Pricer
	Wallets   Wallets
	Penalties Penalties
	Distance  DistanceProvider
	Customers Customers
	Gateway   payment.Gateway
	Notifier  Notifier
	Numbers   Numbers
	Config    Config
	Logger    *slog.Logger
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Config.Currency == "" {
		d.Config.Currency = "INR"
	}
	if d.Config.OnlineSplitPercent == 0 {
		d.Config.OnlineSplitPercent = 30
	}
	if d.Config.CommissionPercent == 0 {
		d.Config.CommissionPercent = 20
	}
	return &Service{
		store: d.Store, vehicles: d.Vehicles, pricer: d.Pricer,
		wallets: d.Wallets, penalties: d.Penalties, distance: d.Distance,
		customers: d.Customers, gateway: d.Gateway, notifier: d.Notifier,
		numbers: d.Numbers, cfg: d.Config, log: d.Logger,
	}
}

// Result is the snapshot returned by every operation. Warnings carry
// degraded side effects (wallet debit failed, gateway down) that did not
// fail the operation itself.
type Result struct {
	Booking  *Booking
	Warnings []string
}

type CreateCommand struct {
	CustomerID         types.ID
	VehicleID          types.ID
	Pickup             types.Point
	PickupAddress      string
	Destination        types.Point
	DestinationAddress string
	DepartureAt        time.Time
	ReturnAt           *time.Time
	PassengerCount     int
	TripType           pricing.TripType
	PaymentMethod      payment.Method
}

func (c CreateCommand) validate() error {
	switch {
	case c.CustomerID == "":
		return fmt.Errorf("%w: customer id required", ErrValidation)
	case c.VehicleID == "":
		return fmt.Errorf("%w: vehicle id required", ErrValidation)
	case !c.Pickup.Valid():
		return fmt.Errorf("%w: bad pickup coordinates", ErrValidation)
	case !c.Destination.Valid():
		return fmt.Errorf("%w: bad destination coordinates", ErrValidation)
	case c.DepartureAt.IsZero():
		return fmt.Errorf("%w: departure time required", ErrValidation)
	case c.PassengerCount < 1:
		return fmt.Errorf("%w: passenger count must be positive", ErrValidation)
	case c.TripType != pricing.TripOneWay && c.TripType != pricing.TripReturn:
		return fmt.Errorf("%w: unknown trip type %q", ErrValidation, c.TripType)
	case c.TripType == pricing.TripReturn && c.ReturnAt == nil:
		return fmt.Errorf("%w: return trip requires a return date", ErrValidation)
	case c.PaymentMethod != payment.MethodOnline && c.PaymentMethod != payment.MethodCash:
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, c.PaymentMethod)
	}
	return nil
}

// Create prices the trip, builds the payment plan and persists the booking
// in pending. The vehicle is not held yet; the hold happens on acceptance.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (Result, error) {
	if err := cmd.validate(); err != nil {
		return Result{}, err
	}

	v, err := s.vehicles.Get(ctx, cmd.VehicleID)
	if err != nil {
		return Result{}, err
	}
	if v.DriverID == nil {
		return Result{}, ErrNoDriver
	}
	if v.Status == vehicle.StatusMaintenance || v.Status == vehicle.StatusOffline {
		return Result{}, ErrVehicleUnavailable
	}

	overlap, err := s.store.HasActiveOverlap(ctx, v.ID, cmd.DepartureAt)
	if err != nil {
		return Result{}, err
	}
	if overlap {
		return Result{}, ErrVehicleUnavailable
	}

	var warnings []string
	km, duration, degraded, err := s.distance.Estimate(ctx, cmd.Pickup, cmd.Destination)
	if err != nil {
		return Result{}, err
	}
	if degraded {
		warnings = append(warnings, "distance estimated from straight-line fallback")
	}

	quote, err := s.pricer.Quote(ctx, v.Category, v.VehicleType, v.Model, cmd.TripType, km)
	if err != nil {
		return Result{}, err
	}

	number, err := s.numbers.Next(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("booking number: %w", err)
	}

	now := time.Now()
	b := &Booking{
		ID:         types.NewID(),
		Number:     number,
		CustomerID: cmd.CustomerID,
		DriverID:   *v.DriverID,
		VehicleID:  v.ID,
		Trip: TripDetails{
			Pickup:             cmd.Pickup,
			PickupAddress:      cmd.PickupAddress,
			Destination:        cmd.Destination,
			DestinationAddress: cmd.DestinationAddress,
			DepartureAt:        cmd.DepartureAt,
			ReturnAt:           cmd.ReturnAt,
			PassengerCount:     cmd.PassengerCount,
			DistanceKm:         km,
			Duration:           duration,
			TripType:           cmd.TripType,
		},
		Pricing: PricingSnapshot{
			RatePerKm:   quote.RatePerKm,
			BaseAmount:  quote.Base,
			GSTAmount:   quote.GST,
			TotalAmount: quote.Total,
			TripType:    quote.TripType,
		},
		Payment:       payment.Split(quote.Total, cmd.PaymentMethod, v.Category, s.cfg.OnlineSplitPercent),
		Status:        StatusPending,
		StatusVersion: 0,
		CreatedAt:     now,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return Result{}, err
	}
	s.appendEvent(ctx, b.ID, StatusNone, StatusPending, Actor{ID: cmd.CustomerID, Kind: ActorCustomer}, "booking created", "")

	warnings = append(warnings, s.createGatewayOrder(ctx, b)...)
	s.notifier.BookingConfirmed(ctx, b)
	return Result{Booking: b, Warnings: warnings}, nil
}

// createGatewayOrder opens the online collection order after the booking has
// committed. Gateway failure degrades to a warning; the order can be created
// again on the payment-verify path.
func (s *Service) createGatewayOrder(ctx context.Context, b *Booking) []string {
	amount := b.Payment.Total
	if b.Payment.Partial() {
		amount = b.Payment.Online.Amount
	} else if b.Payment.Method != payment.MethodOnline {
		return nil
	}
	order, err := s.gateway.CreateOrder(ctx, amount, s.cfg.Currency, b.Number)
	if err != nil {
		s.log.Warn("gateway order create failed", "booking_id", b.ID, "err", err)
		return []string{"payment order could not be created; retry on payment"}
	}
	if b.Payment.Partial() {
		b.Payment.Online.GatewayOrderID = order.ID
	} else {
		b.Payment.GatewayOrderID = order.ID
	}
	if err := s.store.UpdatePayment(ctx, b.ID, &b.Payment); err != nil {
		s.log.Error("persist gateway order id failed", "booking_id", b.ID, "err", err)
		return []string{"payment order created but not recorded"}
	}
	return nil
}

// TransitionRequest is the explicit transition value object: no hidden
// instance state rides along with a status change.
type TransitionRequest struct {
	NewStatus Status
	Actor     Actor
	Reason    string
	Notes     string
}

// Accept assigns the trip: the vehicle hold is taken first because it is the
// exclusivity guard; the booking CAS follows and is compensated by a release
// if it loses.
func (s *Service) Accept(ctx context.Context, id types.ID, req TransitionRequest) (Result, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	// Only pending bookings are accepted here; the cancellation_requested →
	// accepted edge belongs to the rejection revert, not to drivers.
	if b.Status != StatusPending {
		return Result{}, ErrInvalidTransition
	}

	if err := s.vehicles.Hold(ctx, b.VehicleID, b.ID); err != nil {
		if errors.Is(err, vehicle.ErrUnavailable) {
			return Result{}, ErrVehicleUnavailable
		}
		return Result{}, err
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusAccepted, b.StatusVersion)
	if err != nil || !ok {
		if rerr := s.vehicles.Release(ctx, b.VehicleID); rerr != nil {
			s.log.Error("hold compensation failed", "booking_id", b.ID, "vehicle_id", b.VehicleID, "err", rerr)
		}
		if err != nil {
			return Result{}, err
		}
		return Result{}, ErrConflict
	}
	s.appendEvent(ctx, b.ID, b.Status, StatusAccepted, req.Actor, req.Reason, req.Notes)
	return s.snapshot(ctx, b.ID, nil)
}

// Start moves an accepted booking into the trip. The vehicle is already held
// by this booking, so the booking CAS goes first and the vehicle update is a
// degraded-side-effect on failure.
func (s *Service) Start(ctx context.Context, id types.ID, req TransitionRequest) (Result, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if !CanTransition(b.Status, StatusStarted) {
		return Result{}, ErrInvalidTransition
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusStarted, b.StatusVersion)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, ErrConflict
	}
	s.appendEvent(ctx, b.ID, b.Status, StatusStarted, req.Actor, req.Reason, req.Notes)

	var warnings []string
	if err := s.vehicles.StartTrip(ctx, b.VehicleID, b.ID); err != nil {
		s.log.Error("vehicle in_trip update failed", "booking_id", b.ID, "err", err)
		warnings = append(warnings, "vehicle status not updated to in_trip")
	}
	return s.snapshot(ctx, b.ID, warnings)
}

// Complete finishes the trip and runs the post-completion side effects:
// vehicle release, driver trip statistics and the one-time referral reward.
// Side-effect failures degrade to warnings; the completed status stands.
func (s *Service) Complete(ctx context.Context, id types.ID, req TransitionRequest) (Result, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if !CanTransition(b.Status, StatusCompleted) {
		return Result{}, ErrInvalidTransition
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusCompleted, b.StatusVersion)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, ErrConflict
	}
	s.appendEvent(ctx, b.ID, b.Status, StatusCompleted, req.Actor, req.Reason, req.Notes)

	var warnings []string
	if err := s.vehicles.Release(ctx, b.VehicleID); err != nil {
		s.log.Error("vehicle release failed", "booking_id", b.ID, "err", err)
		warnings = append(warnings, "vehicle not released")
	}
	if err := s.store.AccumulateDriverStats(ctx, b.DriverID, b.Trip.DistanceKm, b.Pricing.TotalAmount); err != nil {
		s.log.Error("driver stats update failed", "booking_id", b.ID, "driver_id", b.DriverID, "err", err)
		warnings = append(warnings, "driver statistics not updated")
	}
	warnings = append(warnings, s.maybeReferralReward(ctx, b)...)
	return s.snapshot(ctx, b.ID, warnings)
}

// maybeReferralReward credits the referring driver exactly once per
// customer. The guard counts completed bookings after this one committed, so
// the first completion sees a count of one.
func (s *Service) maybeReferralReward(ctx context.Context, b *Booking) []string {
	referrer, active, err := s.customers.Referral(ctx, b.CustomerID)
	if err != nil {
		s.log.Error("referral lookup failed", "customer_id", b.CustomerID, "err", err)
		return []string{"referral reward check failed"}
	}
	if referrer == nil || !active || s.cfg.ReferralReward <= 0 {
		return nil
	}
	completed, err := s.store.CountCompletedByCustomer(ctx, b.CustomerID)
	if err != nil {
		s.log.Error("completed booking count failed", "customer_id", b.CustomerID, "err", err)
		return []string{"referral reward check failed"}
	}
	if completed != 1 {
		return nil
	}
	if err := s.wallets.Credit(ctx, *referrer, s.cfg.ReferralReward, "referral reward", &b.ID); err != nil {
		s.log.Error("referral reward credit failed", "driver_id", *referrer, "err", err)
		return []string{"referral reward not credited"}
	}
	return nil
}

type CancelCommand struct {
	Actor  Actor
	Reason string
	Notes  string
}

// Cancel terminates a pending or accepted booking directly. Driver-initiated
// cancellations apply the time-band penalty; penalty failures never block
// the cancellation itself.
func (s *Service) Cancel(ctx context.Context, id types.ID, cmd CancelCommand) (Result, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if b.Status != StatusPending && b.Status != StatusAccepted {
		return Result{}, ErrInvalidTransition
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusCancelled, b.StatusVersion)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, ErrConflict
	}
	s.appendEvent(ctx, b.ID, b.Status, StatusCancelled, cmd.Actor, cmd.Reason, cmd.Notes)

	var warnings []string
	if err := s.vehicles.Release(ctx, b.VehicleID); err != nil {
		s.log.Error("vehicle release failed", "booking_id", b.ID, "err", err)
		warnings = append(warnings, "vehicle not released")
	}

	now := time.Now()
	cancel := &Cancellation{
		Actor:  cmd.Actor,
		At:     now,
		Reason: cmd.Reason,
		Refund: payment.Refund{Amount: b.Payment.RefundableAmount(), Status: payment.RefundPending},
	}
	if cmd.Actor.Kind == ActorDriver {
		var acceptedAt time.Time
		if b.AcceptedAt != nil {
			acceptedAt = *b.AcceptedAt
		}
		_, warning, perr := s.penalties.ApplyCancellation(ctx, b.DriverID, b.ID, cmd.Actor.ID, acceptedAt, b.Trip.DepartureAt, now)
		if perr != nil {
			s.log.Error("penalty application failed", "booking_id", b.ID, "err", perr)
			warnings = append(warnings, "cancellation penalty not applied")
		} else {
			cancel.PenaltyApplied = true
			if warning != "" {
				warnings = append(warnings, warning)
			}
		}
	}
	if err := s.store.UpdateCancellation(ctx, b.ID, cancel); err != nil {
		s.log.Error("cancellation record update failed", "booking_id", b.ID, "err", err)
		warnings = append(warnings, "cancellation record not saved")
	}

	res, err := s.snapshot(ctx, b.ID, warnings)
	if err == nil {
		s.notifier.BookingCancelled(ctx, res.Booking)
	}
	return res, err
}

// RequestCancellation opens the disputed-cancellation sub-flow. The vehicle
// stays held until an admin resolves the request, so nobody can re-book it
// mid-dispute.
func (s *Service) RequestCancellation(ctx context.Context, id types.ID, cmd CancelCommand) (Result, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if !CanTransition(b.Status, StatusCancellationRequested) {
		return Result{}, ErrInvalidTransition
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusCancellationRequested, b.StatusVersion)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, ErrConflict
	}
	s.appendEvent(ctx, b.ID, b.Status, StatusCancellationRequested, cmd.Actor, cmd.Reason, cmd.Notes)

	cancel := &Cancellation{
		Actor:         cmd.Actor,
		At:            time.Now(),
		Reason:        cmd.Reason,
		RequestStatus: RequestPending,
		Refund:        payment.Refund{Status: payment.RefundPending},
	}
	if err := s.store.UpdateCancellation(ctx, b.ID, cancel); err != nil {
		return Result{}, err
	}
	return s.snapshot(ctx, b.ID, nil)
}

// ApproveCancellation resolves the request: the booking cancels, the vehicle
// frees up, and the refund amount is fixed by the payment plan's state.
func (s *Service) ApproveCancellation(ctx context.Context, id types.ID, admin Actor) (Result, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if b.Status != StatusCancellationRequested || b.Cancellation == nil {
		return Result{}, ErrInvalidTransition
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusCancelled, b.StatusVersion)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, ErrConflict
	}
	s.appendEvent(ctx, b.ID, b.Status, StatusCancelled, admin, "cancellation request approved", "")

	var warnings []string
	if err := s.vehicles.Release(ctx, b.VehicleID); err != nil {
		s.log.Error("vehicle release failed", "booking_id", b.ID, "err", err)
		warnings = append(warnings, "vehicle not released")
	}

	cancel := *b.Cancellation
	cancel.RequestStatus = RequestApproved
	cancel.Refund.Amount = b.Payment.RefundableAmount()
	if err := s.store.UpdateCancellation(ctx, b.ID, &cancel); err != nil {
		return Result{}, err
	}

	res, err := s.snapshot(ctx, b.ID, warnings)
	if err == nil {
		s.notifier.BookingCancelled(ctx, res.Booking)
	}
	return res, err
}

// RejectCancellation reverts the booking to the status it held before the
// request, read from the history.
func (s *Service) RejectCancellation(ctx context.Context, id types.ID, admin Actor, reason string) (Result, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if b.Status != StatusCancellationRequested || b.Cancellation == nil {
		return Result{}, ErrInvalidTransition
	}

	history, err := s.store.History(ctx, b.ID)
	if err != nil {
		return Result{}, err
	}
	prev, found := PreviousStatus(history, StatusCancellationRequested)
	if !found || !CanTransition(StatusCancellationRequested, prev) {
		return Result{}, fmt.Errorf("%w: no status to revert to", ErrInvalidTransition)
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, prev, b.StatusVersion)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, ErrConflict
	}
	s.appendEvent(ctx, b.ID, StatusCancellationRequested, prev, admin, reason, "cancellation request rejected")

	cancel := *b.Cancellation
	cancel.RequestStatus = RequestRejected
	if err := s.store.UpdateCancellation(ctx, b.ID, &cancel); err != nil {
		return Result{}, err
	}
	return s.snapshot(ctx, b.ID, nil)
}

// ConfirmOnlinePayment verifies the gateway signature and marks the online
// leg (or the whole single plan) paid.
func (s *Service) ConfirmOnlinePayment(ctx context.Context, id types.ID, orderID, paymentID, signature string) (Result, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if !b.Payment.Partial() && b.Payment.Method != payment.MethodOnline {
		return Result{}, fmt.Errorf("%w: no online payment expected", ErrValidation)
	}
	expected := b.Payment.GatewayOrderID
	if b.Payment.Partial() {
		expected = b.Payment.Online.GatewayOrderID
	}
	if expected != "" && expected != orderID {
		return Result{}, ErrPaymentMismatch
	}
	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		return Result{}, ErrPaymentMismatch
	}
	now := time.Now()
	b.Payment.MarkOnlinePaid(paymentID, &now)
	if err := s.store.UpdatePayment(ctx, b.ID, &b.Payment); err != nil {
		return Result{}, err
	}
	return s.snapshot(ctx, b.ID, nil)
}

// ConfirmCashCollected settles the driver-collected leg: the cash portion is
// marked collected, the plan completes, and the commission is debited from
// the driver wallet. A failed debit is logged and warned, never fatal to the
// collection event; a post-debit balance below the floor takes the driver's
// vehicle offline.
func (s *Service) ConfirmCashCollected(ctx context.Context, id types.ID, actor Actor) (Result, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	now := time.Now()
	if err := b.Payment.MarkCashCollected(&now); err != nil {
		return Result{}, err
	}
	if err := s.store.UpdatePayment(ctx, b.ID, &b.Payment); err != nil {
		return Result{}, err
	}

	var warnings []string
	commission := payment.Commission(b.Payment.Cash.Amount, s.cfg.CommissionPercent)
	belowFloor, err := s.wallets.SettleCommission(ctx, b.DriverID, b.ID, commission)
	if err != nil {
		s.log.Warn("commission debit failed", "booking_id", b.ID, "driver_id", b.DriverID, "amount", commission, "err", err)
		warnings = append(warnings, "commission not settled: "+err.Error())
	} else if belowFloor {
		if err := s.vehicles.SetOffline(ctx, b.VehicleID); err != nil {
			s.log.Error("auto-offline failed", "vehicle_id", b.VehicleID, "err", err)
			warnings = append(warnings, "driver below wallet floor but not taken offline")
		} else {
			warnings = append(warnings, "driver taken offline: wallet below floor")
		}
	}

	res, err := s.snapshot(ctx, b.ID, warnings)
	if err == nil {
		s.notifier.SettlementCompleted(ctx, res.Booking)
	}
	return res, err
}

// InitiateRefund records refund intent (method and amount) without touching
// the gateway.
func (s *Service) InitiateRefund(ctx context.Context, id types.ID, admin Actor, method string) (Result, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if b.Status != StatusCancelled || b.Cancellation == nil {
		return Result{}, ErrRefundState
	}
	c := *b.Cancellation
	if c.Refund.Status != payment.RefundPending {
		return Result{}, ErrRefundState
	}
	if c.Refund.Amount <= 0 {
		return Result{}, ErrNoRefundDue
	}
	now := time.Now()
	c.Refund.Status = payment.RefundInitiated
	c.Refund.Method = method
	c.Refund.InitiatedAt = &now
	if err := s.store.UpdateCancellation(ctx, b.ID, &c); err != nil {
		return Result{}, err
	}
	return s.snapshot(ctx, b.ID, nil)
}

// CompleteRefund executes an initiated refund against the gateway. A gateway
// failure parks the refund in the manual terminal state instead of leaving
// the booking stuck.
func (s *Service) CompleteRefund(ctx context.Context, id types.ID, admin Actor) (Result, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if b.Cancellation == nil || b.Cancellation.Refund.Status != payment.RefundInitiated {
		return Result{}, ErrRefundState
	}

	paymentID := b.Payment.PaymentID
	if b.Payment.Partial() {
		paymentID = b.Payment.Online.PaymentID
	}

	c := *b.Cancellation
	now := time.Now()
	var warnings []string
	refund, err := s.gateway.Refund(ctx, paymentID, c.Refund.Amount, c.Reason)
	if err != nil {
		s.log.Error("gateway refund failed, falling back to manual", "booking_id", b.ID, "err", err)
		c.Refund.Status = payment.RefundManual
		warnings = append(warnings, "gateway refund failed; flagged for manual refund")
	} else {
		c.Refund.Status = payment.RefundCompleted
		c.Refund.GatewayID = refund.ID
		c.Refund.CompletedAt = &now
		b.Payment.Status = payment.StatusRefunded
		if err := s.store.UpdatePayment(ctx, b.ID, &b.Payment); err != nil {
			s.log.Error("payment status update failed", "booking_id", b.ID, "err", err)
			warnings = append(warnings, "payment record not marked refunded")
		}
	}
	if err := s.store.UpdateCancellation(ctx, b.ID, &c); err != nil {
		return Result{}, err
	}
	return s.snapshot(ctx, b.ID, warnings)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) History(ctx context.Context, id types.ID) ([]Event, error) {
	return s.store.History(ctx, id)
}

func (s *Service) appendEvent(ctx context.Context, id types.ID, from, to Status, actor Actor, reason, notes string) {
	if err := s.store.AppendEvent(ctx, &Event{
		BookingID: id,
		From:      from,
		To:        to,
		Actor:     actor,
		Reason:    reason,
		Notes:     notes,
		CreatedAt: time.Now(),
	}); err != nil {
		s.log.Error("status history append failed", "booking_id", id, "to", to, "err", err)
	}
}

func (s *Service) snapshot(ctx context.Context, id types.ID, warnings []string) (Result, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	return Result{Booking: b, Warnings: warnings}, nil
}
