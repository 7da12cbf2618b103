// README: Booking lifecycle handlers: create, transitions, payment
// confirmation and refunds.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vahan/internal/modules/booking"
	"vahan/internal/modules/payment"
	"vahan/internal/modules/pricing"
	"vahan/internal/types"
)

type BookingHandler struct {
	svc *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{svc: svc}
}

type createBookingReq struct {
	CustomerID         string     `json:"customer_id"`
	VehicleID          string     `json:"vehicle_id"`
	PickupLat          float64    `json:"pickup_lat"`
	PickupLng          float64    `json:"pickup_lng"`
	PickupAddress      string     `json:"pickup_address"`
	DestinationLat     float64    `json:"destination_lat"`
	DestinationLng     float64    `json:"destination_lng"`
	DestinationAddress string     `json:"destination_address"`
	DepartureAt        time.Time  `json:"departure_at"`
	ReturnAt           *time.Time `json:"return_at"`
	PassengerCount     int        `json:"passenger_count"`
	TripType           string     `json:"trip_type"`
	PaymentMethod      string     `json:"payment_method"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	// Customers may only book for themselves; admins may book on behalf.
	actor := actorFrom(c)
	if actor.Kind == booking.ActorCustomer && req.CustomerID != string(actor.ID) {
		writeError(c, http.StatusForbidden, "cannot book for another customer")
		return
	}
	res, err := h.svc.Create(c.Request.Context(), booking.CreateCommand{
		CustomerID:         types.ID(req.CustomerID),
		VehicleID:          types.ID(req.VehicleID),
		Pickup:             types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		PickupAddress:      req.PickupAddress,
		Destination:        types.Point{Lat: req.DestinationLat, Lng: req.DestinationLng},
		DestinationAddress: req.DestinationAddress,
		DepartureAt:        req.DepartureAt,
		ReturnAt:           req.ReturnAt,
		PassengerCount:     req.PassengerCount,
		TripType:           pricing.TripType(req.TripType),
		PaymentMethod:      payment.Method(req.PaymentMethod),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, bookingResponse(res))
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.svc.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingBody(b, nil))
}

func (h *BookingHandler) History(c *gin.Context) {
	events, err := h.svc.History(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	out := make([]gin.H, 0, len(events))
	for _, e := range events {
		out = append(out, gin.H{
			"from":       e.From,
			"to":         e.To,
			"actor_id":   e.Actor.ID,
			"actor_kind": e.Actor.Kind,
			"reason":     e.Reason,
			"created_at": e.CreatedAt,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"events": out})
}

type transitionReq struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

func (h *BookingHandler) transition(c *gin.Context, op func(booking.TransitionRequest) (booking.Result, error)) {
	var req transitionReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	res, err := op(booking.TransitionRequest{Actor: actorFrom(c), Reason: req.Reason, Notes: req.Notes})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingResponse(res))
}

func (h *BookingHandler) Accept(c *gin.Context) {
	id := types.ID(c.Param("id"))
	h.transition(c, func(req booking.TransitionRequest) (booking.Result, error) {
		return h.svc.Accept(c.Request.Context(), id, req)
	})
}

func (h *BookingHandler) Start(c *gin.Context) {
	id := types.ID(c.Param("id"))
	h.transition(c, func(req booking.TransitionRequest) (booking.Result, error) {
		return h.svc.Start(c.Request.Context(), id, req)
	})
}

func (h *BookingHandler) Complete(c *gin.Context) {
	id := types.ID(c.Param("id"))
	h.transition(c, func(req booking.TransitionRequest) (booking.Result, error) {
		return h.svc.Complete(c.Request.Context(), id, req)
	})
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	var req transitionReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	res, err := h.svc.Cancel(c.Request.Context(), types.ID(c.Param("id")), booking.CancelCommand{
		Actor: actorFrom(c), Reason: req.Reason, Notes: req.Notes,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingResponse(res))
}

func (h *BookingHandler) RequestCancellation(c *gin.Context) {
	var req transitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Reason == "" {
		writeError(c, http.StatusBadRequest, "reason required")
		return
	}
	res, err := h.svc.RequestCancellation(c.Request.Context(), types.ID(c.Param("id")), booking.CancelCommand{
		Actor: actorFrom(c), Reason: req.Reason, Notes: req.Notes,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingResponse(res))
}

func (h *BookingHandler) ApproveCancellation(c *gin.Context) {
	res, err := h.svc.ApproveCancellation(c.Request.Context(), types.ID(c.Param("id")), actorFrom(c))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingResponse(res))
}

func (h *BookingHandler) RejectCancellation(c *gin.Context) {
	var req transitionReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	res, err := h.svc.RejectCancellation(c.Request.Context(), types.ID(c.Param("id")), actorFrom(c), req.Reason)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingResponse(res))
}

type verifyPaymentReq struct {
	OrderID   string `json:"gateway_order_id"`
	PaymentID string `json:"gateway_payment_id"`
	Signature string `json:"signature"`
}

func (h *BookingHandler) VerifyPayment(c *gin.Context) {
	var req verifyPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}
	res, err := h.svc.ConfirmOnlinePayment(c.Request.Context(), types.ID(c.Param("id")), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingResponse(res))
}

func (h *BookingHandler) CashCollected(c *gin.Context) {
	res, err := h.svc.ConfirmCashCollected(c.Request.Context(), types.ID(c.Param("id")), actorFrom(c))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingResponse(res))
}

type initiateRefundReq struct {
	Method string `json:"method"`
}

func (h *BookingHandler) InitiateRefund(c *gin.Context) {
	var req initiateRefundReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	if req.Method == "" {
		req.Method = "original"
	}
	res, err := h.svc.InitiateRefund(c.Request.Context(), types.ID(c.Param("id")), actorFrom(c), req.Method)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingResponse(res))
}

func (h *BookingHandler) CompleteRefund(c *gin.Context) {
	res, err := h.svc.CompleteRefund(c.Request.Context(), types.ID(c.Param("id")), actorFrom(c))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingResponse(res))
}

func bookingResponse(res booking.Result) gin.H {
	return bookingBody(res.Booking, res.Warnings)
}

func bookingBody(b *booking.Booking, warnings []string) gin.H {
	body := gin.H{
		"booking_id":     b.ID,
		"booking_number": b.Number,
		"status":         b.Status,
		"customer_id":    b.CustomerID,
		"driver_id":      b.DriverID,
		"vehicle_id":     b.VehicleID,
		"trip": gin.H{
			"pickup_address":      b.Trip.PickupAddress,
			"destination_address": b.Trip.DestinationAddress,
			"departure_at":        b.Trip.DepartureAt,
			"return_at":           b.Trip.ReturnAt,
			"passenger_count":     b.Trip.PassengerCount,
			"distance_km":         b.Trip.DistanceKm,
			"trip_type":           b.Trip.TripType,
		},
		"pricing": gin.H{
			"rate_per_km":  b.Pricing.RatePerKm,
			"base_amount":  b.Pricing.BaseAmount,
			"gst_amount":   b.Pricing.GSTAmount,
			"total_amount": b.Pricing.TotalAmount,
		},
		"payment": paymentBody(&b.Payment),
	}
	if b.Cancellation != nil {
		body["cancellation"] = gin.H{
			"actor_id":        b.Cancellation.Actor.ID,
			"actor_kind":      b.Cancellation.Actor.Kind,
			"reason":          b.Cancellation.Reason,
			"request_status":  b.Cancellation.RequestStatus,
			"refund_amount":   b.Cancellation.Refund.Amount,
			"refund_status":   b.Cancellation.Refund.Status,
			"penalty_applied": b.Cancellation.PenaltyApplied,
		}
	}
	if len(warnings) > 0 {
		body["warnings"] = warnings
	}
	return body
}

func paymentBody(p *payment.Plan) gin.H {
	body := gin.H{
		"method": p.Method,
		"status": p.Status,
		"total":  p.Total,
	}
	if p.Partial() {
		body["online"] = gin.H{
			"amount":           p.Online.Amount,
			"status":           p.Online.Status,
			"gateway_order_id": p.Online.GatewayOrderID,
		}
		body["cash"] = gin.H{
			"amount": p.Cash.Amount,
			"status": p.Cash.Status,
		}
	} else {
		body["gateway_order_id"] = p.GatewayOrderID
	}
	return body
}
