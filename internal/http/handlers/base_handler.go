// README: Base handler utilities (JSON helpers, error mapping, actor
// extraction).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vahan/internal/http/middleware"
	"vahan/internal/modules/booking"
	"vahan/internal/modules/payment"
	"vahan/internal/modules/pricing"
	"vahan/internal/modules/vehicle"
	"vahan/internal/modules/wallet"
	"vahan/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrValidation),
		errors.Is(err, booking.ErrPaymentMismatch):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrNotFound),
		errors.Is(err, vehicle.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, booking.ErrConflict),
		errors.Is(err, booking.ErrVehicleUnavailable),
		errors.Is(err, booking.ErrRefundState),
		errors.Is(err, payment.ErrOnlineIncomplete),
		errors.Is(err, payment.ErrAlreadyCollected),
		errors.Is(err, payment.ErrNotPartial):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrNoDriver),
		errors.Is(err, booking.ErrNoRefundDue),
		errors.Is(err, pricing.ErrNotFound):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeWalletError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, wallet.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// actorFrom builds the acting identity from the auth context. The role claim
// decides the actor kind; unknown roles degrade to customer.
func actorFrom(c *gin.Context) booking.Actor {
	id := types.ID(c.GetString(middleware.ContextActorID))
	switch c.GetString(middleware.ContextActorRole) {
	case "driver":
		return booking.Actor{ID: id, Kind: booking.ActorDriver}
	case "admin":
		return booking.Actor{ID: id, Kind: booking.ActorAdmin}
	default:
		return booking.Actor{ID: id, Kind: booking.ActorCustomer}
	}
}
