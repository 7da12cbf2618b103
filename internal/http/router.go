// README: HTTP route registration and role gating.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"vahan/internal/http/handlers"
	"vahan/internal/http/middleware"
	"vahan/internal/modules/booking"
	"vahan/internal/modules/penalty"
	"vahan/internal/modules/wallet"
)

type RouterDeps struct {
	Booking   *booking.Service
	Wallets   *wallet.Service
	Penalties *penalty.Service
	JWTSecret string
	Logger    *slog.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(deps.JWTSecret))

	bh := handlers.NewBookingHandler(deps.Booking)
	api.POST("/bookings", bh.Create)
	api.GET("/bookings/:id", bh.Get)
	api.GET("/bookings/:id/history", bh.History)
	api.POST("/bookings/:id/cancel", bh.Cancel)
	api.POST("/bookings/:id/cancel-request", bh.RequestCancellation)
	api.POST("/bookings/:id/payment/verify", bh.VerifyPayment)

	driver := api.Group("", middleware.RequireRole("driver", "admin"))
	driver.POST("/bookings/:id/accept", bh.Accept)
	driver.POST("/bookings/:id/start", bh.Start)
	driver.POST("/bookings/:id/complete", bh.Complete)
	driver.POST("/bookings/:id/payment/cash-collected", bh.CashCollected)

	admin := api.Group("", middleware.RequireRole("admin"))
	admin.POST("/bookings/:id/cancel-request/approve", bh.ApproveCancellation)
	admin.POST("/bookings/:id/cancel-request/reject", bh.RejectCancellation)
	admin.POST("/bookings/:id/refund/initiate", bh.InitiateRefund)
	admin.POST("/bookings/:id/refund/complete", bh.CompleteRefund)

	wh := handlers.NewWalletHandler(deps.Wallets, deps.Penalties)
	driver.GET("/drivers/:driver_id/wallet", wh.Get)
	driver.GET("/drivers/:driver_id/penalties", wh.ListPenalties)
	admin.GET("/house-ledger", wh.HouseLedger)

	return r
}
