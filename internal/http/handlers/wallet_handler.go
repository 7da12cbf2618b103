// README: Driver wallet and penalty read endpoints.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vahan/internal/modules/penalty"
	"vahan/internal/modules/wallet"
	"vahan/internal/types"
)

type WalletHandler struct {
	wallets   *wallet.Service
	penalties *penalty.Service
}

func NewWalletHandler(wallets *wallet.Service, penalties *penalty.Service) *WalletHandler {
	return &WalletHandler{wallets: wallets, penalties: penalties}
}

func (h *WalletHandler) Get(c *gin.Context) {
	driverID := types.ID(c.Param("driver_id"))
	w, err := h.wallets.Get(c.Request.Context(), driverID)
	if err != nil {
		writeWalletError(c, err)
		return
	}
	entries := make([]gin.H, 0, len(w.Entries))
	for _, e := range w.Entries {
		entries = append(entries, gin.H{
			"amount":      e.Amount,
			"type":        e.Type,
			"description": e.Description,
			"booking_id":  e.BookingID,
			"created_at":  e.CreatedAt,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{
		"driver_id": w.DriverID,
		"balance":   w.Balance,
		"entries":   entries,
	})
}

func (h *WalletHandler) ListPenalties(c *gin.Context) {
	driverID := types.ID(c.Param("driver_id"))
	records, err := h.penalties.ListByDriver(c.Request.Context(), driverID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]gin.H, 0, len(records))
	for _, r := range records {
		out = append(out, gin.H{
			"id":         r.ID,
			"type":       r.Type,
			"amount":     r.Amount,
			"reason":     r.Reason,
			"status":     r.Status,
			"booking_id": r.BookingID,
			"created_at": r.CreatedAt,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"penalties": out})
}

func (h *WalletHandler) HouseLedger(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.wallets.HouseLedger(c.Request.Context(), limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"id":          e.ID,
			"amount":      e.Amount,
			"description": e.Description,
			"booking_id":  e.BookingID,
			"driver_id":   e.DriverID,
			"created_at":  e.CreatedAt,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"entries": out})
}
