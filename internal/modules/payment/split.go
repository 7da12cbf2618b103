// README: Settlement splitter and commission math.
package payment

import (
	"errors"
	"time"

	"vahan/internal/modules/pricing"
	"vahan/internal/types"
)

var (
	ErrNotPartial       = errors.New("payment plan has no cash portion")
	ErrOnlineIncomplete = errors.New("online portion not completed")
	ErrAlreadyCollected = errors.New("cash portion already collected")
	ErrMismatch         = errors.New("payment verification mismatch")
)

// Split builds the payment plan for a booking. Cash-method bookings for
// anything bigger than an auto are split 30/70: the online leg is rounded,
// the cash leg is the remainder so the two always sum exactly to the total.
// Everything else is a single full-amount plan under the chosen method.
func Split(total int64, method Method, category pricing.Category, onlinePct int64) Plan {
	if method == MethodCash && category != pricing.CategoryAuto {
		online := types.RoundPercent(total, onlinePct)
		return Plan{
			Method: MethodCash,
			Status: StatusPending,
			Total:  total,
			Online: &Portion{Amount: online, Status: PortionPending},
			Cash:   &Portion{Amount: total - online, Status: PortionPending},
		}
	}
	return Plan{Method: method, Status: StatusPending, Total: total}
}

// Commission is the house share of a collected cash portion.
func Commission(cashAmount, pct int64) int64 {
	return types.RoundPercent(cashAmount, pct)
}

// MarkOnlinePaid records the online leg (or the whole single-method plan) as
// completed. The caller has already verified the gateway signature.
func (p *Plan) MarkOnlinePaid(paymentID string, at *time.Time) {
	if p.Partial() {
		p.Online.Status = PortionCompleted
		p.Online.PaymentID = paymentID
		p.Online.PaidAt = at
		return
	}
	p.PaymentID = paymentID
	p.Status = StatusCompleted
}

// MarkCashCollected records the driver-collected leg. It requires the online
// leg to be completed first; once both legs are settled the overall status
// flips to completed and the caller owes a commission settlement.
func (p *Plan) MarkCashCollected(at *time.Time) error {
	if !p.Partial() {
		return ErrNotPartial
	}
	if p.Online.Status != PortionCompleted {
		return ErrOnlineIncomplete
	}
	if p.Cash.Status == PortionCollected {
		return ErrAlreadyCollected
	}
	p.Cash.Status = PortionCollected
	p.Cash.PaidAt = at
	p.Status = StatusCompleted
	return nil
}

// RefundableAmount implements the refund policy: for partial plans only a
// completed online portion comes back through the gateway (the cash leg
// never left the driver's hand); for full plans the total, if paid.
func (p *Plan) RefundableAmount() int64 {
	if p.Partial() {
		if p.Online.Status == PortionCompleted {
			return p.Online.Amount
		}
		return 0
	}
	if p.Status == StatusCompleted {
		return p.Total
	}
	return 0
}
