// README: Payment plan, portion and refund state definitions.
package payment

import "time"

type Method string

const (
	MethodOnline Method = "online"
	MethodCash   Method = "cash"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRefunded  Status = "refunded"
)

type PortionStatus string

const (
	PortionPending   PortionStatus = "pending"
	PortionCompleted PortionStatus = "completed"
	PortionCollected PortionStatus = "collected"
)

// Portion is one leg of a partial payment. GatewayOrderID/PaymentID are only
// set on the online leg.
type Portion struct {
	Amount         int64
	Status         PortionStatus
	GatewayOrderID string
	PaymentID      string
	PaidAt         *time.Time
}

// Plan is a booking's payment record. A partial plan carries both portions
// and their amounts always sum to Total; a full plan carries neither and
// keeps its gateway identifiers on the plan itself.
type Plan struct {
	Method         Method
	Status         Status
	Total          int64
	GatewayOrderID string
	PaymentID      string
	Online         *Portion
	Cash           *Portion
}

func (p *Plan) Partial() bool {
	return p.Online != nil && p.Cash != nil
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundInitiated RefundStatus = "initiated"
	RefundCompleted RefundStatus = "completed"
	RefundFailed    RefundStatus = "failed"
	// RefundManual is the terminal fallback when the gateway refuses an
	// automated refund; ops settles it out of band.
	RefundManual RefundStatus = "manual"
)

// Refund is the two-phase refund record on a cancellation.
type Refund struct {
	Amount      int64
	Status      RefundStatus
	Method      string
	GatewayID   string
	InitiatedAt *time.Time
	CompletedAt *time.Time
}
