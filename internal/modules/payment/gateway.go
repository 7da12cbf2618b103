// README: Payment gateway boundary consumed by the settlement engine.
package payment

import (
	"context"
	"errors"
)

// ErrGatewayUnavailable wraps transport-level gateway failures, including
// timeouts. Callers fall back to a degraded path (warning, manual refund);
// they never lose committed local state over it.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

type PaymentDetails struct {
	ID      string
	OrderID string
	Amount  int64
	Status  string
	Method  string
}

type RefundResult struct {
	ID        string
	PaymentID string
	Amount    int64
	Status    string
}

type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (GatewayOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
	GetPaymentDetails(ctx context.Context, paymentID string) (PaymentDetails, error)
	Refund(ctx context.Context, paymentID string, amount int64, reason string) (RefundResult, error)
}
