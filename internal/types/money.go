// README: Common money value object used across modules.
package types

import "fmt"

// Money is an integer amount of whole currency units. Fares, penalties and
// commissions in this domain are always whole rupees; no sub-unit amounts
// appear anywhere in the tariff tables.
type Money struct {
	Amount   int64
	Currency string
}

func Rupees(amount int64) Money {
	return Money{Amount: amount, Currency: "INR"}
}

func (m Money) String() string {
	return fmt.Sprintf("%s %d", m.Currency, m.Amount)
}

// RoundPercent returns round(pct% of amount) with half-up integer rounding.
func RoundPercent(amount, pct int64) int64 {
	v := amount * pct
	if v >= 0 {
		return (v + 50) / 100
	}
	return -((-v + 50) / 100)
}
