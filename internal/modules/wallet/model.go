// README: Driver wallet and house revenue ledger shapes.
package wallet

import (
	"time"

	"vahan/internal/types"
)

type EntryType string

const (
	EntryCredit EntryType = "credit"
	EntryDebit  EntryType = "debit"
)

// Entry is one row of a wallet's append-only transaction log. Amount is
// always positive; the type carries the sign.
type Entry struct {
	ID          int64
	DriverID    types.ID
	Type        EntryType
	Amount      int64
	Description string
	BookingID   *types.ID
	CreatedAt   time.Time
}

type Wallet struct {
	DriverID types.ID
	Balance  int64
	Entries  []Entry
}

// Consistent reports whether the balance equals the signed sum of the log.
// The store maintains this transactionally; this is the check tests assert.
func (w *Wallet) Consistent() bool {
	var sum int64
	for _, e := range w.Entries {
		if e.Type == EntryCredit {
			sum += e.Amount
		} else {
			sum -= e.Amount
		}
	}
	return sum == w.Balance
}

// HouseEntry is one commission credit into the platform revenue ledger.
type HouseEntry struct {
	ID          int64
	Amount      int64
	Description string
	BookingID   types.ID
	DriverID    types.ID
	CreatedAt   time.Time
}
