// README: Penalty ladder tests (band boundaries + anchor precedence).
package penalty

import (
	"context"
	"errors"
	"testing"
	"time"

	"vahan/internal/types"
)

var base = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestCalculate_DepartureBands(t *testing.T) {
	// Acceptance long in the past so the grace rule never fires.
	accepted := base.Add(-48 * time.Hour)
	cases := []struct {
		name       string
		untilDep   time.Duration
		wantType   Type
		wantAmount int64
	}{
		{"2h59m before departure", 2*time.Hour + 59*time.Minute, Type3HWithin, 500},
		{"exactly 3h before departure", 3 * time.Hour, Type3HWithin, 500},
		{"3h01m before departure", 3*time.Hour + time.Minute, Type12HWithin, 300},
		{"exactly 12h before departure", 12 * time.Hour, Type12HWithin, 300},
		{"12h01m before departure", 12*time.Hour + time.Minute, Type12HBefore, 300},
		{"two days before departure", 48 * time.Hour, Type12HBefore, 300},
		{"after scheduled departure", -10 * time.Minute, Type3HWithin, 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Calculate(accepted, base.Add(tc.untilDep), base)
			if d.Type != tc.wantType || d.Amount != tc.wantAmount {
				t.Errorf("got (%s, %d), want (%s, %d)", d.Type, d.Amount, tc.wantType, tc.wantAmount)
			}
		})
	}
}

func TestCalculate_AcceptanceAnchorWins(t *testing.T) {
	// Cancelled 20 minutes after acceptance AND 2 hours before departure:
	// the acceptance rule takes precedence over the 3-hour band.
	accepted := base.Add(-20 * time.Minute)
	departure := base.Add(2 * time.Hour)
	d := Calculate(accepted, departure, base)
	if d.Type != Type30MinAfterAcceptance || d.Amount != 100 {
		t.Errorf("got (%s, %d), want (%s, 100)", d.Type, d.Amount, Type30MinAfterAcceptance)
	}

	// 31 minutes after acceptance the grace rule no longer applies.
	accepted = base.Add(-31 * time.Minute)
	d = Calculate(accepted, departure, base)
	if d.Type != Type3HWithin {
		t.Errorf("got %s, want %s", d.Type, Type3HWithin)
	}
}

func TestCalculate_NoAcceptanceTimestamp(t *testing.T) {
	// A zero acceptedAt (never accepted through the normal path) falls
	// through to the departure bands.
	d := Calculate(time.Time{}, base.Add(24*time.Hour), base)
	if d.Type != Type12HBefore {
		t.Errorf("got %s, want %s", d.Type, Type12HBefore)
	}
}

// memPenaltyStore and stubWallets cover the application path.
type memPenaltyStore struct {
	records []Record
	nextID  int64
}

func (m *memPenaltyStore) Create(_ context.Context, r *Record) error {
	m.nextID++
	r.ID = m.nextID
	m.records = append(m.records, *r)
	return nil
}

func (m *memPenaltyStore) ListByDriver(_ context.Context, driverID types.ID) ([]Record, error) {
	var out []Record
	for _, r := range m.records {
		if r.DriverID == driverID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memPenaltyStore) UpdateStatus(_ context.Context, id int64, status Status) error {
	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

type stubWallets struct {
	err    error
	debits []int64
}

func (s *stubWallets) Debit(_ context.Context, _ types.ID, amount int64, _ string, _ *types.ID) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.debits = append(s.debits, amount)
	return false, nil
}

func TestApplyCancellation_DebitFailureIsWarning(t *testing.T) {
	store := &memPenaltyStore{}
	wallets := &stubWallets{err: errors.New("insufficient wallet balance")}
	svc := NewService(store, wallets, nil)

	_, warning, err := svc.ApplyCancellation(
		context.Background(), "d1", "b1", "d1",
		base.Add(-2*time.Hour), base.Add(6*time.Hour), base,
	)
	if err != nil {
		t.Fatalf("apply must not fail on debit errors: %v", err)
	}
	if warning == "" {
		t.Error("expected a warning when the debit fails")
	}
	if len(store.records) != 1 || store.records[0].Status != StatusActive {
		t.Fatalf("record should stay active for later collection: %+v", store.records)
	}
}

func TestApplyCancellation_DebitSuccessMarksPaid(t *testing.T) {
	store := &memPenaltyStore{}
	wallets := &stubWallets{}
	svc := NewService(store, wallets, nil)

	d, warning, err := svc.ApplyCancellation(
		context.Background(), "d1", "b1", "d1",
		base.Add(-2*time.Hour), base.Add(6*time.Hour), base,
	)
	if err != nil || warning != "" {
		t.Fatalf("apply: err=%v warning=%q", err, warning)
	}
	if d.Type != Type12HWithin {
		t.Errorf("descriptor type = %s, want %s", d.Type, Type12HWithin)
	}
	if len(wallets.debits) != 1 || wallets.debits[0] != 300 {
		t.Errorf("debits = %v, want [300]", wallets.debits)
	}
	if store.records[0].Status != StatusPaid {
		t.Errorf("record status = %s, want paid", store.records[0].Status)
	}
}
