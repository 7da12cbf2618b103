// README: Settlement splitter tests (conservation, collection ordering).
package payment

import (
	"errors"
	"testing"
	"time"

	"vahan/internal/modules/pricing"
)

func TestSplit_PartialPlan(t *testing.T) {
	p := Split(1000, MethodCash, pricing.CategoryCar, 30)
	if !p.Partial() {
		t.Fatal("car + cash must produce a partial plan")
	}
	if p.Online.Amount != 300 || p.Cash.Amount != 700 {
		t.Errorf("split = {online:%d cash:%d}, want {300, 700}", p.Online.Amount, p.Cash.Amount)
	}
	if p.Online.Status != PortionPending || p.Cash.Status != PortionPending {
		t.Error("both portions must start pending")
	}
}

func TestSplit_Conservation(t *testing.T) {
	// The cash leg is the remainder, so no total can leak a rupee.
	for total := int64(1); total <= 5000; total++ {
		p := Split(total, MethodCash, pricing.CategoryBus, 30)
		if p.Online.Amount+p.Cash.Amount != total {
			t.Fatalf("total %d: online %d + cash %d != total", total, p.Online.Amount, p.Cash.Amount)
		}
	}
}

func TestSplit_FullPlans(t *testing.T) {
	cases := []struct {
		method   Method
		category pricing.Category
	}{
		{MethodOnline, pricing.CategoryCar},
		{MethodOnline, pricing.CategoryAuto},
		{MethodCash, pricing.CategoryAuto}, // autos are never split
	}
	for _, tc := range cases {
		p := Split(750, tc.method, tc.category, 30)
		if p.Partial() {
			t.Errorf("%s/%s: expected a full plan", tc.method, tc.category)
		}
		if p.Total != 750 || p.Status != StatusPending {
			t.Errorf("%s/%s: plan = %+v", tc.method, tc.category, p)
		}
	}
}

func TestCommission(t *testing.T) {
	if got := Commission(700, 20); got != 140 {
		t.Errorf("Commission(700) = %d, want 140", got)
	}
	if got := Commission(703, 20); got != 141 { // 140.6 rounds up
		t.Errorf("Commission(703) = %d, want 141", got)
	}
}

func TestMarkCashCollected_RequiresOnlineFirst(t *testing.T) {
	now := time.Now()
	p := Split(1000, MethodCash, pricing.CategoryCar, 30)

	if err := p.MarkCashCollected(&now); !errors.Is(err, ErrOnlineIncomplete) {
		t.Fatalf("want ErrOnlineIncomplete, got %v", err)
	}

	p.MarkOnlinePaid("pay_123", &now)
	if p.Status == StatusCompleted {
		t.Fatal("plan must not complete on the online leg alone")
	}
	if err := p.MarkCashCollected(&now); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if p.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", p.Status)
	}
	if err := p.MarkCashCollected(&now); !errors.Is(err, ErrAlreadyCollected) {
		t.Errorf("want ErrAlreadyCollected on double collect, got %v", err)
	}
}

func TestRefundableAmount(t *testing.T) {
	now := time.Now()

	partial := Split(1000, MethodCash, pricing.CategoryCar, 30)
	if got := partial.RefundableAmount(); got != 0 {
		t.Errorf("unpaid partial plan refund = %d, want 0", got)
	}
	partial.MarkOnlinePaid("pay_1", &now)
	if got := partial.RefundableAmount(); got != 300 {
		t.Errorf("paid partial plan refund = %d, want online portion 300", got)
	}

	full := Split(1000, MethodOnline, pricing.CategoryCar, 30)
	if got := full.RefundableAmount(); got != 0 {
		t.Errorf("unpaid full plan refund = %d, want 0", got)
	}
	full.MarkOnlinePaid("pay_2", &now)
	if got := full.RefundableAmount(); got != 1000 {
		t.Errorf("paid full plan refund = %d, want 1000", got)
	}
}
