package ledger

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestChargeUsesFixedWeights(t *testing.T) {
	l := New()
	l.Charge(ActionMoveBy)
	l.Charge(ActionPickUp)
	l.Charge(ActionPutIn)
	if l.Cost() != 4 {
		t.Fatalf("expected cost 4, got %d", l.Cost())
	}
}

func TestZeroCostActions(t *testing.T) {
	l := New()
	for _, k := range []ActionKind{ActionInitScene, ActionVisibleObjects} {
		l.Charge(k)
	}
	if l.Cost() != 0 {
		t.Fatalf("expected 0, got %d", l.Cost())
	}
}

func TestPutInRebateNetsOne(t *testing.T) {
	l := New()
	l.Charge(ActionResetArm)
	l.Charge(ActionResetArm)
	l.Rebate(PutInRebate)
	if l.Cost() != Weights[ActionPutIn] {
		t.Fatalf("expected put_in net cost %d, got %d", Weights[ActionPutIn], l.Cost())
	}
}

func TestRebateIgnoresNonPositive(t *testing.T) {
	l := New()
	l.Charge(ActionGrasp)
	l.Rebate(0)
	l.Rebate(-3)
	if l.Cost() != 1 {
		t.Fatalf("expected 1, got %d", l.Cost())
	}
}

func TestResetZeroes(t *testing.T) {
	l := New()
	l.Charge(ActionMoveTo)
	l.Reset()
	if l.Cost() != 0 {
		t.Fatalf("expected 0 after reset, got %d", l.Cost())
	}
}

func TestChargeExportsCounter(t *testing.T) {
	before := testutil.ToFloat64(costTotal.WithLabelValues(string(ActionDrop)))
	New().Charge(ActionDrop)
	after := testutil.ToFloat64(costTotal.WithLabelValues(string(ActionDrop)))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, grew by %f", after-before)
	}
}

func TestChargeForBillsParent(t *testing.T) {
	parent := testutil.ToFloat64(costTotal.WithLabelValues(string(ActionPutIn)))
	child := testutil.ToFloat64(costTotal.WithLabelValues(string(ActionResetArm)))

	l := New()
	l.ChargeFor(ActionResetArm, ActionPutIn)
	l.ChargeFor(ActionResetArm, ActionPutIn)
	if l.Cost() != 2*Weights[ActionResetArm] {
		t.Fatalf("expected cost %d, got %d", 2*Weights[ActionResetArm], l.Cost())
	}
	if got := testutil.ToFloat64(costTotal.WithLabelValues(string(ActionPutIn))) - parent; got != 2 {
		t.Errorf("expected put_in series to grow by 2, grew by %f", got)
	}
	if got := testutil.ToFloat64(costTotal.WithLabelValues(string(ActionResetArm))) - child; got != 0 {
		t.Errorf("reset_arm series should not move, grew by %f", got)
	}
}
