package account

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

func TestNewCashAccountHasUnitLeverage(t *testing.T) {
	a := NewCash(ids.NewAccountId("ACCOUNT-SIM"), value.USD)
	if !a.Leverage.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected unit leverage for a cash account, got %s", a.Leverage)
	}
}

func TestUpdateBalanceCreatesEntryLazily(t *testing.T) {
	a := NewCash(ids.NewAccountId("ACCOUNT-SIM"), value.USD)
	if _, ok := a.BalanceTotal(value.USD); ok {
		t.Fatal("expected no balance before UpdateBalance")
	}
	if err := a.UpdateBalance(value.USD, decimal.NewFromInt(10000), decimal.Zero); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total, ok := a.BalanceTotal(value.USD)
	if !ok || !total.Amount.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("expected total=10000, got %v ok=%v", total, ok)
	}
}

func TestApplyFillDeltaAddsNotionalMinusCommission(t *testing.T) {
	a := NewCash(ids.NewAccountId("ACCOUNT-SIM"), value.USD)
	_ = a.UpdateBalance(value.USD, decimal.NewFromInt(10000), decimal.Zero)

	// A sell fill of notional +500 with a commission of 2.
	if err := a.ApplyFillDelta(value.USD, decimal.NewFromInt(500), decimal.NewFromInt(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total, _ := a.BalanceTotal(value.USD)
	if !total.Amount.Equal(decimal.NewFromInt(10498)) {
		t.Fatalf("expected total=10498, got %s", total.Amount)
	}
}

func TestApplyFillDeltaLazilyCreatesBalance(t *testing.T) {
	a := NewCash(ids.NewAccountId("ACCOUNT-SIM"), value.USD)
	if err := a.ApplyFillDelta(value.USD, decimal.NewFromInt(-100), decimal.NewFromInt(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total, ok := a.BalanceTotal(value.USD)
	if !ok {
		t.Fatal("expected a balance entry to have been created")
	}
	if !total.Amount.Equal(decimal.NewFromInt(-101)) {
		t.Fatalf("expected total=-101 against a zero starting balance, got %s", total.Amount)
	}
}

func TestUpdateCommissionAccumulatesPerCurrency(t *testing.T) {
	a := NewCash(ids.NewAccountId("ACCOUNT-SIM"), value.USD)
	a.UpdateCommission(value.USD, decimal.NewFromFloat(1.5))
	a.UpdateCommission(value.USD, decimal.NewFromFloat(2.5))
	totals := a.TotalCommissions()
	if !totals["USD"].Equal(decimal.NewFromInt(4)) {
		t.Fatalf("expected total commission=4, got %s", totals["USD"])
	}
}
