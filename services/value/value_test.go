package value

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceRoundsToPrecision(t *testing.T) {
	raw, _ := decimal.NewFromString("1.005")
	p := NewPrice(raw, 2)
	if p.String() != "1.01" {
		t.Fatalf("unexpected rounding: %s", p.String())
	}
}

func TestQuantityPanicsOnNegative(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on negative quantity")
		}
	}()
	NewQuantity(decimal.NewFromInt(-1), 0)
}

func TestMoneyArithmeticRejectsCurrencyMismatch(t *testing.T) {
	usd := NewMoney(decimal.NewFromInt(100), USD)
	btc := NewMoney(decimal.NewFromInt(1), BTC)
	if _, err := usd.Add(btc); err == nil {
		t.Fatal("expected currency mismatch error")
	}
}

func TestAccountBalanceFreeInvariant(t *testing.T) {
	total := NewMoney(decimal.NewFromInt(1000), USD)
	locked := NewMoney(decimal.NewFromInt(200), USD)
	bal, err := NewAccountBalance(total, locked)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bal.Free.Amount.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("expected free=800, got %s", bal.Free.Amount)
	}
}

func TestAccountBalanceWithTotalPreservesLocked(t *testing.T) {
	total := NewMoney(decimal.NewFromInt(1000), USD)
	locked := NewMoney(decimal.NewFromInt(200), USD)
	bal, _ := NewAccountBalance(total, locked)

	updated, err := bal.WithTotal(NewMoney(decimal.NewFromInt(1500), USD))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.Locked.Amount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected locked unchanged, got %s", updated.Locked.Amount)
	}
	if !updated.Free.Amount.Equal(decimal.NewFromInt(1300)) {
		t.Fatalf("expected free=1300, got %s", updated.Free.Amount)
	}
}
