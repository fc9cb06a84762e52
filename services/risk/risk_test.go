package risk

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mrhb33/nautilus-backtest-go/services/cache"
	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/instrument"
	"github.com/mrhb33/nautilus-backtest-go/services/order"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

var testInstrumentId = ids.NewInstrumentId(ids.NewSymbol("AAPL"), ids.NewVenue("SIM"))

func newRiskTestCache() *cache.Cache {
	c := cache.New()
	inst := instrument.NewEquity(testInstrumentId, value.USD, 2, 0, decimal.Zero, decimal.Zero)
	c.AddInstrument(inst)
	return c
}

func newTestOrder(t *testing.T, side enums.OrderSide, qty decimal.Decimal, qtyPrec int32) *order.Order {
	t.Helper()
	o, err := order.New(order.NewOrderParams{
		ClientOrderId: ids.NewClientOrderId("O-1"),
		InstrumentId:  testInstrumentId,
		Side:          side,
		OrderType:     enums.OrderTypeMarket,
		TimeInForce:   enums.TimeInForceGTC,
		Quantity:      value.NewQuantity(qty, qtyPrec),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return o
}

func TestRiskValidateOrderPassesWithKnownInstrument(t *testing.T) {
	c := newRiskTestCache()
	r := New(c, nil, nil)
	o := newTestOrder(t, enums.OrderSideBuy, decimal.NewFromInt(10), 0)

	if _, denied := r.ValidateOrder(o, 1); denied {
		t.Fatal("expected order to pass validation")
	}
}

func TestRiskValidateOrderDeniesWhenHalted(t *testing.T) {
	c := newRiskTestCache()
	r := New(c, nil, nil)
	r.SetTradingState(enums.TradingStateHalted)
	o := newTestOrder(t, enums.OrderSideBuy, decimal.NewFromInt(10), 0)

	ev, denied := r.ValidateOrder(o, 1)
	if !denied {
		t.Fatal("expected denial while HALTED")
	}
	if ev.Reason == "" {
		t.Fatal("expected a denial reason")
	}
}

func TestRiskValidateOrderDeniesUnknownInstrument(t *testing.T) {
	c := cache.New()
	r := New(c, nil, nil)
	o := newTestOrder(t, enums.OrderSideBuy, decimal.NewFromInt(10), 0)

	if _, denied := r.ValidateOrder(o, 1); !denied {
		t.Fatal("expected denial for an instrument absent from the cache")
	}
}

func TestRiskValidateOrderDeniesWrongQuantityPrecision(t *testing.T) {
	c := newRiskTestCache()
	r := New(c, nil, nil)
	// The instrument's size precision is 0; supply precision 2 instead.
	o := newTestOrder(t, enums.OrderSideBuy, decimal.NewFromInt(10), 2)

	if _, denied := r.ValidateOrder(o, 1); !denied {
		t.Fatal("expected denial for mismatched quantity precision")
	}
}

func TestRiskValidateOrderReducingGateAllowsReducingOrder(t *testing.T) {
	c := newRiskTestCache()
	// Net position is long (sign=+1); a SELL reduces it and must pass.
	r := New(c, func(o *order.Order) int { return 1 }, nil)
	r.SetTradingState(enums.TradingStateReducing)
	o := newTestOrder(t, enums.OrderSideSell, decimal.NewFromInt(5), 0)

	if _, denied := r.ValidateOrder(o, 1); denied {
		t.Fatal("expected a reducing SELL against a long position to pass")
	}
}

func TestRiskValidateOrderReducingGateDeniesIncreasingOrder(t *testing.T) {
	c := newRiskTestCache()
	r := New(c, func(o *order.Order) int { return 1 }, nil)
	r.SetTradingState(enums.TradingStateReducing)
	o := newTestOrder(t, enums.OrderSideBuy, decimal.NewFromInt(5), 0)

	if _, denied := r.ValidateOrder(o, 1); !denied {
		t.Fatal("expected a BUY that increases a long position to be denied while REDUCING")
	}
}

func newStopMarketOrder(t *testing.T, trigger value.Price) *order.Order {
	t.Helper()
	o, err := order.New(order.NewOrderParams{
		ClientOrderId: ids.NewClientOrderId("O-1"),
		InstrumentId:  testInstrumentId,
		Side:          enums.OrderSideBuy,
		OrderType:     enums.OrderTypeStopMarket,
		TimeInForce:   enums.TimeInForceGTC,
		Quantity:      value.NewQuantity(decimal.NewFromInt(10), 0),
		TriggerPrice:  &trigger,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return o
}

func TestRiskValidateOrderDeniesNonPositiveTriggerPrice(t *testing.T) {
	c := newRiskTestCache()
	r := New(c, nil, nil)
	o := newStopMarketOrder(t, value.NewPrice(decimal.NewFromInt(0), 2))

	if _, denied := r.ValidateOrder(o, 1); !denied {
		t.Fatal("expected denial for a non-positive trigger price")
	}
}

func TestRiskValidateOrderDeniesWrongTriggerPricePrecision(t *testing.T) {
	c := newRiskTestCache()
	r := New(c, nil, nil)
	// The instrument's price precision is 2; supply precision 0 instead.
	o := newStopMarketOrder(t, value.NewPrice(decimal.NewFromInt(100), 0))

	if _, denied := r.ValidateOrder(o, 1); !denied {
		t.Fatal("expected denial for mismatched trigger price precision")
	}
}

func TestRiskValidateOrderPassesWithValidTriggerPrice(t *testing.T) {
	c := newRiskTestCache()
	r := New(c, nil, nil)
	o := newStopMarketOrder(t, value.NewPrice(decimal.NewFromInt(100), 2))

	if _, denied := r.ValidateOrder(o, 1); denied {
		t.Fatal("expected a valid stop-market trigger price to pass")
	}
}
