package exchange

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mrhb33/nautilus-backtest-go/services/account"
	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/events"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/instrument"
	"github.com/mrhb33/nautilus-backtest-go/services/marketdata"
	"github.com/mrhb33/nautilus-backtest-go/services/order"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

var testInstrumentId = ids.NewInstrumentId(ids.NewSymbol("AAPL"), ids.NewVenue("SIM"))

func newTestExchange(t *testing.T) *Exchange {
	t.Helper()
	venue := ids.NewVenue("SIM")
	acc := account.NewCash(ids.AccountIdForVenue(venue), value.USD)
	_ = acc.UpdateBalance(value.USD, decimal.NewFromInt(100000), decimal.Zero)
	x := New(venue, enums.OmsNetting, acc, nil)

	inst := instrument.NewEquity(testInstrumentId, value.USD, 0, 0, decimal.Zero, decimal.NewFromFloat(0.001))
	x.AddInstrument(inst)
	return x
}

// sinkCapture is a helper to let the sink closures in the tests below keep
// appending across calls while still giving the test a handle to read from.
type sinkCapture struct {
	events []events.OrderEvent
}

func TestExchangeProcessOrderEmitsAcceptedAndQueues(t *testing.T) {
	venue := ids.NewVenue("SIM")
	acc := account.NewCash(ids.AccountIdForVenue(venue), value.USD)
	x := New(venue, enums.OmsNetting, acc, nil)
	inst := instrument.NewEquity(testInstrumentId, value.USD, 0, 0, decimal.Zero, decimal.Zero)
	x.AddInstrument(inst)

	cap := &sinkCapture{}
	x.SetEventSink(func(ev events.OrderEvent) { cap.events = append(cap.events, ev) })

	o, err := order.New(order.NewOrderParams{
		ClientOrderId: ids.NewClientOrderId("O-1"),
		InstrumentId:  testInstrumentId,
		Side:          enums.OrderSideBuy,
		OrderType:     enums.OrderTypeMarket,
		TimeInForce:   enums.TimeInForceGTC,
		Quantity:      value.NewQuantity(decimal.NewFromInt(10), 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	x.ProcessOrder(o)

	if len(cap.events) != 1 || cap.events[0].Kind != events.KindOrderAccepted {
		t.Fatalf("expected a single OrderAccepted event, got %v", cap.events)
	}
}

func TestExchangeProcessBarSettlesFillAndUpdatesAccount(t *testing.T) {
	venue := ids.NewVenue("SIM")
	acc := account.NewCash(ids.AccountIdForVenue(venue), value.USD)
	_ = acc.UpdateBalance(value.USD, decimal.NewFromInt(100000), decimal.Zero)
	x := New(venue, enums.OmsNetting, acc, nil)
	inst := instrument.NewEquity(testInstrumentId, value.USD, 0, 0, decimal.Zero, decimal.NewFromFloat(0.001))
	x.AddInstrument(inst)

	cap := &sinkCapture{}
	x.SetEventSink(func(ev events.OrderEvent) { cap.events = append(cap.events, ev) })

	o, err := order.New(order.NewOrderParams{
		ClientOrderId: ids.NewClientOrderId("O-1"),
		InstrumentId:  testInstrumentId,
		Side:          enums.OrderSideBuy,
		OrderType:     enums.OrderTypeMarket,
		TimeInForce:   enums.TimeInForceGTC,
		Quantity:      value.NewQuantity(decimal.NewFromInt(10), 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	x.ProcessOrder(o)
	// Simulate the execution engine applying the OrderAccepted event the
	// sink just received, so the matching engine treats this order as open.
	_ = o.Apply(events.NewOrderSubmitted(o.TraderId, o.StrategyId, o.InstrumentId, o.ClientOrderId, 0))
	_ = o.Apply(cap.events[0])

	barType := marketdata.BarType{InstrumentId: testInstrumentId}
	bar := marketdata.Bar{
		BarType: barType,
		Open:    value.NewPrice(decimal.NewFromInt(100), 0),
		High:    value.NewPrice(decimal.NewFromInt(105), 0),
		Low:     value.NewPrice(decimal.NewFromInt(95), 0),
		Close:   value.NewPrice(decimal.NewFromInt(102), 0),
		Volume:  value.NewQuantity(decimal.NewFromInt(1), 0),
		TsEvent: 1,
	}
	x.ProcessBar(bar)

	var filled *events.OrderEvent
	for i := range cap.events {
		if cap.events[i].Kind == events.KindOrderFilled {
			filled = &cap.events[i]
		}
	}
	if filled == nil {
		t.Fatal("expected an OrderFilled event")
	}
	if !filled.LastPx.Decimal().Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected fill at the bar's open=100, got %s", filled.LastPx)
	}

	total, _ := acc.BalanceTotal(value.USD)
	// notional = 10 * 100 = 1000, commission = 1000 * 0.001 = 1, buy
	// decreases the balance by notional+commission.
	want := decimal.NewFromInt(100000).Sub(decimal.NewFromInt(1000)).Sub(decimal.NewFromInt(1))
	if !total.Amount.Equal(want) {
		t.Fatalf("expected balance=%s, got %s", want, total.Amount)
	}
}

func TestExchangeCancelOrderEmitsCanceled(t *testing.T) {
	x := newTestExchange(t)
	var received []events.OrderEvent
	x.SetEventSink(func(ev events.OrderEvent) { received = append(received, ev) })

	o, err := order.New(order.NewOrderParams{
		ClientOrderId: ids.NewClientOrderId("O-1"),
		InstrumentId:  testInstrumentId,
		Side:          enums.OrderSideBuy,
		OrderType:     enums.OrderTypeMarket,
		TimeInForce:   enums.TimeInForceGTC,
		Quantity:      value.NewQuantity(decimal.NewFromInt(10), 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	x.ProcessOrder(o)
	x.CancelOrder(o, 1)

	if len(received) != 2 || received[1].Kind != events.KindOrderCanceled {
		t.Fatalf("expected OrderAccepted followed by an OrderCanceled event, got %v", received)
	}
}
