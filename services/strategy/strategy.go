// Package strategy implements the adapter from §4.10: the Strategy
// interface every user strategy satisfies, a no-op BaseStrategy to embed,
// an OrderFactory, the Indicator contract, and the Runtime that wires a
// strategy to the kernel. Grounded on the source's Strategy class; Go's
// lack of inheritance is bridged by embedding BaseStrategy so a strategy
// overriding none of the callbacks still satisfies the interface at zero
// extra cost beyond an ordinary vtable call.
package strategy

import (
	"fmt"

	"github.com/mrhb33/nautilus-backtest-go/services/bus"
	"github.com/mrhb33/nautilus-backtest-go/services/cache"
	"github.com/mrhb33/nautilus-backtest-go/services/clock"
	"github.com/mrhb33/nautilus-backtest-go/services/dataengine"
	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/events"
	"github.com/mrhb33/nautilus-backtest-go/services/execution"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/marketdata"
	"github.com/mrhb33/nautilus-backtest-go/services/order"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

// Indicator is the minimal contract the kernel drives; internals
// (SMA/EMA/ATR math) are out of scope and left to the caller.
type Indicator interface {
	HandleBar(bar marketdata.Bar)
	Initialized() bool
}

// Strategy is satisfied by every user strategy. Embed BaseStrategy to get
// no-op defaults for callbacks you don't care about.
type Strategy interface {
	Id() ids.StrategyId
	OnStart()
	OnStop()
	OnReset()
	OnBar(bar marketdata.Bar)
	OnQuoteTick(tick marketdata.QuoteTick)
	OnTradeTick(tick marketdata.TradeTick)
	OnOrderEvent(ev events.OrderEvent)
	OnPositionEvent(ev events.PositionEvent)
	bindRuntime(r *Runtime)
}

// BaseStrategy supplies no-op defaults for every Strategy method. Embed
// it by value in a concrete strategy and override only what's needed.
type BaseStrategy struct {
	StrategyId ids.StrategyId
	Runtime    *Runtime
}

func (b *BaseStrategy) Id() ids.StrategyId { return b.StrategyId }
func (b *BaseStrategy) OnStart()           {}
func (b *BaseStrategy) OnStop()            {}
func (b *BaseStrategy) OnReset()           {}
func (b *BaseStrategy) OnBar(marketdata.Bar)             {}
func (b *BaseStrategy) OnQuoteTick(marketdata.QuoteTick) {}
func (b *BaseStrategy) OnTradeTick(marketdata.TradeTick) {}
func (b *BaseStrategy) OnOrderEvent(events.OrderEvent)       {}
func (b *BaseStrategy) OnPositionEvent(events.PositionEvent) {}
func (b *BaseStrategy) bindRuntime(r *Runtime)                { b.Runtime = r }

// OrderFactory issues monotonically increasing ClientOrderIds of the form
// O-{strategy_id}-{n}, per §4.10.
type OrderFactory struct {
	strategyId ids.StrategyId
	traderId   ids.TraderId
	seq        int
}

func NewOrderFactory(strategyId ids.StrategyId, traderId ids.TraderId) *OrderFactory {
	return &OrderFactory{strategyId: strategyId, traderId: traderId}
}

func (f *OrderFactory) nextClientOrderId() ids.ClientOrderId {
	f.seq++
	return ids.NewClientOrderId(fmt.Sprintf("O-%s-%d", f.strategyId, f.seq))
}

func (f *OrderFactory) Market(instrumentId ids.InstrumentId, side enums.OrderSide, qty value.Quantity, ts int64) (*order.Order, error) {
	return order.New(order.NewOrderParams{
		ClientOrderId: f.nextClientOrderId(), InstrumentId: instrumentId, TraderId: f.traderId,
		StrategyId: f.strategyId, Side: side, OrderType: enums.OrderTypeMarket,
		TimeInForce: enums.TimeInForceGTC, Quantity: qty, TsInit: ts,
	})
}

func (f *OrderFactory) Limit(instrumentId ids.InstrumentId, side enums.OrderSide, qty value.Quantity, price value.Price, ts int64) (*order.Order, error) {
	return order.New(order.NewOrderParams{
		ClientOrderId: f.nextClientOrderId(), InstrumentId: instrumentId, TraderId: f.traderId,
		StrategyId: f.strategyId, Side: side, OrderType: enums.OrderTypeLimit,
		TimeInForce: enums.TimeInForceGTC, Quantity: qty, Price: &price, TsInit: ts,
	})
}

func (f *OrderFactory) StopMarket(instrumentId ids.InstrumentId, side enums.OrderSide, qty value.Quantity, triggerPrice value.Price, ts int64) (*order.Order, error) {
	return order.New(order.NewOrderParams{
		ClientOrderId: f.nextClientOrderId(), InstrumentId: instrumentId, TraderId: f.traderId,
		StrategyId: f.strategyId, Side: side, OrderType: enums.OrderTypeStopMarket,
		TimeInForce: enums.TimeInForceGTC, Quantity: qty, TriggerPrice: &triggerPrice, TsInit: ts,
	})
}

func (f *OrderFactory) StopLimit(instrumentId ids.InstrumentId, side enums.OrderSide, qty value.Quantity, triggerPrice, price value.Price, ts int64) (*order.Order, error) {
	return order.New(order.NewOrderParams{
		ClientOrderId: f.nextClientOrderId(), InstrumentId: instrumentId, TraderId: f.traderId,
		StrategyId: f.strategyId, Side: side, OrderType: enums.OrderTypeStopLimit,
		TimeInForce: enums.TimeInForceGTC, Quantity: qty, Price: &price, TriggerPrice: &triggerPrice, TsInit: ts,
	})
}

// Runtime owns the references a registered strategy is injected with:
// clock, cache, bus, order factory, and handles to the execution and data
// engines. It also owns the indicator registration table and dispatches
// one event kind to one callback, so a strategy overriding none of the
// event handlers pays no cost beyond the no-op call.
type Runtime struct {
	Clock      clock.Clock
	Cache      *cache.Cache
	Bus        *bus.MessageBus
	Factory    *OrderFactory
	Execution  *execution.Engine
	DataEngine *dataengine.DataEngine

	strategy   Strategy
	indicators map[marketdata.BarType][]Indicator
}

func NewRuntime(strategy Strategy, traderId ids.TraderId, clk clock.Clock, c *cache.Cache, b *bus.MessageBus, exec *execution.Engine, data *dataengine.DataEngine) *Runtime {
	r := &Runtime{
		Clock: clk, Cache: c, Bus: b, Execution: exec, DataEngine: data,
		Factory:    NewOrderFactory(strategy.Id(), traderId),
		strategy:   strategy,
		indicators: make(map[marketdata.BarType][]Indicator),
	}
	strategy.bindRuntime(r)

	b.Subscribe(fmt.Sprintf("events.order.%s", strategy.Id()), func(msg any) {
		if ev, ok := msg.(events.OrderEvent); ok {
			strategy.OnOrderEvent(ev)
		}
	})
	b.Subscribe(fmt.Sprintf("events.position.%s", strategy.Id()), func(msg any) {
		if ev, ok := msg.(events.PositionEvent); ok {
			strategy.OnPositionEvent(ev)
		}
	})
	return r
}

// RegisterIndicator adds an indicator to be fed every bar of barType, in
// registration order, before OnBar is called.
func (r *Runtime) RegisterIndicator(barType marketdata.BarType, ind Indicator) {
	r.indicators[barType] = append(r.indicators[barType], ind)
}

// SubscribeBars wires a bus subscription whose handler feeds every
// registered indicator for that bar type, in registration order, then
// calls the strategy's OnBar.
func (r *Runtime) SubscribeBars(barType marketdata.BarType) bus.Subscription {
	return r.DataEngine.SubscribeBars(barType, func(msg any) {
		bar, ok := msg.(marketdata.Bar)
		if !ok {
			return
		}
		for _, ind := range r.indicators[barType] {
			ind.HandleBar(bar)
		}
		r.strategy.OnBar(bar)
	})
}

func (r *Runtime) SubscribeQuoteTicks(instrumentId ids.InstrumentId) bus.Subscription {
	return r.DataEngine.SubscribeQuoteTicks(instrumentId, func(msg any) {
		if t, ok := msg.(marketdata.QuoteTick); ok {
			r.strategy.OnQuoteTick(t)
		}
	})
}

func (r *Runtime) SubscribeTradeTicks(instrumentId ids.InstrumentId) bus.Subscription {
	return r.DataEngine.SubscribeTradeTicks(instrumentId, func(msg any) {
		if t, ok := msg.(marketdata.TradeTick); ok {
			r.strategy.OnTradeTick(t)
		}
	})
}

func (r *Runtime) SubmitOrder(o *order.Order) error {
	return r.Execution.SubmitOrder(o, r.Clock.TimestampNs())
}

func (r *Runtime) CancelOrder(o *order.Order) {
	r.Execution.CancelOrder(o, r.Clock.TimestampNs())
}

// ModifyOrder requests a quantity/price/trigger_price change on a working
// order. Any of quantity, price, triggerPrice may be nil to leave that
// field unchanged.
func (r *Runtime) ModifyOrder(o *order.Order, quantity *value.Quantity, price *value.Price, triggerPrice *value.Price) {
	r.Execution.ModifyOrder(o, quantity, price, triggerPrice, r.Clock.TimestampNs())
}

func (r *Runtime) CancelAllOrders(instrumentId ids.InstrumentId) {
	strategyId := r.strategy.Id()
	for _, o := range r.Cache.OrdersOpen(&instrumentId, &strategyId) {
		r.CancelOrder(o)
	}
}
