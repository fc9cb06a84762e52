// Package exchange implements the per-venue SimulatedExchange from §4.5:
// it owns the account, a matching.Engine, and the fee schedule, and turns
// matched fills into account balance updates before forwarding the
// OrderFilled event onward. Grounded on the source's SimulatedExchange.
package exchange

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mrhb33/nautilus-backtest-go/services/account"
	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/events"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/instrument"
	"github.com/mrhb33/nautilus-backtest-go/services/marketdata"
	"github.com/mrhb33/nautilus-backtest-go/services/matching"
	"github.com/mrhb33/nautilus-backtest-go/services/order"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

// EventSink receives every event the exchange produces, en route to the
// execution engine. A plain function rather than an interface keeps the
// wiring symmetrical with bus.Handler.
type EventSink func(events.OrderEvent)

type Exchange struct {
	Venue       ids.Venue
	OmsType     enums.OmsType
	Account     *account.Account
	matching    *matching.Engine
	instruments map[ids.InstrumentId]instrument.Instrument
	sink        EventSink
	logger      *zap.Logger
}

func New(venue ids.Venue, omsType enums.OmsType, acc *account.Account, logger *zap.Logger) *Exchange {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exchange{
		Venue:       venue,
		OmsType:     omsType,
		Account:     acc,
		matching:    matching.New(venue),
		instruments: make(map[ids.InstrumentId]instrument.Instrument),
		logger:      logger,
	}
}

func (x *Exchange) SetEventSink(sink EventSink) { x.sink = sink }

func (x *Exchange) AddInstrument(inst instrument.Instrument) {
	x.instruments[inst.ID()] = inst
}

func (x *Exchange) emit(ev events.OrderEvent) {
	if x.sink != nil {
		x.sink(ev)
	}
}

// ProcessOrder assigns the venue order id, emits OrderAccepted and queues
// the order in the matching engine.
func (x *Exchange) ProcessOrder(o *order.Order) {
	venueOrderId := x.matching.NextVenueOrderId()
	x.emit(events.NewOrderAccepted(o.TraderId, o.StrategyId, o.InstrumentId, o.ClientOrderId, venueOrderId, o.TsInit))
	x.matching.ProcessOrder(o)
}

func (x *Exchange) CancelOrder(o *order.Order, ts int64) {
	x.matching.CancelOrder(o.ClientOrderId)
	x.emit(events.OrderEvent{
		Kind: events.KindOrderCanceled, TraderId: o.TraderId, StrategyId: o.StrategyId,
		InstrumentId: o.InstrumentId, ClientOrderId: o.ClientOrderId, VenueOrderId: o.VenueOrderId,
		TsEvent: ts, TsInit: ts,
	})
}

// ModifyOrder routes a working order through PENDING_UPDATE before
// applying the change: ACCEPTED -> PENDING_UPDATE on OrderPendingUpdate,
// then PENDING_UPDATE -> ACCEPTED on OrderUpdated, matching the table's
// legal path for updating a live order. Per the design
// notes, this does not re-invoke the risk gate.
func (x *Exchange) ModifyOrder(o *order.Order, quantity *value.Quantity, price *value.Price, triggerPrice *value.Price, ts int64) {
	x.emit(events.OrderEvent{
		Kind: events.KindOrderPendingUpdate, TraderId: o.TraderId, StrategyId: o.StrategyId,
		InstrumentId: o.InstrumentId, ClientOrderId: o.ClientOrderId, VenueOrderId: o.VenueOrderId,
		TsEvent: ts, TsInit: ts,
	})
	x.emit(events.OrderEvent{
		Kind: events.KindOrderUpdated, TraderId: o.TraderId, StrategyId: o.StrategyId,
		InstrumentId: o.InstrumentId, ClientOrderId: o.ClientOrderId, VenueOrderId: o.VenueOrderId,
		Quantity: quantity, Price: price, TriggerPrice: triggerPrice,
		TsEvent: ts, TsInit: ts,
	})
}

// ProcessBar delegates matching to the matching engine, then for each
// resulting fill: computes signed notional and commission, updates the
// account balance, and forwards the tagged OrderFilled event.
func (x *Exchange) ProcessBar(bar marketdata.Bar) {
	results := x.matching.ProcessBar(bar)
	for _, res := range results {
		x.settleFill(res, bar.TsEvent)
	}
}

func (x *Exchange) settleFill(res matching.FillResult, ts int64) {
	o := res.Order
	inst, ok := x.instruments[o.InstrumentId]
	if !ok {
		x.logger.Error("fill on unregistered instrument", zap.String("instrument_id", o.InstrumentId.String()))
		return
	}

	qty := o.LeavesQty.Decimal()
	px := res.FillPx.Decimal()
	notional := qty.Mul(px).Mul(inst.Multiplier())
	commissionAmount := notional.Mul(inst.TakerFee()).Abs()
	commission := value.NewMoney(commissionAmount, inst.QuoteCurrency())

	signedNotional := notional
	if o.Side == enums.OrderSideBuy {
		signedNotional = notional.Neg()
	}

	if err := x.Account.ApplyFillDelta(inst.QuoteCurrency(), signedNotional, commissionAmount); err != nil {
		x.logger.Error("account balance update failed", zap.Error(err))
		return
	}
	x.Account.UpdateCommission(inst.QuoteCurrency(), commissionAmount)

	filled := matching.BuildFilledEvent(o, x.Account.Id, res.FillPx, res.TradeId, inst.QuoteCurrency(), commission, ts)
	x.emit(filled)
}

func (x *Exchange) String() string {
	return fmt.Sprintf("Exchange(%s, oms=%s)", x.Venue, x.OmsType)
}
