// Package execution implements the ExecutionEngine from §4.7: order
// lifecycle coordination through the risk gate, routing to the venue's
// exchange, and turning fills into position mutations under NETTING or
// HEDGING. Grounded on the source's ExecutionEngine.
package execution

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/mrhb33/nautilus-backtest-go/services/bus"
	"github.com/mrhb33/nautilus-backtest-go/services/cache"
	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/events"
	"github.com/mrhb33/nautilus-backtest-go/services/exchange"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/order"
	"github.com/mrhb33/nautilus-backtest-go/services/position"
	"github.com/mrhb33/nautilus-backtest-go/services/risk"
	"github.com/mrhb33/nautilus-backtest-go/services/telemetry"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

func orderEventTopic(strategyId ids.StrategyId) string { return fmt.Sprintf("events.order.%s", strategyId) }
func positionEventTopic(strategyId ids.StrategyId) string {
	return fmt.Sprintf("events.position.%s", strategyId)
}

type venueBinding struct {
	exchange *exchange.Exchange
	omsType  enums.OmsType
}

type Engine struct {
	cache          *cache.Cache
	bus            *bus.MessageBus
	risk           *risk.RiskEngine
	metrics        *telemetry.Metrics
	venues         map[ids.Venue]venueBinding
	positionSeq    int
	logger         *zap.Logger
}

func New(c *cache.Cache, b *bus.MessageBus, riskEngine *risk.RiskEngine, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cache:  c,
		bus:    b,
		risk:   riskEngine,
		venues: make(map[ids.Venue]venueBinding),
		logger: logger,
	}
}

// SetMetrics attaches the driver's telemetry so order submission, denial
// and fill counters get incremented as the engine processes events. A nil
// or never-set metrics leaves the counters untouched.
func (e *Engine) SetMetrics(m *telemetry.Metrics) { e.metrics = m }

func (e *Engine) RegisterVenue(venue ids.Venue, x *exchange.Exchange, omsType enums.OmsType) {
	e.venues[venue] = venueBinding{exchange: x, omsType: omsType}
	x.SetEventSink(e.ProcessEvent)
}

// SubmitOrder runs the risk gate; on deny it publishes OrderDenied without
// persisting the order. On pass it persists the order, transitions it to
// SUBMITTED, and routes it to the venue.
func (e *Engine) SubmitOrder(o *order.Order, ts int64) error {
	if e.risk != nil {
		if denied, ok := e.risk.ValidateOrder(o, ts); ok {
			if err := o.Apply(denied); err != nil {
				return err
			}
			e.bus.Publish(orderEventTopic(o.StrategyId), denied)
			if e.metrics != nil {
				e.metrics.OrdersDenied.Inc()
			}
			return nil
		}
	}

	submitted := events.NewOrderSubmitted(o.TraderId, o.StrategyId, o.InstrumentId, o.ClientOrderId, ts)
	if err := o.Apply(submitted); err != nil {
		return err
	}
	e.cache.AddOrder(o)
	e.bus.Publish(orderEventTopic(o.StrategyId), submitted)
	if e.metrics != nil {
		e.metrics.OrdersSubmitted.Inc()
	}

	if binding, ok := e.venues[o.InstrumentId.Venue]; ok {
		binding.exchange.ProcessOrder(o)
	}
	return nil
}

func (e *Engine) CancelOrder(o *order.Order, ts int64) {
	if binding, ok := e.venues[o.InstrumentId.Venue]; ok {
		binding.exchange.CancelOrder(o, ts)
	}
}

// ModifyOrder forwards a change to the order's venue. A new quantity below
// the order's FilledQty is rejected here: it is logged and never forwarded.
func (e *Engine) ModifyOrder(o *order.Order, quantity *value.Quantity, price *value.Price, triggerPrice *value.Price, ts int64) {
	if quantity != nil && quantity.Decimal().LessThan(o.FilledQty.Decimal()) {
		e.logger.Error("modify rejected: new quantity below filled quantity",
			zap.String("client_order_id", o.ClientOrderId.String()))
		return
	}
	if binding, ok := e.venues[o.InstrumentId.Venue]; ok {
		binding.exchange.ModifyOrder(o, quantity, price, triggerPrice, ts)
	}
}

// ProcessEvent looks up the order by client-order-id, applies the event
// (the FSM enforces the transition), publishes it, and for fills
// dispatches to position handling.
func (e *Engine) ProcessEvent(ev events.OrderEvent) {
	o, ok := e.cache.Order(ev.ClientOrderId)
	if !ok {
		return
	}
	if err := o.Apply(ev); err != nil {
		e.logger.Error("order event rejected by FSM", zap.Error(err))
		panic(err)
	}
	e.cache.UpdateOrder(o)
	e.bus.Publish(orderEventTopic(o.StrategyId), ev)

	if ev.Kind == events.KindOrderFilled {
		e.handleFill(ev, o)
	}
}

func (e *Engine) handleFill(ev events.OrderEvent, o *order.Order) {
	if e.metrics != nil {
		e.metrics.OrdersFilled.Inc()
	}

	omsType := enums.OmsHedging
	if binding, ok := e.venues[o.InstrumentId.Venue]; ok {
		omsType = binding.omsType
	}

	if omsType == enums.OmsNetting {
		e.handleFillNetting(ev, o)
	} else {
		e.handleFillHedging(ev, o)
	}
}

func (e *Engine) handleFillNetting(ev events.OrderEvent, o *order.Order) {
	instrumentId := o.InstrumentId
	open := e.cache.PositionsOpen(&instrumentId, &o.StrategyId)
	if len(open) > 0 {
		e.applyToPosition(open[0], ev, o)
		return
	}
	e.openPosition(ev, o)
}

func (e *Engine) handleFillHedging(ev events.OrderEvent, o *order.Order) {
	if !ev.PositionId.IsEmpty() {
		if pos, ok := e.cache.Position(ev.PositionId); ok {
			e.applyToPosition(pos, ev, o)
			return
		}
	}

	instrumentId := o.InstrumentId
	open := e.cache.PositionsOpen(&instrumentId, &o.StrategyId)
	if len(open) > 0 {
		e.applyToPosition(open[0], ev, o)
		return
	}
	e.openPosition(ev, o)
}

func (e *Engine) applyToPosition(pos *position.Position, ev events.OrderEvent, o *order.Order) {
	pos.Apply(ev)
	e.cache.UpdatePosition(pos)

	if pos.IsClosed() {
		e.bus.Publish(positionEventTopic(o.StrategyId), events.PositionEvent{
			Kind: events.KindPositionClosed, TraderId: ev.TraderId, StrategyId: ev.StrategyId,
			InstrumentId: o.InstrumentId, PositionId: pos.Id, TsEvent: ev.TsEvent, TsInit: ev.TsInit,
		})
		return
	}
	e.bus.Publish(positionEventTopic(o.StrategyId), events.PositionEvent{
		Kind: events.KindPositionChanged, TraderId: ev.TraderId, StrategyId: ev.StrategyId,
		InstrumentId: o.InstrumentId, PositionId: pos.Id, PositionSide: pos.Side,
		SignedQty: pos.Quantity(), TsEvent: ev.TsEvent, TsInit: ev.TsInit,
	})
}

func (e *Engine) openPosition(ev events.OrderEvent, o *order.Order) {
	e.positionSeq++
	positionId := ids.NewPositionId("P-" + strconv.Itoa(e.positionSeq))
	pos := position.New(o.InstrumentId, positionId, ev)
	e.cache.AddPosition(pos)

	e.bus.Publish(positionEventTopic(o.StrategyId), events.PositionEvent{
		Kind: events.KindPositionOpened, TraderId: ev.TraderId, StrategyId: ev.StrategyId,
		InstrumentId: o.InstrumentId, PositionId: positionId, PositionSide: pos.Side,
		SignedQty: pos.Quantity(), AvgPxOpen: ev.LastPx, LastPx: ev.LastPx, Currency: ev.Commission.Currency,
		TsEvent: ev.TsEvent, TsInit: ev.TsInit,
	})
}
