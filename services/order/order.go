// Package order implements the four order variants and the event-sourced
// finite state machine that mutates them. Grounded on the source's Order
// hierarchy, re-expressed with composition: OrderType-specific fields
// (Price, TriggerPrice) live directly on Order behind pointers rather than
// on per-type subclasses, since Go has no inheritance and a closed,
// four-member variant set does not justify an interface here.
package order

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/events"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

// TransitionTable maps each order status to the set of statuses it may move
// to next; eventTargetStatus maps event kinds to their target status.
// Mirrors spec's OrderStatus transition table exactly.
var TransitionTable = map[enums.OrderStatus]map[enums.OrderStatus]bool{
	enums.OrderStatusInitialized: {
		enums.OrderStatusDenied:    true,
		enums.OrderStatusSubmitted: true,
	},
	enums.OrderStatusSubmitted: {
		enums.OrderStatusAccepted: true,
		enums.OrderStatusRejected: true,
		enums.OrderStatusCanceled: true,
	},
	enums.OrderStatusAccepted: {
		enums.OrderStatusCanceled:        true,
		enums.OrderStatusExpired:         true,
		enums.OrderStatusTriggered:       true,
		enums.OrderStatusPendingUpdate:   true,
		enums.OrderStatusPendingCancel:   true,
		enums.OrderStatusPartiallyFilled: true,
		enums.OrderStatusFilled:          true,
	},
	enums.OrderStatusTriggered: {
		enums.OrderStatusCanceled:        true,
		enums.OrderStatusExpired:         true,
		enums.OrderStatusPartiallyFilled: true,
		enums.OrderStatusFilled:          true,
	},
	enums.OrderStatusPartiallyFilled: {
		enums.OrderStatusCanceled:        true,
		enums.OrderStatusPartiallyFilled: true,
		enums.OrderStatusFilled:          true,
	},
	enums.OrderStatusPendingUpdate: {
		enums.OrderStatusAccepted: true,
		enums.OrderStatusCanceled: true,
	},
	enums.OrderStatusPendingCancel: {
		enums.OrderStatusAccepted: true,
		enums.OrderStatusCanceled: true,
	},
	// Terminal: Denied, Rejected, Canceled, Expired, Filled have no entries.
}

// InvariantViolation signals an illegal FSM transition or other structural
// violation. Engines log it and abort the backtest; it is never a soft
// failure the way RiskDenied is.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string { return "invariant violation: " + e.Msg }

func newTransitionViolation(from, to enums.OrderStatus) *InvariantViolation {
	return &InvariantViolation{Msg: fmt.Sprintf("illegal order transition %s -> %s", from, to)}
}

// Order holds the state shared by all four variants. Price is used by
// Limit and StopLimit; TriggerPrice by StopMarket and StopLimit; a Market
// order sets neither.
type Order struct {
	ClientOrderId ids.ClientOrderId
	VenueOrderId  ids.VenueOrderId
	InstrumentId  ids.InstrumentId
	TraderId      ids.TraderId
	StrategyId    ids.StrategyId
	Side          enums.OrderSide
	OrderType     enums.OrderType
	TimeInForce   enums.TimeInForce

	Quantity  value.Quantity
	FilledQty value.Quantity
	LeavesQty value.Quantity
	AvgPx     decimal.Decimal

	Price        *value.Price
	TriggerPrice *value.Price

	Status  enums.OrderStatus
	Events  []events.OrderEvent
	TsInit  int64
	TsLast  int64
}

type NewOrderParams struct {
	ClientOrderId ids.ClientOrderId
	InstrumentId  ids.InstrumentId
	TraderId      ids.TraderId
	StrategyId    ids.StrategyId
	Side          enums.OrderSide
	OrderType     enums.OrderType
	TimeInForce   enums.TimeInForce
	Quantity      value.Quantity
	Price         *value.Price
	TriggerPrice  *value.Price
	TsInit        int64
}

// New validates the variant-specific required fields the way the source's
// per-type constructors do, then builds the order in INITIALIZED status.
func New(p NewOrderParams) (*Order, error) {
	switch p.OrderType {
	case enums.OrderTypeMarket:
		// no extra fields required
	case enums.OrderTypeLimit:
		if p.Price == nil {
			return nil, fmt.Errorf("order: LIMIT order requires a price")
		}
	case enums.OrderTypeStopMarket:
		if p.TriggerPrice == nil {
			return nil, fmt.Errorf("order: STOP_MARKET order requires a trigger_price")
		}
	case enums.OrderTypeStopLimit:
		if p.TriggerPrice == nil {
			return nil, fmt.Errorf("order: STOP_LIMIT order requires a trigger_price")
		}
		if p.Price == nil {
			return nil, fmt.Errorf("order: STOP_LIMIT order requires a price")
		}
	default:
		return nil, fmt.Errorf("order: unknown order type %v", p.OrderType)
	}

	return &Order{
		ClientOrderId: p.ClientOrderId,
		InstrumentId:  p.InstrumentId,
		TraderId:      p.TraderId,
		StrategyId:    p.StrategyId,
		Side:          p.Side,
		OrderType:     p.OrderType,
		TimeInForce:   p.TimeInForce,
		Quantity:      p.Quantity,
		FilledQty:     value.ZeroQuantity(p.Quantity.Precision()),
		LeavesQty:     p.Quantity,
		AvgPx:         decimal.Zero,
		Price:         p.Price,
		TriggerPrice:  p.TriggerPrice,
		Status:        enums.OrderStatusInitialized,
		TsInit:        p.TsInit,
		TsLast:        p.TsInit,
	}, nil
}

func (o *Order) IsOpen() bool {
	switch o.Status {
	case enums.OrderStatusAccepted, enums.OrderStatusTriggered,
		enums.OrderStatusPendingUpdate, enums.OrderStatusPendingCancel,
		enums.OrderStatusPartiallyFilled:
		return true
	default:
		return false
	}
}

func (o *Order) IsClosed() bool { return o.Status.IsTerminal() }
func (o *Order) IsFilled() bool { return o.Status == enums.OrderStatusFilled }

func (o *Order) checkTransition(to enums.OrderStatus) error {
	allowed := TransitionTable[o.Status]
	if allowed == nil || !allowed[to] {
		return newTransitionViolation(o.Status, to)
	}
	return nil
}

// eventTargetStatus maps every event kind except OrderFilled/OrderUpdated
// to its single target status, per the static table the source's
// _EVENT_TO_STATUS dict encodes.
func eventTargetStatus(kind events.Kind) (enums.OrderStatus, bool) {
	switch kind {
	case events.KindOrderDenied:
		return enums.OrderStatusDenied, true
	case events.KindOrderSubmitted:
		return enums.OrderStatusSubmitted, true
	case events.KindOrderAccepted:
		return enums.OrderStatusAccepted, true
	case events.KindOrderRejected:
		return enums.OrderStatusRejected, true
	case events.KindOrderCanceled:
		return enums.OrderStatusCanceled, true
	case events.KindOrderExpired:
		return enums.OrderStatusExpired, true
	case events.KindOrderTriggered:
		return enums.OrderStatusTriggered, true
	case events.KindOrderPendingUpdate:
		return enums.OrderStatusPendingUpdate, true
	case events.KindOrderPendingCancel:
		return enums.OrderStatusPendingCancel, true
	default:
		return 0, false
	}
}

// Apply mutates the order by event-sourcing, per §4.8: compute the next
// status, reject illegal transitions with InvariantViolation, mutate fill
// bookkeeping, and append to the event log. It is the only way Order state
// ever changes.
func (o *Order) Apply(ev events.OrderEvent) error {
	switch ev.Kind {
	case events.KindOrderFilled:
		if err := o.applyFilled(ev); err != nil {
			return err
		}
	case events.KindOrderUpdated:
		if err := o.applyUpdated(ev); err != nil {
			return err
		}
	default:
		target, ok := eventTargetStatus(ev.Kind)
		if !ok {
			return fmt.Errorf("order: unknown order event kind %v", ev.Kind)
		}
		if err := o.checkTransition(target); err != nil {
			return err
		}
		o.Status = target
		if ev.Kind == events.KindOrderAccepted && !ev.VenueOrderId.IsEmpty() {
			o.VenueOrderId = ev.VenueOrderId
		}
	}

	o.Events = append(o.Events, ev)
	o.TsLast = ev.TsEvent
	return nil
}

func (o *Order) applyFilled(ev events.OrderEvent) error {
	fillQty := ev.LastQty.Decimal()
	fillPx := ev.LastPx.Decimal()
	prevFilled := o.FilledQty.Decimal()
	newFilled := prevFilled.Add(fillQty)

	if newFilled.IsPositive() {
		o.AvgPx = o.AvgPx.Mul(prevFilled).Add(fillPx.Mul(fillQty)).Div(newFilled)
	}

	o.FilledQty = value.NewQuantity(newFilled, o.Quantity.Precision())
	leaves := o.Quantity.Decimal().Sub(newFilled)
	o.LeavesQty = value.NewQuantity(leaves, o.Quantity.Precision())

	target := enums.OrderStatusPartiallyFilled
	if o.LeavesQty.IsZero() {
		target = enums.OrderStatusFilled
	}
	if err := o.checkTransition(target); err != nil {
		return err
	}
	o.Status = target

	if !ev.VenueOrderId.IsEmpty() {
		o.VenueOrderId = ev.VenueOrderId
	}
	return nil
}

// applyUpdated replaces Quantity (and, for Limit/StopMarket/StopLimit, the
// Price/TriggerPrice the event carries), recomputing LeavesQty while
// FilledQty stays fixed. The caller (execution engine) is responsible for
// rejecting a new quantity below FilledQty before this is ever invoked.
func (o *Order) applyUpdated(ev events.OrderEvent) error {
	if ev.Quantity != nil {
		o.Quantity = *ev.Quantity
		leaves := ev.Quantity.Decimal().Sub(o.FilledQty.Decimal())
		o.LeavesQty = value.NewQuantity(leaves, ev.Quantity.Precision())
	}
	if err := o.checkTransition(enums.OrderStatusAccepted); err != nil {
		return err
	}
	o.Status = enums.OrderStatusAccepted

	switch o.OrderType {
	case enums.OrderTypeLimit:
		if ev.Price != nil {
			o.Price = ev.Price
		}
	case enums.OrderTypeStopMarket:
		if ev.TriggerPrice != nil {
			o.TriggerPrice = ev.TriggerPrice
		}
	case enums.OrderTypeStopLimit:
		if ev.Price != nil {
			o.Price = ev.Price
		}
		if ev.TriggerPrice != nil {
			o.TriggerPrice = ev.TriggerPrice
		}
	}
	return nil
}

func (o *Order) String() string {
	return fmt.Sprintf("Order(id=%s, %s %s %s, status=%s)",
		o.ClientOrderId, o.Side, o.Quantity, o.InstrumentId, o.Status)
}
