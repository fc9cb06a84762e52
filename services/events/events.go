// Package events defines the event records that flow between the venue,
// the execution engine, the order FSM and strategies. Each event is a
// plain struct with a Kind discriminator rather than a subclass hierarchy,
// following the tagged-sum-type approach the kernel uses throughout.
package events

import (
	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

type Kind int

const (
	KindOrderDenied Kind = iota
	KindOrderSubmitted
	KindOrderAccepted
	KindOrderRejected
	KindOrderCanceled
	KindOrderExpired
	KindOrderTriggered
	KindOrderPendingUpdate
	KindOrderPendingCancel
	KindOrderUpdated
	KindOrderFilled
	KindPositionOpened
	KindPositionChanged
	KindPositionClosed
)

func (k Kind) String() string {
	switch k {
	case KindOrderDenied:
		return "OrderDenied"
	case KindOrderSubmitted:
		return "OrderSubmitted"
	case KindOrderAccepted:
		return "OrderAccepted"
	case KindOrderRejected:
		return "OrderRejected"
	case KindOrderCanceled:
		return "OrderCanceled"
	case KindOrderExpired:
		return "OrderExpired"
	case KindOrderTriggered:
		return "OrderTriggered"
	case KindOrderPendingUpdate:
		return "OrderPendingUpdate"
	case KindOrderPendingCancel:
		return "OrderPendingCancel"
	case KindOrderUpdated:
		return "OrderUpdated"
	case KindOrderFilled:
		return "OrderFilled"
	case KindPositionOpened:
		return "PositionOpened"
	case KindPositionChanged:
		return "PositionChanged"
	case KindPositionClosed:
		return "PositionClosed"
	default:
		return "Unknown"
	}
}

// OrderEvent is the common envelope every order-lifecycle event carries.
// The order FSM dispatches on Kind, and position handling switches on the
// concrete payload attached for OrderFilled / OrderUpdated.
type OrderEvent struct {
	Kind          Kind
	TraderId      ids.TraderId
	StrategyId    ids.StrategyId
	InstrumentId  ids.InstrumentId
	ClientOrderId ids.ClientOrderId
	VenueOrderId  ids.VenueOrderId
	TsEvent       int64
	TsInit        int64

	// Denied/Rejected
	Reason string

	// Filled
	TradeId      ids.TradeId
	PositionId   ids.PositionId
	Side         enums.OrderSide
	LastQty      value.Quantity
	LastPx       value.Price
	Commission   value.Money
	Liquidity    string

	// Updated: nil means "unchanged", distinguishing "not supplied" from
	// an explicit zero-precision zero value.
	Quantity     *value.Quantity
	Price        *value.Price
	TriggerPrice *value.Price
}

func NewOrderSubmitted(trader ids.TraderId, strategy ids.StrategyId, instrument ids.InstrumentId, clientOrderId ids.ClientOrderId, ts int64) OrderEvent {
	return OrderEvent{Kind: KindOrderSubmitted, TraderId: trader, StrategyId: strategy, InstrumentId: instrument, ClientOrderId: clientOrderId, TsEvent: ts, TsInit: ts}
}

func NewOrderDenied(trader ids.TraderId, strategy ids.StrategyId, instrument ids.InstrumentId, clientOrderId ids.ClientOrderId, reason string, ts int64) OrderEvent {
	return OrderEvent{Kind: KindOrderDenied, TraderId: trader, StrategyId: strategy, InstrumentId: instrument, ClientOrderId: clientOrderId, Reason: reason, TsEvent: ts, TsInit: ts}
}

func NewOrderAccepted(trader ids.TraderId, strategy ids.StrategyId, instrument ids.InstrumentId, clientOrderId ids.ClientOrderId, venueOrderId ids.VenueOrderId, ts int64) OrderEvent {
	return OrderEvent{Kind: KindOrderAccepted, TraderId: trader, StrategyId: strategy, InstrumentId: instrument, ClientOrderId: clientOrderId, VenueOrderId: venueOrderId, TsEvent: ts, TsInit: ts}
}

// PositionEvent mirrors OrderEvent's envelope approach for position
// lifecycle notifications.
type PositionEvent struct {
	Kind         Kind
	TraderId     ids.TraderId
	StrategyId   ids.StrategyId
	InstrumentId ids.InstrumentId
	PositionId   ids.PositionId
	PositionSide enums.PositionSide
	SignedQty    value.Quantity
	AvgPxOpen    value.Price
	LastPx       value.Price
	Currency     value.Currency
	TsEvent      int64
	TsInit       int64
}

// TimeEvent is produced by the clock when a timer fires.
type TimeEvent struct {
	Name     string
	TsEvent  int64
	TsInit   int64
	Callback func(TimeEvent)
}
