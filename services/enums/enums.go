// Package enums collects the small closed value sets shared across the
// kernel: sides, statuses, OMS disciplines, account types and the like.
// Each is a distinct Go type over an int so a mismatched enum cannot be
// passed where another is expected.
package enums

type OrderSide int

const (
	OrderSideBuy OrderSide = iota
	OrderSideSell
)

func (s OrderSide) String() string {
	if s == OrderSideBuy {
		return "BUY"
	}
	return "SELL"
}

// Sign returns +1 for BUY, -1 for SELL, matching the signed-quantity
// convention used by position accounting.
func (s OrderSide) Sign() int {
	if s == OrderSideBuy {
		return 1
	}
	return -1
}

type OrderType int

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
	OrderTypeStopMarket
	OrderTypeStopLimit
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeStopMarket:
		return "STOP_MARKET"
	case OrderTypeStopLimit:
		return "STOP_LIMIT"
	default:
		return "UNKNOWN"
	}
}

type TimeInForce int

const (
	TimeInForceGTC TimeInForce = iota
	TimeInForceIOC
	TimeInForceFOK
)

// OrderStatus is the closed state set for the order FSM. Terminal statuses
// have no entries in the transition table (see order.TransitionTable).
type OrderStatus int

const (
	OrderStatusInitialized OrderStatus = iota
	OrderStatusDenied
	OrderStatusSubmitted
	OrderStatusAccepted
	OrderStatusRejected
	OrderStatusCanceled
	OrderStatusExpired
	OrderStatusTriggered
	OrderStatusPendingUpdate
	OrderStatusPendingCancel
	OrderStatusPartiallyFilled
	OrderStatusFilled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusInitialized:
		return "INITIALIZED"
	case OrderStatusDenied:
		return "DENIED"
	case OrderStatusSubmitted:
		return "SUBMITTED"
	case OrderStatusAccepted:
		return "ACCEPTED"
	case OrderStatusRejected:
		return "REJECTED"
	case OrderStatusCanceled:
		return "CANCELED"
	case OrderStatusExpired:
		return "EXPIRED"
	case OrderStatusTriggered:
		return "TRIGGERED"
	case OrderStatusPendingUpdate:
		return "PENDING_UPDATE"
	case OrderStatusPendingCancel:
		return "PENDING_CANCEL"
	case OrderStatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case OrderStatusFilled:
		return "FILLED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether the status has no allowed successor.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDenied, OrderStatusRejected, OrderStatusCanceled,
		OrderStatusExpired, OrderStatusFilled:
		return true
	default:
		return false
	}
}

type PositionSide int

const (
	PositionSideFlat PositionSide = iota
	PositionSideLong
	PositionSideShort
)

func (s PositionSide) String() string {
	switch s {
	case PositionSideLong:
		return "LONG"
	case PositionSideShort:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// SignedQtySide derives a PositionSide from a signed quantity sign, matching
// the invariant side = sign(signed_qty).
func SignedQtySide(sign int) PositionSide {
	switch {
	case sign > 0:
		return PositionSideLong
	case sign < 0:
		return PositionSideShort
	default:
		return PositionSideFlat
	}
}

// OmsType is the order-management discipline governing position
// aggregation for a venue.
type OmsType int

const (
	OmsNetting OmsType = iota
	OmsHedging
)

func (o OmsType) String() string {
	if o == OmsNetting {
		return "NETTING"
	}
	return "HEDGING"
}

type AccountType int

const (
	AccountTypeCash AccountType = iota
	AccountTypeMargin
)

func (a AccountType) String() string {
	if a == AccountTypeCash {
		return "CASH"
	}
	return "MARGIN"
}

// TradingState gates order submission in the risk engine.
type TradingState int

const (
	TradingStateActive TradingState = iota
	TradingStateReducing
	TradingStateHalted
)

func (t TradingState) String() string {
	switch t {
	case TradingStateReducing:
		return "REDUCING"
	case TradingStateHalted:
		return "HALTED"
	default:
		return "ACTIVE"
	}
}

type CurrencyKind int

const (
	CurrencyKindFiat CurrencyKind = iota
	CurrencyKindCrypto
)

type BarAggregation int

const (
	BarAggregationSecond BarAggregation = iota
	BarAggregationMinute
	BarAggregationHour
	BarAggregationDay
)

func (a BarAggregation) String() string {
	switch a {
	case BarAggregationSecond:
		return "SECOND"
	case BarAggregationMinute:
		return "MINUTE"
	case BarAggregationHour:
		return "HOUR"
	case BarAggregationDay:
		return "DAY"
	default:
		return "UNKNOWN"
	}
}

type PriceType int

const (
	PriceTypeLast PriceType = iota
	PriceTypeBid
	PriceTypeAsk
	PriceTypeMid
)

func (p PriceType) String() string {
	switch p {
	case PriceTypeBid:
		return "BID"
	case PriceTypeAsk:
		return "ASK"
	case PriceTypeMid:
		return "MID"
	default:
		return "LAST"
	}
}
