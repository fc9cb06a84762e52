// Package matching implements the per-venue matching engine from §4.4,
// shared by every instrument on the venue: an ordered open-order list and
// a bar-driven fill
// policy. Grounded on the source's SimulatedExchange._check_fill, with
// the fill-price table taken verbatim from §4.4, since the source's own
// stop-limit formula is more permissive than that table, which governs.
package matching

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/events"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/marketdata"
	"github.com/mrhb33/nautilus-backtest-go/services/order"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

// Engine holds the open-order list for a single venue. Orders for every
// instrument on that venue share one Engine, matching the source's
// per-exchange open-orders list; process_bar filters to the bar's
// instrument.
type Engine struct {
	venue       ids.Venue
	openOrders  []*order.Order
	tradeSeq    int
	venueSeq    int
}

func New(venue ids.Venue) *Engine {
	return &Engine{venue: venue}
}

func (e *Engine) ProcessOrder(o *order.Order) {
	e.openOrders = append(e.openOrders, o)
}

func (e *Engine) CancelOrder(clientOrderId ids.ClientOrderId) {
	for i, o := range e.openOrders {
		if o.ClientOrderId == clientOrderId {
			e.openOrders = append(e.openOrders[:i:i], e.openOrders[i+1:]...)
			return
		}
	}
}

// NextVenueOrderId mints a monotonically increasing, per-venue id.
func (e *Engine) NextVenueOrderId() ids.VenueOrderId {
	e.venueSeq++
	return ids.NewVenueOrderId("V-" + e.venue.String() + "-" + strconv.Itoa(e.venueSeq))
}

func (e *Engine) nextTradeId() ids.TradeId {
	e.tradeSeq++
	return ids.NewTradeId("T-" + e.venue.String() + "-" + strconv.Itoa(e.tradeSeq))
}

// FillResult is the outcome of a matched order: the price the order filled
// at, ready for the caller to build an OrderFilled event.
type FillResult struct {
	Order    *order.Order
	FillPx   value.Price
	TradeId  ids.TradeId
}

// ProcessBar resolves every open order on the bar's instrument against
// the bar's OHLC, in acceptance order, removing matched orders from the
// open list. Only full fills are modeled.
func (e *Engine) ProcessBar(bar marketdata.Bar) []FillResult {
	instrumentId := bar.BarType.InstrumentId
	var results []FillResult
	var remaining []*order.Order

	for _, o := range e.openOrders {
		if o.InstrumentId != instrumentId || !o.IsOpen() {
			remaining = append(remaining, o)
			continue
		}
		fillPx, ok := checkFill(o, bar)
		if !ok {
			remaining = append(remaining, o)
			continue
		}
		results = append(results, FillResult{Order: o, FillPx: fillPx, TradeId: e.nextTradeId()})
	}
	e.openOrders = remaining
	return results
}

// checkFill applies the fill-check policy table from §4.4 against the
// bar's OHLC. It returns (price, true) on a fill, (_, false) otherwise.
func checkFill(o *order.Order, bar marketdata.Bar) (value.Price, bool) {
	prec := bar.Open.Precision()
	O, H, L := bar.Open.Decimal(), bar.High.Decimal(), bar.Low.Decimal()

	switch o.OrderType {
	case enums.OrderTypeMarket:
		return bar.Open, true

	case enums.OrderTypeLimit:
		p := o.Price.Decimal()
		if o.Side == enums.OrderSideBuy {
			if L.LessThanOrEqual(p) {
				return value.NewPrice(decimalMin(p, O), prec), true
			}
		} else {
			if H.GreaterThanOrEqual(p) {
				return value.NewPrice(decimalMax(p, O), prec), true
			}
		}

	case enums.OrderTypeStopMarket:
		t := o.TriggerPrice.Decimal()
		if o.Side == enums.OrderSideBuy {
			if H.GreaterThanOrEqual(t) {
				return value.NewPrice(decimalMax(t, O), prec), true
			}
		} else {
			if L.LessThanOrEqual(t) {
				return value.NewPrice(decimalMin(t, O), prec), true
			}
		}

	case enums.OrderTypeStopLimit:
		t := o.TriggerPrice.Decimal()
		p := o.Price.Decimal()
		if o.Side == enums.OrderSideBuy {
			if H.GreaterThanOrEqual(t) && L.LessThanOrEqual(p) {
				return value.NewPrice(p, prec), true
			}
		} else {
			if L.LessThanOrEqual(t) && H.GreaterThanOrEqual(p) {
				return value.NewPrice(p, prec), true
			}
		}
	}
	return value.Price{}, false
}

func decimalMin(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func decimalMax(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// BuildFilledEvent assembles the OrderFilled event for a matched order,
// leaving commission computation to the simulated exchange (which owns the
// instrument's fee schedule).
func BuildFilledEvent(o *order.Order, accountId ids.AccountId, fillPx value.Price, tradeId ids.TradeId, quoteCurrency value.Currency, commission value.Money, ts int64) events.OrderEvent {
	return events.OrderEvent{
		Kind:          events.KindOrderFilled,
		TraderId:      o.TraderId,
		StrategyId:    o.StrategyId,
		InstrumentId:  o.InstrumentId,
		ClientOrderId: o.ClientOrderId,
		VenueOrderId:  o.VenueOrderId,
		TradeId:       tradeId,
		Side:          o.Side,
		LastQty:       o.LeavesQty,
		LastPx:        fillPx,
		Commission:    commission,
		Liquidity:     "TAKER",
		TsEvent:       ts,
		TsInit:        ts,
	}
}

func (e *Engine) OpenOrderCount() int { return len(e.openOrders) }
