// Package position implements position accounting: weighted-average
// entry price, realized/unrealized PnL and the open/reduce/flip cases from
// §4.9. Grounded on the source's Position.apply, re-expressed with exact
// decimal arithmetic throughout rather than degrading to float.
package position

import (
	"github.com/shopspring/decimal"

	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/events"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

type Position struct {
	Id           ids.PositionId
	InstrumentId ids.InstrumentId
	StrategyId   ids.StrategyId
	Currency     value.Currency

	SignedQty   decimal.Decimal
	Side        enums.PositionSide
	AvgEntryPx  decimal.Decimal
	AvgClosePx  decimal.Decimal
	RealizedPnl decimal.Decimal
	Commissions map[string]decimal.Decimal

	qtyPrecision int32
	events       []events.OrderEvent

	TsOpened int64
	TsClosed int64
	closed   bool
}

// New opens a position from its first fill, matching the source's
// Position.__init__ which immediately calls apply(fill).
func New(instrumentId ids.InstrumentId, positionId ids.PositionId, fill events.OrderEvent) *Position {
	p := &Position{
		Id:           positionId,
		InstrumentId: instrumentId,
		StrategyId:   fill.StrategyId,
		Currency:     fill.Commission.Currency,
		SignedQty:    decimal.Zero,
		Side:         enums.PositionSideFlat,
		AvgEntryPx:   decimal.Zero,
		Commissions:  make(map[string]decimal.Decimal),
		qtyPrecision: fill.LastQty.Precision(),
	}
	p.Apply(fill)
	return p
}

func (p *Position) IsOpen() bool   { return p.Side != enums.PositionSideFlat }
func (p *Position) IsClosed() bool { return p.Side == enums.PositionSideFlat && len(p.events) > 0 }
func (p *Position) Quantity() value.Quantity {
	return value.NewQuantity(p.SignedQty.Abs(), p.qtyPrecision)
}

// Apply mutates the position for one fill, implementing Case A (add/open),
// Case B (reduce without flip) and Case C (flip) from §4.9.
func (p *Position) Apply(fill events.OrderEvent) {
	if !fill.Commission.Amount.IsZero() {
		code := fill.Commission.Currency.Code
		p.Commissions[code] = p.Commissions[code].Add(fill.Commission.Amount)
	}

	dq := fill.LastQty.Decimal()
	if fill.Side == enums.OrderSideSell {
		dq = dq.Neg()
	}
	oldSigned := p.SignedQty
	lastPx := fill.LastPx.Decimal()

	switch {
	case oldSigned.IsZero() || sameSign(oldSigned, dq):
		// Case A: opening or adding in the same direction.
		absOld := oldSigned.Abs()
		total := absOld.Add(dq.Abs())
		if total.IsPositive() {
			p.AvgEntryPx = p.AvgEntryPx.Mul(absOld).Add(lastPx.Mul(dq.Abs())).Div(total)
		}
		p.SignedQty = oldSigned.Add(dq)

	case dq.Abs().LessThanOrEqual(oldSigned.Abs()):
		// Case B: reducing without a flip.
		closeQty := dq.Abs()
		var delta decimal.Decimal
		if oldSigned.IsPositive() {
			delta = closeQty.Mul(lastPx.Sub(p.AvgEntryPx))
		} else {
			delta = closeQty.Mul(p.AvgEntryPx.Sub(lastPx))
		}
		p.RealizedPnl = p.RealizedPnl.Add(delta)
		p.SignedQty = oldSigned.Add(dq)
		if p.SignedQty.IsZero() {
			p.AvgClosePx = lastPx
		}

	default:
		// Case C: flip. Split into a closing leg at the old average entry
		// price and a fresh opening leg at the fill price.
		closeQty := oldSigned.Abs()
		openQty := dq.Abs().Sub(closeQty)

		var delta decimal.Decimal
		if oldSigned.IsPositive() {
			delta = closeQty.Mul(lastPx.Sub(p.AvgEntryPx))
		} else {
			delta = closeQty.Mul(p.AvgEntryPx.Sub(lastPx))
		}
		p.RealizedPnl = p.RealizedPnl.Add(delta)
		p.AvgClosePx = lastPx

		p.SignedQty = signOf(dq).Mul(openQty)
		p.AvgEntryPx = lastPx
	}

	p.updateSide()
	p.events = append(p.events, fill)
	if len(p.events) == 1 {
		p.TsOpened = fill.TsEvent
	}
	if p.IsClosed() && !p.closed {
		p.TsClosed = fill.TsEvent
		p.closed = true
	}
}

func (p *Position) updateSide() {
	switch {
	case p.SignedQty.IsPositive():
		p.Side = enums.PositionSideLong
	case p.SignedQty.IsNegative():
		p.Side = enums.PositionSideShort
	default:
		p.Side = enums.PositionSideFlat
	}
}

func sameSign(a, b decimal.Decimal) bool {
	return (a.IsPositive() && b.IsPositive()) || (a.IsNegative() && b.IsNegative())
}

func signOf(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// UnrealizedPnl computes the mark against the current signed quantity and
// average entry price; it never feeds back into the simulation state.
func (p *Position) UnrealizedPnl(lastPrice value.Price) decimal.Decimal {
	if p.Side == enums.PositionSideFlat {
		return decimal.Zero
	}
	lastPx := lastPrice.Decimal()
	if p.Side == enums.PositionSideLong {
		return p.SignedQty.Abs().Mul(lastPx.Sub(p.AvgEntryPx))
	}
	return p.SignedQty.Abs().Mul(p.AvgEntryPx.Sub(lastPx))
}

func (p *Position) TotalPnl(lastPrice value.Price) decimal.Decimal {
	return p.RealizedPnl.Add(p.UnrealizedPnl(lastPrice))
}

func (p *Position) Events() []events.OrderEvent {
	out := make([]events.OrderEvent, len(p.events))
	copy(out, p.events)
	return out
}
