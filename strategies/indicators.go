// Package strategies holds concrete user strategies built on top of the
// services/strategy adapter, plus the indicators they drive. Grounded on
// go-services/strategies/ema_atr_strategy.go's calculateEMA/calculateATR,
// re-expressed against exact decimal rather than float64: an indicator
// value feeds directly into entry/exit decisions, so it is simulation
// state, not derived analytics, and must not drift the way float64
// accumulation would over a multi-year bar series.
package strategies

import (
	"github.com/shopspring/decimal"

	"github.com/mrhb33/nautilus-backtest-go/services/marketdata"
)

// EMA is an exponential moving average seeded with the SMA of its first
// Period closes, matching the source's TradingView-style seeding.
type EMA struct {
	Period int

	alpha        decimal.Decimal
	oneMinus     decimal.Decimal
	seedBuf      []decimal.Decimal
	value        decimal.Decimal
	initialized  bool
}

func NewEMA(period int) *EMA {
	alpha := decimal.NewFromInt(2).Div(decimal.NewFromInt(int64(period + 1)))
	return &EMA{
		Period:   period,
		alpha:    alpha,
		oneMinus: decimal.NewFromInt(1).Sub(alpha),
	}
}

func (e *EMA) HandleBar(bar marketdata.Bar) {
	close := bar.Close.Decimal()
	if !e.initialized {
		e.seedBuf = append(e.seedBuf, close)
		if len(e.seedBuf) < e.Period {
			return
		}
		sum := decimal.Zero
		for _, v := range e.seedBuf {
			sum = sum.Add(v)
		}
		e.value = sum.Div(decimal.NewFromInt(int64(e.Period)))
		e.initialized = true
		e.seedBuf = nil
		return
	}
	e.value = close.Mul(e.alpha).Add(e.value.Mul(e.oneMinus))
}

func (e *EMA) Initialized() bool      { return e.initialized }
func (e *EMA) Value() decimal.Decimal { return e.value }

// ATR is an Average True Range using Wilder's smoothing (RMA), seeded with
// the plain mean of the first Period true-range values, matching the
// source's calculateATR.
type ATR struct {
	Period int

	prevClose   decimal.Decimal
	havePrev    bool
	trBuf       []decimal.Decimal
	value       decimal.Decimal
	initialized bool
}

func NewATR(period int) *ATR {
	return &ATR{Period: period}
}

func (a *ATR) HandleBar(bar marketdata.Bar) {
	high := bar.High.Decimal()
	low := bar.Low.Decimal()
	close := bar.Close.Decimal()

	if !a.havePrev {
		a.prevClose = close
		a.havePrev = true
		return
	}

	tr1 := high.Sub(low)
	tr2 := high.Sub(a.prevClose).Abs()
	tr3 := low.Sub(a.prevClose).Abs()
	tr := tr1
	if tr2.GreaterThan(tr) {
		tr = tr2
	}
	if tr3.GreaterThan(tr) {
		tr = tr3
	}
	a.prevClose = close

	if !a.initialized {
		a.trBuf = append(a.trBuf, tr)
		if len(a.trBuf) < a.Period {
			return
		}
		sum := decimal.Zero
		for _, v := range a.trBuf {
			sum = sum.Add(v)
		}
		a.value = sum.Div(decimal.NewFromInt(int64(a.Period)))
		a.initialized = true
		a.trBuf = nil
		return
	}

	periodD := decimal.NewFromInt(int64(a.Period))
	a.value = a.value.Mul(periodD.Sub(decimal.NewFromInt(1))).Add(tr).Div(periodD)
}

func (a *ATR) Initialized() bool      { return a.initialized }
func (a *ATR) Value() decimal.Decimal { return a.value }
