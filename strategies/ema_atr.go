// EMAATRStrategy implements an EMA(fast)/EMA(slow) crossover filtered by
// candle body percentage, with an ATR-multiple take-profit/stop-loss pair
// evaluated against each bar's high/low. Grounded on
// go-services/strategies/ema_atr_strategy.go's EMAATRStrategy, re-expressed
// against the services/strategy adapter instead of its own hand-rolled
// warm-up/scan loop: the kernel's Clock and DataEngine already supply the
// bar-by-bar replay, so this strategy only needs the per-bar decision.
package strategies

import (
	"github.com/shopspring/decimal"

	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/events"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/marketdata"
	"github.com/mrhb33/nautilus-backtest-go/services/strategy"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

// EMAATRConfig parameterizes EMAATRStrategy, mirroring the source's
// strategy-level fields that were exported for tuning.
type EMAATRConfig struct {
	InstrumentId ids.InstrumentId
	BarType      marketdata.BarType
	Quantity     value.Quantity

	EmaFastPeriod int
	EmaSlowPeriod int
	AtrPeriod     int

	BodyPctMinLong  decimal.Decimal
	BodyPctMaxLong  decimal.Decimal
	BodyPctMinShort decimal.Decimal
	BodyPctMaxShort decimal.Decimal

	AtrTpMultiplier decimal.Decimal
	AtrSlMultiplier decimal.Decimal
}

// DefaultEMAATRConfig returns a default tuning for NewEMAATRStrategy, which
// itself takes every setting from its config, scaled for a generic
// 5-minute-bar instrument rather than hardcoded to BTCUSDT.
func DefaultEMAATRConfig(instrumentId ids.InstrumentId, barType marketdata.BarType, qty value.Quantity) EMAATRConfig {
	return EMAATRConfig{
		InstrumentId:    instrumentId,
		BarType:         barType,
		Quantity:        qty,
		EmaFastPeriod:   26,
		EmaSlowPeriod:   100,
		AtrPeriod:       14,
		BodyPctMinLong:  decimal.NewFromFloat(0.002),
		BodyPctMaxLong:  decimal.NewFromFloat(0.008),
		BodyPctMinShort: decimal.NewFromFloat(-0.008),
		BodyPctMaxShort: decimal.NewFromFloat(-0.002),
		AtrTpMultiplier: decimal.NewFromFloat(1.8),
		AtrSlMultiplier: decimal.NewFromFloat(2.5),
	}
}

type EMAATRStrategy struct {
	strategy.BaseStrategy

	cfg EMAATRConfig

	emaFast *EMA
	emaSlow *EMA
	atr     *ATR

	havePrevRelation bool
	fastAboveSlow    bool

	tpPrice *value.Price
	slPrice *value.Price
}

func NewEMAATRStrategy(strategyId ids.StrategyId, cfg EMAATRConfig) *EMAATRStrategy {
	s := &EMAATRStrategy{
		cfg:     cfg,
		emaFast: NewEMA(cfg.EmaFastPeriod),
		emaSlow: NewEMA(cfg.EmaSlowPeriod),
		atr:     NewATR(cfg.AtrPeriod),
	}
	s.StrategyId = strategyId
	return s
}

func (s *EMAATRStrategy) OnStart() {
	s.Runtime.RegisterIndicator(s.cfg.BarType, s.emaFast)
	s.Runtime.RegisterIndicator(s.cfg.BarType, s.emaSlow)
	s.Runtime.RegisterIndicator(s.cfg.BarType, s.atr)
	s.Runtime.SubscribeBars(s.cfg.BarType)
}

func (s *EMAATRStrategy) OnReset() {
	s.emaFast = NewEMA(s.cfg.EmaFastPeriod)
	s.emaSlow = NewEMA(s.cfg.EmaSlowPeriod)
	s.atr = NewATR(s.cfg.AtrPeriod)
	s.havePrevRelation = false
	s.tpPrice = nil
	s.slPrice = nil
}

func (s *EMAATRStrategy) bodyPct(bar marketdata.Bar) decimal.Decimal {
	open := bar.Open.Decimal()
	if open.IsZero() {
		return decimal.Zero
	}
	return bar.Close.Decimal().Sub(open).Div(open)
}

func (s *EMAATRStrategy) OnBar(bar marketdata.Bar) {
	if !s.emaFast.Initialized() || !s.emaSlow.Initialized() || !s.atr.Initialized() {
		return
	}

	fastAboveSlow := s.emaFast.Value().GreaterThan(s.emaSlow.Value())
	crossedUp := s.havePrevRelation && !s.fastAboveSlow && fastAboveSlow
	crossedDown := s.havePrevRelation && s.fastAboveSlow && !fastAboveSlow
	s.fastAboveSlow = fastAboveSlow
	s.havePrevRelation = true

	strategyId := s.Id()
	positions := s.Runtime.Cache.PositionsOpen(&s.cfg.InstrumentId, &strategyId)

	if len(positions) > 0 {
		s.checkExit(bar, positions[0].Side)
		return
	}

	body := s.bodyPct(bar)
	atr := s.atr.Value()
	ts := s.Runtime.Clock.TimestampNs()

	switch {
	case crossedUp && body.GreaterThanOrEqual(s.cfg.BodyPctMinLong) && body.LessThanOrEqual(s.cfg.BodyPctMaxLong):
		s.enter(enums.OrderSideBuy, bar.Close.Decimal(), atr, ts)
	case crossedDown && body.GreaterThanOrEqual(s.cfg.BodyPctMinShort) && body.LessThanOrEqual(s.cfg.BodyPctMaxShort):
		s.enter(enums.OrderSideSell, bar.Close.Decimal(), atr, ts)
	}
}

func (s *EMAATRStrategy) enter(side enums.OrderSide, entryPx, atr decimal.Decimal, ts int64) {
	o, err := s.Runtime.Factory.Market(s.cfg.InstrumentId, side, s.cfg.Quantity, ts)
	if err != nil {
		return
	}

	tpOffset := atr.Mul(s.cfg.AtrTpMultiplier)
	slOffset := atr.Mul(s.cfg.AtrSlMultiplier)

	if side == enums.OrderSideBuy {
		tp := value.NewPrice(entryPx.Add(tpOffset), 8)
		sl := value.NewPrice(entryPx.Sub(slOffset), 8)
		s.tpPrice, s.slPrice = &tp, &sl
	} else {
		tp := value.NewPrice(entryPx.Sub(tpOffset), 8)
		sl := value.NewPrice(entryPx.Add(slOffset), 8)
		s.tpPrice, s.slPrice = &tp, &sl
	}

	_ = s.Runtime.SubmitOrder(o)
}

func (s *EMAATRStrategy) checkExit(bar marketdata.Bar, side enums.PositionSide) {
	if s.tpPrice == nil || s.slPrice == nil {
		return
	}
	ts := s.Runtime.Clock.TimestampNs()

	hitTP, hitSL := false, false
	switch side {
	case enums.PositionSideLong:
		hitTP = bar.High.Decimal().GreaterThanOrEqual(s.tpPrice.Decimal())
		hitSL = bar.Low.Decimal().LessThanOrEqual(s.slPrice.Decimal())
	case enums.PositionSideShort:
		hitTP = bar.Low.Decimal().LessThanOrEqual(s.tpPrice.Decimal())
		hitSL = bar.High.Decimal().GreaterThanOrEqual(s.slPrice.Decimal())
	default:
		return
	}
	if !hitTP && !hitSL {
		return
	}

	closingSide := enums.OrderSideSell
	if side == enums.PositionSideShort {
		closingSide = enums.OrderSideBuy
	}
	o, err := s.Runtime.Factory.Market(s.cfg.InstrumentId, closingSide, s.cfg.Quantity, ts)
	if err != nil {
		return
	}
	if err := s.Runtime.SubmitOrder(o); err == nil {
		s.tpPrice, s.slPrice = nil, nil
	}
}

// OnOrderEvent clears the pending TP/SL levels if an order is denied or
// rejected before the position it was meant to protect ever opens.
func (s *EMAATRStrategy) OnOrderEvent(ev events.OrderEvent) {
	if ev.Kind == events.KindOrderDenied || ev.Kind == events.KindOrderRejected {
		s.tpPrice, s.slPrice = nil, nil
	}
}
