package strategies

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mrhb33/nautilus-backtest-go/services/backtest"
	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/instrument"
	"github.com/mrhb33/nautilus-backtest-go/services/marketdata"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

// EMAATRSuite drives the strategy through a hand-built bar series chosen so
// the fast/slow EMA relationship flips exactly once, inside the body%
// window, right after both EMAs and the ATR have seeded, then a
// subsequent bar's high touches the resulting take-profit level.
type EMAATRSuite struct {
	suite.Suite

	instrumentId ids.InstrumentId
	barType      marketdata.BarType
	driver       *backtest.Driver
}

func (s *EMAATRSuite) SetupTest() {
	venue := ids.NewVenue("SIM")
	s.instrumentId = ids.NewInstrumentId(ids.NewSymbol("AAPL"), venue)
	s.barType = marketdata.BarType{InstrumentId: s.instrumentId}

	s.driver = backtest.New(ids.NewTraderId("TRADER-1"), nil)
	balance, err := value.NewAccountBalance(
		value.NewMoney(decimal.NewFromInt(1000000), value.USD), value.ZeroMoney(value.USD))
	require.NoError(s.T(), err)
	s.driver.AddVenue(backtest.VenueConfig{
		Venue:            venue,
		OmsType:          enums.OmsNetting,
		AccountType:      enums.AccountTypeCash,
		BaseCurrency:     value.USD,
		StartingBalances: []value.AccountBalance{balance},
	})
	require.NoError(s.T(), s.driver.AddInstrument(
		instrument.NewEquity(s.instrumentId, value.USD, 2, 0, decimal.Zero, decimal.Zero)))
}

func (s *EMAATRSuite) bar(open, high, low, close float64, ts int64) marketdata.Bar {
	return marketdata.Bar{
		BarType: s.barType,
		Open:    value.NewPrice(decimal.NewFromFloat(open), 2),
		High:    value.NewPrice(decimal.NewFromFloat(high), 2),
		Low:     value.NewPrice(decimal.NewFromFloat(low), 2),
		Close:   value.NewPrice(decimal.NewFromFloat(close), 2),
		Volume:  value.NewQuantity(decimal.NewFromInt(1), 0),
		TsEvent: ts,
	}
}

func (s *EMAATRSuite) TestCrossoverEntersLongThenExitsOnTakeProfit() {
	cfg := EMAATRConfig{
		InstrumentId:    s.instrumentId,
		BarType:         s.barType,
		Quantity:        value.NewQuantity(decimal.NewFromInt(10), 0),
		EmaFastPeriod:   2,
		EmaSlowPeriod:   3,
		AtrPeriod:       2,
		BodyPctMinLong:  decimal.NewFromFloat(0.01),
		BodyPctMaxLong:  decimal.NewFromFloat(0.2),
		BodyPctMinShort: decimal.NewFromFloat(-0.2),
		BodyPctMaxShort: decimal.NewFromFloat(-0.01),
		AtrTpMultiplier: decimal.NewFromFloat(1.8),
		AtrSlMultiplier: decimal.NewFromFloat(2.5),
	}
	strat := NewEMAATRStrategy(ids.NewStrategyId("S-1"), cfg)
	s.driver.AddStrategy(strat)

	s.driver.AddData(
		s.bar(100, 102, 98, 100, 1),
		s.bar(100, 102, 98, 101, 2),
		s.bar(101, 103, 99, 99, 3),  // slow EMA and ATR seed here (the fast EMA seeded on bar 2), relation recorded
		s.bar(99, 104, 98, 103, 4),  // fast crosses above slow inside the body% window: entry order submitted
		s.bar(103, 113, 95, 108, 5), // the venue fills the entry at this bar's open=103 before OnBar runs,
		// so checkExit sees this same bar's high=113 touch the take-profit level and submits the exit order
		s.bar(109, 110, 107, 108, 6), // the venue fills the exit at this bar's open=109
	)

	result, err := s.driver.Run(nil, nil)
	require.NoError(s.T(), err)

	orders := s.driver.Cache.Orders(&s.instrumentId, nil)
	require.Len(s.T(), orders, 2, "expected an entry order and a take-profit exit order")
	for _, o := range orders {
		s.True(o.IsFilled(), "expected every order to be filled, got status %s", o.Status)
	}
	s.Equal(enums.OrderSideBuy, orders[0].Side)
	s.Equal(enums.OrderSideSell, orders[1].Side)

	closed := s.driver.Cache.PositionsClosed(&s.instrumentId, nil)
	require.Len(s.T(), closed, 1)
	s.Equal(enums.PositionSideFlat, closed[0].Side)
	s.True(closed[0].RealizedPnl.IsPositive(), "expected a positive realized pnl on a take-profit exit, got %s", closed[0].RealizedPnl)

	s.Equal(2, result.TotalFills)
}

func (s *EMAATRSuite) TestNoInitializedIndicatorsMeansNoOrders() {
	cfg := DefaultEMAATRConfig(s.instrumentId, s.barType, value.NewQuantity(decimal.NewFromInt(10), 0))
	strat := NewEMAATRStrategy(ids.NewStrategyId("S-1"), cfg)
	s.driver.AddStrategy(strat)

	// Far fewer bars than DefaultEMAATRConfig's EmaSlowPeriod=100, so the
	// indicators never finish seeding and OnBar must bail out early.
	s.driver.AddData(
		s.bar(100, 102, 98, 100, 1),
		s.bar(100, 102, 98, 101, 2),
		s.bar(101, 103, 99, 99, 3),
	)

	_, err := s.driver.Run(nil, nil)
	require.NoError(s.T(), err)

	orders := s.driver.Cache.Orders(&s.instrumentId, nil)
	s.Empty(orders, "expected no orders before the slow EMA has finished seeding")
}

func TestEMAATRSuite(t *testing.T) {
	suite.Run(t, new(EMAATRSuite))
}
