package execution

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mrhb33/nautilus-backtest-go/services/account"
	"github.com/mrhb33/nautilus-backtest-go/services/bus"
	"github.com/mrhb33/nautilus-backtest-go/services/cache"
	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/events"
	"github.com/mrhb33/nautilus-backtest-go/services/exchange"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/instrument"
	"github.com/mrhb33/nautilus-backtest-go/services/marketdata"
	"github.com/mrhb33/nautilus-backtest-go/services/order"
	"github.com/mrhb33/nautilus-backtest-go/services/risk"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

// ExecutionSuite exercises the engine end to end: risk gate, venue routing
// and the fill-to-position pipeline under both OMS disciplines. Grounded on
// the testify suite.Suite pattern used for the corpus's integration-style
// trading model tests.
type ExecutionSuite struct {
	suite.Suite

	instrumentId ids.InstrumentId
	venue        ids.Venue
	cache        *cache.Cache
	bus          *bus.MessageBus
	account      *account.Account
	exchange     *exchange.Exchange
	engine       *Engine
	orderEvents  []events.OrderEvent
	posEvents    []events.PositionEvent
}

func (s *ExecutionSuite) buildEngine(omsType enums.OmsType) {
	s.venue = ids.NewVenue("SIM")
	s.instrumentId = ids.NewInstrumentId(ids.NewSymbol("AAPL"), s.venue)
	s.cache = cache.New()
	s.bus = bus.New()

	inst := instrument.NewEquity(s.instrumentId, value.USD, 0, 0, decimal.Zero, decimal.Zero)
	s.cache.AddInstrument(inst)

	s.account = account.NewCash(ids.AccountIdForVenue(s.venue), value.USD)
	require.NoError(s.T(), s.account.UpdateBalance(value.USD, decimal.NewFromInt(100000), decimal.Zero))
	s.cache.AddAccount(s.account)

	s.exchange = exchange.New(s.venue, omsType, s.account, nil)
	s.exchange.AddInstrument(inst)

	r := risk.New(s.cache, nil, nil)
	s.engine = New(s.cache, s.bus, r, nil)
	s.engine.RegisterVenue(s.venue, s.exchange, omsType)

	s.orderEvents = nil
	s.posEvents = nil
	s.bus.Subscribe(orderEventTopic(testStrategyId), func(msg any) {
		s.orderEvents = append(s.orderEvents, msg.(events.OrderEvent))
	})
	s.bus.Subscribe(positionEventTopic(testStrategyId), func(msg any) {
		s.posEvents = append(s.posEvents, msg.(events.PositionEvent))
	})
}

var testStrategyId = ids.NewStrategyId("S-1")

func (s *ExecutionSuite) newMarketOrder(side enums.OrderSide, qty int64, clientId string) *order.Order {
	o, err := order.New(order.NewOrderParams{
		ClientOrderId: ids.NewClientOrderId(clientId),
		InstrumentId:  s.instrumentId,
		StrategyId:    testStrategyId,
		Side:          side,
		OrderType:     enums.OrderTypeMarket,
		TimeInForce:   enums.TimeInForceGTC,
		Quantity:      value.NewQuantity(decimal.NewFromInt(qty), 0),
	})
	require.NoError(s.T(), err)
	return o
}

func (s *ExecutionSuite) fillBar(open, high, low, close int64, ts int64) marketdata.Bar {
	barType := marketdata.BarType{InstrumentId: s.instrumentId}
	return marketdata.Bar{
		BarType: barType,
		Open:    value.NewPrice(decimal.NewFromInt(open), 0),
		High:    value.NewPrice(decimal.NewFromInt(high), 0),
		Low:     value.NewPrice(decimal.NewFromInt(low), 0),
		Close:   value.NewPrice(decimal.NewFromInt(close), 0),
		Volume:  value.NewQuantity(decimal.NewFromInt(1), 0),
		TsEvent: ts,
	}
}

func (s *ExecutionSuite) TestSubmitOrderDeniedByRiskNeverReachesVenue() {
	s.buildEngine(enums.OmsNetting)
	// No instrument precision match: quantity precision 2 against the
	// instrument's size precision 0.
	o := s.newMarketOrder(enums.OrderSideBuy, 1, "O-1")
	o.Quantity = value.NewQuantity(decimal.NewFromInt(1), 2)

	require.NoError(s.T(), s.engine.SubmitOrder(o, 1))

	require.Len(s.T(), s.orderEvents, 1)
	s.Equal(events.KindOrderDenied, s.orderEvents[0].Kind)
}

func (s *ExecutionSuite) TestSubmitOrderPassingRiskRoutesToVenueAndFills() {
	s.buildEngine(enums.OmsNetting)
	o := s.newMarketOrder(enums.OrderSideBuy, 10, "O-1")

	require.NoError(s.T(), s.engine.SubmitOrder(o, 1))
	require.Len(s.T(), s.orderEvents, 2, "expected Submitted then Accepted")
	s.Equal(events.KindOrderSubmitted, s.orderEvents[0].Kind)
	s.Equal(events.KindOrderAccepted, s.orderEvents[1].Kind)

	s.exchange.ProcessBar(s.fillBar(100, 105, 95, 102, 2))

	require.Len(s.T(), s.orderEvents, 3)
	s.Equal(events.KindOrderFilled, s.orderEvents[2].Kind)
	require.Len(s.T(), s.posEvents, 1)
	s.Equal(events.KindPositionOpened, s.posEvents[0].Kind)
}

func (s *ExecutionSuite) TestNettingRoutesOppositeFillIntoSamePosition() {
	s.buildEngine(enums.OmsNetting)
	buy := s.newMarketOrder(enums.OrderSideBuy, 10, "O-1")
	require.NoError(s.T(), s.engine.SubmitOrder(buy, 1))
	s.exchange.ProcessBar(s.fillBar(100, 105, 95, 102, 2))
	require.Len(s.T(), s.posEvents, 1)
	openPositionId := s.posEvents[0].PositionId

	sell := s.newMarketOrder(enums.OrderSideSell, 4, "O-2")
	require.NoError(s.T(), s.engine.SubmitOrder(sell, 3))
	s.exchange.ProcessBar(s.fillBar(110, 115, 108, 112, 4))

	require.Len(s.T(), s.posEvents, 2)
	s.Equal(events.KindPositionChanged, s.posEvents[1].Kind)
	s.Equal(openPositionId, s.posEvents[1].PositionId, "NETTING must reduce the existing position, not open a new one")
}

func (s *ExecutionSuite) TestHedgingFillWithoutPositionIdJoinsFirstOpenPosition() {
	s.buildEngine(enums.OmsHedging)
	first := s.newMarketOrder(enums.OrderSideBuy, 10, "O-1")
	require.NoError(s.T(), s.engine.SubmitOrder(first, 1))
	s.exchange.ProcessBar(s.fillBar(100, 105, 95, 102, 2))
	require.Len(s.T(), s.posEvents, 1)

	second := s.newMarketOrder(enums.OrderSideBuy, 5, "O-2")
	require.NoError(s.T(), s.engine.SubmitOrder(second, 3))
	s.exchange.ProcessBar(s.fillBar(110, 115, 108, 112, 4))

	require.Len(s.T(), s.posEvents, 2)
	s.Equal(events.KindPositionChanged, s.posEvents[1].Kind, "HEDGING applies a fill with no position_id to the first open position")
	s.Equal(s.posEvents[0].PositionId, s.posEvents[1].PositionId)
}

func TestExecutionSuite(t *testing.T) {
	suite.Run(t, new(ExecutionSuite))
}
