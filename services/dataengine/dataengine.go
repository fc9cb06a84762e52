// Package dataengine implements the thin router described in §4.3: for
// each market-data record it appends to the cache's typed sequence and
// publishes it on the appropriate topic. Subscription management is
// forwarded through here so strategies never talk to the bus directly.
package dataengine

import (
	"fmt"

	"github.com/mrhb33/nautilus-backtest-go/services/bus"
	"github.com/mrhb33/nautilus-backtest-go/services/cache"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/marketdata"

	"go.uber.org/zap"
)

type DataEngine struct {
	cache  *cache.Cache
	bus    *bus.MessageBus
	logger *zap.Logger
}

func New(c *cache.Cache, b *bus.MessageBus, logger *zap.Logger) *DataEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataEngine{cache: c, bus: b, logger: logger}
}

func barTopic(bt marketdata.BarType) string {
	return fmt.Sprintf("data.bars.%s", bt)
}

func quoteTopic(id ids.InstrumentId) string { return fmt.Sprintf("data.quotes.%s", id) }
func tradeTopic(id ids.InstrumentId) string { return fmt.Sprintf("data.trades.%s", id) }

// ProcessBar stores the bar then publishes it; the matching engine must
// already have resolved orders against this bar before this is called, so
// a strategy reacting to on_bar never looks ahead within the same bar.
func (e *DataEngine) ProcessBar(b marketdata.Bar) {
	e.cache.AddBar(b)
	e.logger.Debug("bar", zap.String("bar_type", b.BarType.String()), zap.Int64("ts", b.TsEvent))
	e.bus.Publish(barTopic(b.BarType), b)
}

func (e *DataEngine) ProcessQuoteTick(q marketdata.QuoteTick) {
	e.cache.AddQuoteTick(q)
	e.bus.Publish(quoteTopic(q.InstrumentId), q)
}

func (e *DataEngine) ProcessTradeTick(t marketdata.TradeTick) {
	e.cache.AddTradeTick(t)
	e.bus.Publish(tradeTopic(t.InstrumentId), t)
}

func (e *DataEngine) SubscribeBars(barType marketdata.BarType, handler bus.Handler) bus.Subscription {
	return e.bus.Subscribe(barTopic(barType), handler)
}

func (e *DataEngine) SubscribeQuoteTicks(id ids.InstrumentId, handler bus.Handler) bus.Subscription {
	return e.bus.Subscribe(quoteTopic(id), handler)
}

func (e *DataEngine) SubscribeTradeTicks(id ids.InstrumentId, handler bus.Handler) bus.Subscription {
	return e.bus.Subscribe(tradeTopic(id), handler)
}

func (e *DataEngine) Unsubscribe(sub bus.Subscription) { e.bus.Unsubscribe(sub) }
