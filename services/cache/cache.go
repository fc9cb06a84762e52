// Package cache implements the in-memory state store: the single owner of
// every instrument, account, order and position record, plus the
// secondary indexes and market-data sequences the portfolio and engines
// query. Grounded on the source's Cache; the indexes use insertion-ordered
// slices rather than Python lists keyed by dict, which Go gives for free
// since append preserves order.
package cache

import (
	"github.com/mrhb33/nautilus-backtest-go/services/account"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/instrument"
	"github.com/mrhb33/nautilus-backtest-go/services/marketdata"
	"github.com/mrhb33/nautilus-backtest-go/services/order"
	"github.com/mrhb33/nautilus-backtest-go/services/position"
)

type Cache struct {
	instruments map[ids.InstrumentId]instrument.Instrument
	accounts    map[ids.AccountId]*account.Account

	orders   map[ids.ClientOrderId]*order.Order
	ordersByVenue      map[ids.Venue][]ids.ClientOrderId
	ordersByStrategy   map[ids.StrategyId][]ids.ClientOrderId
	ordersByInstrument map[ids.InstrumentId][]ids.ClientOrderId

	positions             map[ids.PositionId]*position.Position
	positionsByVenue      map[ids.Venue][]ids.PositionId
	positionsByStrategy   map[ids.StrategyId][]ids.PositionId
	positionsByInstrument map[ids.InstrumentId][]ids.PositionId

	bars       map[marketdata.BarType][]marketdata.Bar
	quoteTicks map[ids.InstrumentId][]marketdata.QuoteTick
	tradeTicks map[ids.InstrumentId][]marketdata.TradeTick
}

func New() *Cache {
	return &Cache{
		instruments:           make(map[ids.InstrumentId]instrument.Instrument),
		accounts:              make(map[ids.AccountId]*account.Account),
		orders:                make(map[ids.ClientOrderId]*order.Order),
		ordersByVenue:         make(map[ids.Venue][]ids.ClientOrderId),
		ordersByStrategy:      make(map[ids.StrategyId][]ids.ClientOrderId),
		ordersByInstrument:    make(map[ids.InstrumentId][]ids.ClientOrderId),
		positions:             make(map[ids.PositionId]*position.Position),
		positionsByVenue:      make(map[ids.Venue][]ids.PositionId),
		positionsByStrategy:   make(map[ids.StrategyId][]ids.PositionId),
		positionsByInstrument: make(map[ids.InstrumentId][]ids.PositionId),
		bars:                  make(map[marketdata.BarType][]marketdata.Bar),
		quoteTicks:            make(map[ids.InstrumentId][]marketdata.QuoteTick),
		tradeTicks:            make(map[ids.InstrumentId][]marketdata.TradeTick),
	}
}

// --- Instruments ---

func (c *Cache) AddInstrument(inst instrument.Instrument) { c.instruments[inst.ID()] = inst }

func (c *Cache) Instrument(id ids.InstrumentId) (instrument.Instrument, bool) {
	inst, ok := c.instruments[id]
	return inst, ok
}

func (c *Cache) Instruments() []instrument.Instrument {
	out := make([]instrument.Instrument, 0, len(c.instruments))
	for _, inst := range c.instruments {
		out = append(out, inst)
	}
	return out
}

// --- Accounts ---

func (c *Cache) AddAccount(a *account.Account) { c.accounts[a.Id] = a }

func (c *Cache) Account(id ids.AccountId) (*account.Account, bool) {
	a, ok := c.accounts[id]
	return a, ok
}

func (c *Cache) AccountForVenue(venue ids.Venue) (*account.Account, bool) {
	a, ok := c.accounts[ids.AccountIdForVenue(venue)]
	return a, ok
}

// --- Orders ---

func (c *Cache) AddOrder(o *order.Order) {
	c.orders[o.ClientOrderId] = o
	venue := o.InstrumentId.Venue
	c.ordersByVenue[venue] = append(c.ordersByVenue[venue], o.ClientOrderId)
	if !o.StrategyId.IsEmpty() {
		c.ordersByStrategy[o.StrategyId] = append(c.ordersByStrategy[o.StrategyId], o.ClientOrderId)
	}
	c.ordersByInstrument[o.InstrumentId] = append(c.ordersByInstrument[o.InstrumentId], o.ClientOrderId)
}

// UpdateOrder only re-stores the pointer under its client order id (the
// secondary indexes are left as they are) under the current design since
// Order is a pointer the cache already shares with its mutator; it exists
// to mirror the source's explicit update_order call sites and to keep the
// door open for a future non-pointer order representation.
func (c *Cache) UpdateOrder(o *order.Order) { c.orders[o.ClientOrderId] = o }

func (c *Cache) Order(id ids.ClientOrderId) (*order.Order, bool) {
	o, ok := c.orders[id]
	return o, ok
}

func (c *Cache) Orders(instrumentId *ids.InstrumentId, strategyId *ids.StrategyId) []*order.Order {
	switch {
	case instrumentId != nil && strategyId != nil:
		byStrategy := make(map[ids.ClientOrderId]bool, len(c.ordersByStrategy[*strategyId]))
		for _, id := range c.ordersByStrategy[*strategyId] {
			byStrategy[id] = true
		}
		var out []*order.Order
		for _, o := range c.ordersFromIds(c.ordersByInstrument[*instrumentId]) {
			if byStrategy[o.ClientOrderId] {
				out = append(out, o)
			}
		}
		return out
	case instrumentId != nil:
		return c.ordersFromIds(c.ordersByInstrument[*instrumentId])
	case strategyId != nil:
		return c.ordersFromIds(c.ordersByStrategy[*strategyId])
	default:
		out := make([]*order.Order, 0, len(c.orders))
		for _, o := range c.orders {
			out = append(out, o)
		}
		return out
	}
}

func (c *Cache) ordersFromIds(clientIds []ids.ClientOrderId) []*order.Order {
	out := make([]*order.Order, 0, len(clientIds))
	for _, id := range clientIds {
		if o, ok := c.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

func (c *Cache) OrdersOpen(instrumentId *ids.InstrumentId, strategyId *ids.StrategyId) []*order.Order {
	var out []*order.Order
	for _, o := range c.Orders(instrumentId, strategyId) {
		if o.IsOpen() {
			out = append(out, o)
		}
	}
	return out
}

func (c *Cache) OrdersClosed(instrumentId *ids.InstrumentId, strategyId *ids.StrategyId) []*order.Order {
	var out []*order.Order
	for _, o := range c.Orders(instrumentId, strategyId) {
		if o.IsClosed() {
			out = append(out, o)
		}
	}
	return out
}

func (c *Cache) OrdersForVenue(venue ids.Venue) []*order.Order {
	return c.ordersFromIds(c.ordersByVenue[venue])
}

// --- Positions ---

func (c *Cache) AddPosition(p *position.Position) {
	c.positions[p.Id] = p
	venue := p.InstrumentId.Venue
	c.positionsByVenue[venue] = append(c.positionsByVenue[venue], p.Id)
	if !p.StrategyId.IsEmpty() {
		c.positionsByStrategy[p.StrategyId] = append(c.positionsByStrategy[p.StrategyId], p.Id)
	}
	c.positionsByInstrument[p.InstrumentId] = append(c.positionsByInstrument[p.InstrumentId], p.Id)
}

func (c *Cache) UpdatePosition(p *position.Position) { c.positions[p.Id] = p }

func (c *Cache) Position(id ids.PositionId) (*position.Position, bool) {
	p, ok := c.positions[id]
	return p, ok
}

func (c *Cache) Positions(instrumentId *ids.InstrumentId, strategyId *ids.StrategyId) []*position.Position {
	switch {
	case instrumentId != nil && strategyId != nil:
		byStrategy := make(map[ids.PositionId]bool, len(c.positionsByStrategy[*strategyId]))
		for _, id := range c.positionsByStrategy[*strategyId] {
			byStrategy[id] = true
		}
		var out []*position.Position
		for _, p := range c.positionsFromIds(c.positionsByInstrument[*instrumentId]) {
			if byStrategy[p.Id] {
				out = append(out, p)
			}
		}
		return out
	case instrumentId != nil:
		return c.positionsFromIds(c.positionsByInstrument[*instrumentId])
	case strategyId != nil:
		return c.positionsFromIds(c.positionsByStrategy[*strategyId])
	default:
		out := make([]*position.Position, 0, len(c.positions))
		for _, p := range c.positions {
			out = append(out, p)
		}
		return out
	}
}

func (c *Cache) positionsFromIds(posIds []ids.PositionId) []*position.Position {
	out := make([]*position.Position, 0, len(posIds))
	for _, id := range posIds {
		if p, ok := c.positions[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (c *Cache) PositionsOpen(instrumentId *ids.InstrumentId, strategyId *ids.StrategyId) []*position.Position {
	var out []*position.Position
	for _, p := range c.Positions(instrumentId, strategyId) {
		if p.IsOpen() {
			out = append(out, p)
		}
	}
	return out
}

func (c *Cache) PositionsClosed(instrumentId *ids.InstrumentId, strategyId *ids.StrategyId) []*position.Position {
	var out []*position.Position
	for _, p := range c.Positions(instrumentId, strategyId) {
		if p.IsClosed() {
			out = append(out, p)
		}
	}
	return out
}

func (c *Cache) PositionsForVenue(venue ids.Venue) []*position.Position {
	return c.positionsFromIds(c.positionsByVenue[venue])
}

// --- Market data ---

func (c *Cache) AddBar(b marketdata.Bar) {
	c.bars[b.BarType] = append(c.bars[b.BarType], b)
}

func (c *Cache) Bars(barType marketdata.BarType) []marketdata.Bar {
	out := make([]marketdata.Bar, len(c.bars[barType]))
	copy(out, c.bars[barType])
	return out
}

func (c *Cache) AddQuoteTick(q marketdata.QuoteTick) {
	c.quoteTicks[q.InstrumentId] = append(c.quoteTicks[q.InstrumentId], q)
}

func (c *Cache) QuoteTicks(id ids.InstrumentId) []marketdata.QuoteTick {
	out := make([]marketdata.QuoteTick, len(c.quoteTicks[id]))
	copy(out, c.quoteTicks[id])
	return out
}

func (c *Cache) AddTradeTick(t marketdata.TradeTick) {
	c.tradeTicks[t.InstrumentId] = append(c.tradeTicks[t.InstrumentId], t)
}

func (c *Cache) TradeTicks(id ids.InstrumentId) []marketdata.TradeTick {
	out := make([]marketdata.TradeTick, len(c.tradeTicks[id]))
	copy(out, c.tradeTicks[id])
	return out
}
