// Package marketdata defines the three record kinds the kernel ever
// consumes from outside: Bar, QuoteTick and TradeTick, plus BarType/BarSpec
// which key the cache's bar sequences and the data.bars.* topic.
package marketdata

import (
	"fmt"

	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

// BarSpec is immutable and hashable (a plain comparable struct is enough
// in Go, since BarAggregation/PriceType are small int enums).
type BarSpec struct {
	Step        int
	Aggregation enums.BarAggregation
	PriceType   enums.PriceType
}

func (s BarSpec) String() string {
	return fmt.Sprintf("%d-%s-%s", s.Step, s.Aggregation, s.PriceType)
}

// BarType is comparable and usable directly as a map key; Go's struct
// equality already does what the source needs a __hash__/__eq__ override
// for.
type BarType struct {
	InstrumentId ids.InstrumentId
	Spec         BarSpec
}

func (t BarType) String() string {
	return fmt.Sprintf("%s-%s", t.InstrumentId, t.Spec)
}

// Record is implemented by every market data record the driver accepts,
// so the backtest driver can sort a heterogeneous feed by ts_event without
// type-switching in the sort comparator.
type Record interface {
	TsEventNs() int64
	InstrumentID() ids.InstrumentId
}

type Bar struct {
	BarType BarType
	Open    value.Price
	High    value.Price
	Low     value.Price
	Close   value.Price
	Volume  value.Quantity
	TsEvent int64
	TsInit  int64
}

func (b Bar) TsEventNs() int64             { return b.TsEvent }
func (b Bar) InstrumentID() ids.InstrumentId { return b.BarType.InstrumentId }

func (b Bar) String() string {
	return fmt.Sprintf("Bar(%s, o=%s h=%s l=%s c=%s v=%s ts=%d)",
		b.BarType, b.Open, b.High, b.Low, b.Close, b.Volume, b.TsEvent)
}

type QuoteTick struct {
	InstrumentId ids.InstrumentId
	BidPrice     value.Price
	AskPrice     value.Price
	BidSize      value.Quantity
	AskSize      value.Quantity
	TsEvent      int64
	TsInit       int64
}

func (q QuoteTick) TsEventNs() int64               { return q.TsEvent }
func (q QuoteTick) InstrumentID() ids.InstrumentId { return q.InstrumentId }

type TradeTick struct {
	InstrumentId   ids.InstrumentId
	Price          value.Price
	Size           value.Quantity
	AggressorSide  enums.OrderSide
	TradeId        ids.TradeId
	TsEvent        int64
	TsInit         int64
}

func (t TradeTick) TsEventNs() int64               { return t.TsEvent }
func (t TradeTick) InstrumentID() ids.InstrumentId { return t.InstrumentId }
