// Package backtest implements the BacktestDriver from §4.11: it owns the
// kernel (clock, bus, cache, engines), one simulated exchange per venue,
// the registered strategies, and the merged data stream, and produces a
// BacktestResult. Grounded on the source's BacktestEngine.run loop.
package backtest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mrhb33/nautilus-backtest-go/services/account"
	"github.com/mrhb33/nautilus-backtest-go/services/bus"
	"github.com/mrhb33/nautilus-backtest-go/services/cache"
	"github.com/mrhb33/nautilus-backtest-go/services/clock"
	"github.com/mrhb33/nautilus-backtest-go/services/dataengine"
	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/exchange"
	"github.com/mrhb33/nautilus-backtest-go/services/execution"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/instrument"
	"github.com/mrhb33/nautilus-backtest-go/services/marketdata"
	"github.com/mrhb33/nautilus-backtest-go/services/order"
	"github.com/mrhb33/nautilus-backtest-go/services/risk"
	"github.com/mrhb33/nautilus-backtest-go/services/strategy"
	"github.com/mrhb33/nautilus-backtest-go/services/telemetry"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

// EngineVersion is stamped into every run's manifest. Bump it whenever the
// kernel's observable behavior changes.
const EngineVersion = "1.0.0"

// RunManifest records the reproducibility metadata for a single Run: a
// fresh job id plus a hash of the venue/instrument configuration, so two
// runs against the same config can be correlated without re-diffing state.
type RunManifest struct {
	JobID         string
	ConfigHash    string
	EngineVersion string
	CreatedAtNs   int64
}

// VenueConfig describes one simulated venue to be added to the driver.
type VenueConfig struct {
	Venue            ids.Venue
	OmsType          enums.OmsType
	AccountType      enums.AccountType
	BaseCurrency     value.Currency
	StartingBalances []value.AccountBalance
	Leverage         decimal.Decimal
}

type venueEntry struct {
	exchange *exchange.Exchange
	account  *account.Account
}

// Record is any market-data record accepted by AddData; it is the same
// interface marketdata.Bar/QuoteTick/TradeTick satisfy.
type Record = marketdata.Record

// Driver owns the whole kernel for one backtest run.
type Driver struct {
	Clock      *clock.TestClock
	Bus        *bus.MessageBus
	Cache      *cache.Cache
	DataEngine *dataengine.DataEngine
	Risk       *risk.RiskEngine
	Execution  *execution.Engine
	Metrics    *telemetry.Metrics
	TraderId   ids.TraderId

	venues      map[ids.Venue]*venueEntry
	strategies  []strategy.Strategy
	runtimes    map[ids.StrategyId]*strategy.Runtime
	data        []Record
	venueCfgs   []VenueConfig
	instruments []instrument.Instrument

	balanceCurve []BalancePoint
	manifest     RunManifest
	logger       *zap.Logger
}

type BalancePoint struct {
	TsNs    int64
	Balance decimal.Decimal
}

func New(traderId ids.TraderId, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cache.New()
	b := bus.New()
	d := &Driver{
		Clock:      clock.NewTestClock(0),
		Bus:        b,
		Cache:      c,
		DataEngine: dataengine.New(c, b, logger),
		Metrics:    telemetry.New(),
		TraderId:   traderId,
		venues:     make(map[ids.Venue]*venueEntry),
		runtimes:   make(map[ids.StrategyId]*strategy.Runtime),
		logger:     logger,
	}
	d.Risk = risk.New(c, d.netPositionSign, logger)
	d.Execution = execution.New(c, b, d.Risk, logger)
	d.Execution.SetMetrics(d.Metrics)
	return d
}

// netPositionSign reports the sign of the net open position for an
// order's instrument and strategy, used only by the risk engine's
// REDUCING gate.
func (d *Driver) netPositionSign(o *order.Order) int {
	instrumentId := o.InstrumentId
	net := decimal.Zero
	for _, pos := range d.Cache.PositionsOpen(&instrumentId, &o.StrategyId) {
		net = net.Add(pos.SignedQty)
	}
	return net.Sign()
}

// AddVenue registers a simulated exchange for the venue, seeding its
// account with the configured starting balances.
func (d *Driver) AddVenue(cfg VenueConfig) {
	accountId := ids.AccountIdForVenue(cfg.Venue)
	var acc *account.Account
	if cfg.AccountType == enums.AccountTypeMargin {
		lev := cfg.Leverage
		if lev.IsZero() {
			lev = decimal.NewFromInt(1)
		}
		acc = account.NewMargin(accountId, cfg.BaseCurrency, lev, cfg.StartingBalances...)
	} else {
		acc = account.NewCash(accountId, cfg.BaseCurrency, cfg.StartingBalances...)
	}
	d.Cache.AddAccount(acc)

	x := exchange.New(cfg.Venue, cfg.OmsType, acc, d.logger)
	d.Execution.RegisterVenue(cfg.Venue, x, cfg.OmsType)
	d.venues[cfg.Venue] = &venueEntry{exchange: x, account: acc}
	d.venueCfgs = append(d.venueCfgs, cfg)
}

// AddInstrument routes the instrument to the cache and to its venue's
// exchange, which needs it to compute fee/notional at fill time.
func (d *Driver) AddInstrument(inst instrument.Instrument) error {
	d.Cache.AddInstrument(inst)
	v, ok := d.venues[inst.ID().Venue]
	if !ok {
		return fmt.Errorf("backtest: no venue %s registered for instrument %s", inst.ID().Venue, inst.ID())
	}
	v.exchange.AddInstrument(inst)
	d.instruments = append(d.instruments, inst)
	return nil
}

// AddData appends records to the merged feed; Run stable-sorts by
// ts_event before replay.
func (d *Driver) AddData(records ...Record) {
	d.data = append(d.data, records...)
}

// AddStrategy registers and binds a strategy runtime, injecting the
// clock/cache/bus/execution/data-engine references.
func (d *Driver) AddStrategy(s strategy.Strategy) *strategy.Runtime {
	rt := strategy.NewRuntime(s, d.TraderId, d.Clock, d.Cache, d.Bus, d.Execution, d.DataEngine)
	d.strategies = append(d.strategies, s)
	d.runtimes[s.Id()] = rt
	return rt
}

// Run executes the deterministic event loop from §4.11 over
// [startNs, endNs] (either bound may be nil for unbounded).
func (d *Driver) Run(startNs, endNs *int64) (*BacktestResult, error) {
	d.manifest = d.buildManifest()

	sorted := make([]Record, len(d.data))
	copy(sorted, d.data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TsEventNs() < sorted[j].TsEventNs()
	})

	for _, s := range d.strategies {
		s.OnStart()
	}

	startingBalances := d.totalAccountValue()
	var startNsActual, endNsActual int64
	first := true

	for _, rec := range sorted {
		ts := rec.TsEventNs()
		if startNs != nil && ts < *startNs {
			continue
		}
		if endNs != nil && ts > *endNs {
			break
		}
		if first {
			startNsActual = ts
			first = false
		}
		endNsActual = ts
		recordStart := time.Now()

		fired := d.Clock.AdvanceTo(ts)
		for _, te := range fired {
			if te.Callback != nil {
				te.Callback(te)
			}
		}

		switch v := rec.(type) {
		case marketdata.Bar:
			if entry, ok := d.venues[v.BarType.InstrumentId.Venue]; ok {
				entry.exchange.ProcessBar(v)
			}
			d.DataEngine.ProcessBar(v)
		case marketdata.QuoteTick:
			d.DataEngine.ProcessQuoteTick(v)
		case marketdata.TradeTick:
			d.DataEngine.ProcessTradeTick(v)
		}

		d.balanceCurve = append(d.balanceCurve, BalancePoint{TsNs: ts, Balance: d.totalAccountValue()})
		d.Metrics.ObserveRecordLatency(recordStart)
	}

	for _, s := range d.strategies {
		s.OnStop()
	}

	return d.buildResult(startNsActual, endNsActual, startingBalances), nil
}

func (d *Driver) totalAccountValue() decimal.Decimal {
	total := decimal.Zero
	for _, v := range d.venues {
		for _, bal := range v.account.Balances() {
			total = total.Add(bal.Total.Amount)
		}
	}
	return total
}

func (d *Driver) buildManifest() RunManifest {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, cfg := range d.venueCfgs {
		_ = enc.Encode(map[string]string{
			"venue": cfg.Venue.String(), "oms": cfg.OmsType.String(), "currency": cfg.BaseCurrency.Code,
		})
	}
	for _, inst := range d.instruments {
		_ = enc.Encode(map[string]string{
			"instrument": inst.ID().String(), "quote": inst.QuoteCurrency().Code,
			"price_precision": fmt.Sprint(inst.PricePrecision()), "size_precision": fmt.Sprint(inst.SizePrecision()),
			"maker_fee": inst.MakerFee().String(), "taker_fee": inst.TakerFee().String(),
		})
	}
	return RunManifest{
		JobID:         uuid.New().String(),
		ConfigHash:    fmt.Sprintf("%x", h.Sum(nil)),
		EngineVersion: EngineVersion,
		CreatedAtNs:   d.Clock.TimestampNs(),
	}
}

func (d *Driver) Manifest() RunManifest { return d.manifest }

// Reset clears strategies' accumulated data/position state by discarding
// and rebuilding the kernel's mutable stores, while keeping the configured
// venues, instruments and strategies. It is the one operation the driver
// API exposes for running the same configuration again from a clean slate.
func (d *Driver) Reset() {
	c := cache.New()
	b := bus.New()
	d.Cache = c
	d.Bus = b
	d.Clock = clock.NewTestClock(0)
	d.DataEngine = dataengine.New(c, b, d.logger)
	d.Risk = risk.New(c, d.netPositionSign, d.logger)
	d.Execution = execution.New(c, b, d.Risk, d.logger)
	d.Execution.SetMetrics(d.Metrics)
	d.balanceCurve = nil

	venueCfgs := d.venueCfgs
	d.venues = make(map[ids.Venue]*venueEntry)
	d.venueCfgs = nil
	for _, cfg := range venueCfgs {
		d.AddVenue(cfg)
	}

	insts := d.instruments
	d.instruments = nil
	for _, inst := range insts {
		_ = d.AddInstrument(inst)
	}

	strategies := d.strategies
	d.strategies = nil
	d.runtimes = make(map[ids.StrategyId]*strategy.Runtime)
	for _, s := range strategies {
		d.AddStrategy(s)
	}
}
