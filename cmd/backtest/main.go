// Command backtest runs the deterministic kernel against a CSV bar file
// and a YAML venue/instrument configuration, then prints a BacktestResult
// summary. Grounded on cmd/run_ema_atr/main.go's flag-driven CLI shape;
// the ClickHouse export step is out of scope (no such dependency is wired
// into this module), so data comes from a local CSV exactly as that
// command's -csv path already supports.
package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mrhb33/nautilus-backtest-go/services/backtest"
	"github.com/mrhb33/nautilus-backtest-go/services/config"
	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/marketdata"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
	"github.com/mrhb33/nautilus-backtest-go/strategies"
)

func main() {
	configPath := flag.String("config", "./backtest.yaml", "Path to the venue/instrument YAML config")
	csvPath := flag.String("csv", "", "Path to a local OHLCV CSV file (timestamp_ms,open,high,low,close,volume)")
	symbol := flag.String("symbol", "BTCUSDT", "Instrument symbol to trade")
	venue := flag.String("venue", "SIM", "Venue name the instrument trades on")
	strategyName := flag.String("strategy", "ema-atr", "Strategy to run (only ema-atr is built in)")
	quantity := flag.String("qty", "1", "Fixed order quantity for each entry")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *csvPath == "" {
		log.Fatal("backtest: -csv is required")
	}

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}

	cfg, err := config.LoadBacktestConfig(*configPath)
	if err != nil {
		log.Fatalf("backtest: %v", err)
	}

	traderId := ids.NewTraderId("TRADER-001")
	driver := backtest.New(traderId, logger)
	if err := config.Apply(driver, cfg); err != nil {
		log.Fatalf("backtest: %v", err)
	}

	instrumentId := ids.NewInstrumentId(ids.NewSymbol(*symbol), ids.NewVenue(*venue))
	barType := marketdata.BarType{
		InstrumentId: instrumentId,
		Spec:         marketdata.BarSpec{Step: 5, Aggregation: enums.BarAggregationMinute, PriceType: enums.PriceTypeLast},
	}

	bars, err := loadBarsCSV(*csvPath, barType)
	if err != nil {
		log.Fatalf("backtest: %v", err)
	}
	log.Printf("loaded %d bars from %s", len(bars), *csvPath)

	records := make([]backtest.Record, len(bars))
	for i, b := range bars {
		records[i] = b
	}
	driver.AddData(records...)

	qty, err := decimal.NewFromString(*quantity)
	if err != nil {
		log.Fatalf("backtest: invalid -qty %q: %v", *quantity, err)
	}

	switch *strategyName {
	case "ema-atr":
		sizePrecision := int32(0)
		strat := strategies.NewEMAATRStrategy(
			ids.NewStrategyId("EMA-ATR-001"),
			strategies.DefaultEMAATRConfig(instrumentId, barType, value.NewQuantity(qty, sizePrecision)),
		)
		driver.AddStrategy(strat)
	default:
		log.Fatalf("backtest: unknown strategy %q", *strategyName)
	}

	result, err := driver.Run(nil, nil)
	if err != nil {
		log.Fatalf("backtest: run failed: %v", err)
	}

	printResult(result)
}

// loadBarsCSV parses timestamp_ms,open,high,low,close,volume rows,
// skipping any header and malformed lines, mirroring the source's
// EMAATRStrategy.LoadCSV tolerance for dirty input.
func loadBarsCSV(path string, barType marketdata.BarType) ([]marketdata.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var bars []marketdata.Bar
	lineIndex := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			lineIndex++
			continue
		}
		if len(rec) < 6 {
			lineIndex++
			continue
		}
		if lineIndex == 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "timestamp") {
			lineIndex++
			continue
		}

		tsStr := strings.TrimPrefix(strings.TrimSpace(rec[0]), "\ufeff")
		ts, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			lineIndex++
			continue
		}
		open, err1 := decimal.NewFromString(strings.TrimSpace(rec[1]))
		high, err2 := decimal.NewFromString(strings.TrimSpace(rec[2]))
		low, err3 := decimal.NewFromString(strings.TrimSpace(rec[3]))
		closePx, err4 := decimal.NewFromString(strings.TrimSpace(rec[4]))
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			lineIndex++
			continue
		}
		volume, err5 := decimal.NewFromString(strings.TrimSpace(rec[5]))
		if err5 != nil {
			volume = decimal.Zero
		}

		tsNs := ts * 1_000_000
		bars = append(bars, marketdata.Bar{
			BarType: barType,
			Open:    value.NewPrice(open, 8),
			High:    value.NewPrice(high, 8),
			Low:     value.NewPrice(low, 8),
			Close:   value.NewPrice(closePx, 8),
			Volume:  value.NewQuantity(volume, 8),
			TsEvent: tsNs,
			TsInit:  tsNs,
		})
		lineIndex++
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].TsEvent < bars[j].TsEvent })
	return bars, nil
}

func printResult(r *backtest.BacktestResult) {
	p := message.NewPrinter(language.English)

	fmt.Println("=== Backtest Summary ===")
	p.Printf("Job ID:            %s\n", r.Manifest.JobID)
	p.Printf("Engine version:    %s\n", r.Manifest.EngineVersion)
	p.Printf("Orders:            %d\n", r.TotalOrders)
	p.Printf("Fills:             %d\n", r.TotalFills)
	p.Printf("Positions:         %d\n", r.TotalPositions)
	p.Printf("Starting balance:  %s\n", r.StartingBalance.StringFixed(2))
	p.Printf("Ending balance:    %s\n", r.EndingBalance.StringFixed(2))
	p.Printf("Total return:      %s\n", r.TotalReturn.StringFixed(2))
	p.Printf("Total commissions: %s\n", r.TotalCommissions.StringFixed(2))
	p.Printf("Max drawdown:      %.2f%%\n", r.MaxDrawdown*100)
	p.Printf("Sharpe ratio:      %.3f\n", r.SharpeRatio)
	p.Printf("Win rate:          %.2f%%\n", r.WinRate*100)
	p.Printf("Profit factor:     %.3f\n", r.ProfitFactor)
	p.Printf("Avg win:           %s\n", r.AvgWin.StringFixed(2))
	p.Printf("Avg loss:          %s\n", r.AvgLoss.StringFixed(2))
}
