// Package config loads a BacktestConfig (venues, instruments, starting
// balances) from YAML via LoadBacktestConfig and wires it into a
// backtest.Driver via Apply.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mrhb33/nautilus-backtest-go/services/backtest"
	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/instrument"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

// VenueConfig mirrors backtest.VenueConfig in plain, YAML-friendly types.
type VenueConfig struct {
	Name        string              `yaml:"name"`
	Oms         string              `yaml:"oms"`
	AccountType string              `yaml:"account_type"`
	Currency    string              `yaml:"currency"`
	Balance     decimal.Decimal     `yaml:"balance"`
	Leverage    decimal.Decimal     `yaml:"leverage"`
}

// InstrumentConfig describes one instrument to register on a venue.
type InstrumentConfig struct {
	Symbol         string          `yaml:"symbol"`
	Venue          string          `yaml:"venue"`
	QuoteCurrency  string          `yaml:"quote_currency"`
	PricePrecision int32           `yaml:"price_precision"`
	SizePrecision  int32           `yaml:"size_precision"`
	MakerFee       decimal.Decimal `yaml:"maker_fee"`
	TakerFee       decimal.Decimal `yaml:"taker_fee"`
}

// BacktestConfig is the top-level document loaded from a YAML file.
type BacktestConfig struct {
	Venues      []VenueConfig       `yaml:"venues"`
	Instruments []InstrumentConfig  `yaml:"instruments"`
}

// LoadBacktestConfig reads and decodes path into a BacktestConfig.
func LoadBacktestConfig(path string) (*BacktestConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg BacktestConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return &cfg, nil
}

// ParseOmsType maps the config's string form to enums.OmsType.
func ParseOmsType(s string) (enums.OmsType, error) {
	switch s {
	case "NETTING", "":
		return enums.OmsNetting, nil
	case "HEDGING":
		return enums.OmsHedging, nil
	default:
		return 0, fmt.Errorf("config: unknown oms type %q", s)
	}
}

// ParseAccountType maps the config's string form to enums.AccountType.
func ParseAccountType(s string) (enums.AccountType, error) {
	switch s {
	case "CASH", "":
		return enums.AccountTypeCash, nil
	case "MARGIN":
		return enums.AccountTypeMargin, nil
	default:
		return 0, fmt.Errorf("config: unknown account type %q", s)
	}
}

// currencyFor resolves the handful of currencies the kernel knows about by
// code; anything else is constructed fresh at fiat-equivalent precision 2.
func currencyFor(code string) value.Currency {
	switch code {
	case value.USD.Code:
		return value.USD
	case value.USDT.Code:
		return value.USDT
	case value.BTC.Code:
		return value.BTC
	default:
		return value.NewCurrency(code, 2, enums.CurrencyKindFiat)
	}
}

// Apply wires a decoded BacktestConfig's venues and instruments into d,
// the ambient convenience §6 describes around AddVenue/AddInstrument.
func Apply(d *backtest.Driver, cfg *BacktestConfig) error {
	for _, vc := range cfg.Venues {
		oms, err := ParseOmsType(vc.Oms)
		if err != nil {
			return err
		}
		accType, err := ParseAccountType(vc.AccountType)
		if err != nil {
			return err
		}
		currency := currencyFor(vc.Currency)
		balance := value.NewMoney(vc.Balance, currency)
		startingBalance, err := value.NewAccountBalance(balance, value.ZeroMoney(currency))
		if err != nil {
			return err
		}
		d.AddVenue(backtest.VenueConfig{
			Venue:            ids.NewVenue(vc.Name),
			OmsType:          oms,
			AccountType:      accType,
			BaseCurrency:     currency,
			StartingBalances: []value.AccountBalance{startingBalance},
			Leverage:         vc.Leverage,
		})
	}

	for _, ic := range cfg.Instruments {
		instrumentId := ids.NewInstrumentId(ids.NewSymbol(ic.Symbol), ids.NewVenue(ic.Venue))
		inst := instrument.NewEquity(instrumentId, currencyFor(ic.QuoteCurrency), ic.PricePrecision, ic.SizePrecision, ic.MakerFee, ic.TakerFee)
		if err := d.AddInstrument(inst); err != nil {
			return err
		}
	}
	return nil
}
