// Package instrument defines the five tradable instrument variants and the
// shared capability set (precisions, increments, fee rates, min/max
// bounds) every variant embeds. Go favours composition over the
// inheritance hierarchy the source uses: each variant embeds Base and adds
// its own fields.
package instrument

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

type AssetClass int

const (
	AssetClassEquity AssetClass = iota
	AssetClassFX
	AssetClassCrypto
	AssetClassIndex
	AssetClassCommodity
)

// Instrument is satisfied by every variant; the matching engine, risk
// engine and order factory depend only on this surface.
type Instrument interface {
	ID() ids.InstrumentId
	QuoteCurrency() value.Currency
	PricePrecision() int32
	SizePrecision() int32
	MakerFee() decimal.Decimal
	TakerFee() decimal.Decimal
	Multiplier() decimal.Decimal
	MinQuantity() (value.Quantity, bool)
	MaxQuantity() (value.Quantity, bool)
	MinPrice() (value.Price, bool)
	MaxPrice() (value.Price, bool)
	MakePrice(v decimal.Decimal) value.Price
	MakeQuantity(v decimal.Decimal) value.Quantity
}

// Base carries the capability set shared by every Instrument variant.
type Base struct {
	Id             ids.InstrumentId
	AssetClass     AssetClass
	QuoteCcy       value.Currency
	BaseCcy        *value.Currency
	PricePrec      int32
	SizePrec       int32
	PriceIncrement value.Price
	SizeIncrement  value.Quantity
	Multiplier_    decimal.Decimal
	LotSize        *value.Quantity
	MakerFeeRate   decimal.Decimal
	TakerFeeRate   decimal.Decimal
	MinQty         *value.Quantity
	MaxQty         *value.Quantity
	MinPx          *value.Price
	MaxPx          *value.Price
	TsEvent        int64
	TsInit         int64
}

func (b Base) ID() ids.InstrumentId        { return b.Id }
func (b Base) QuoteCurrency() value.Currency { return b.QuoteCcy }
func (b Base) PricePrecision() int32       { return b.PricePrec }
func (b Base) SizePrecision() int32        { return b.SizePrec }
func (b Base) MakerFee() decimal.Decimal   { return b.MakerFeeRate }
func (b Base) TakerFee() decimal.Decimal   { return b.TakerFeeRate }

func (b Base) Multiplier() decimal.Decimal {
	if b.Multiplier_.IsZero() {
		return decimal.NewFromInt(1)
	}
	return b.Multiplier_
}

func (b Base) MinQuantity() (value.Quantity, bool) {
	if b.MinQty == nil {
		return value.Quantity{}, false
	}
	return *b.MinQty, true
}

func (b Base) MaxQuantity() (value.Quantity, bool) {
	if b.MaxQty == nil {
		return value.Quantity{}, false
	}
	return *b.MaxQty, true
}

func (b Base) MinPrice() (value.Price, bool) {
	if b.MinPx == nil {
		return value.Price{}, false
	}
	return *b.MinPx, true
}

func (b Base) MaxPrice() (value.Price, bool) {
	if b.MaxPx == nil {
		return value.Price{}, false
	}
	return *b.MaxPx, true
}

func (b Base) MakePrice(v decimal.Decimal) value.Price {
	return value.NewPrice(v, b.PricePrec)
}

func (b Base) MakeQuantity(v decimal.Decimal) value.Quantity {
	return value.NewQuantity(v, b.SizePrec)
}

func defaultIncrement(precision int32) decimal.Decimal {
	return decimal.New(1, -precision)
}

// Equity is a cash-settled, no-multiplier instrument with whole-share lot
// sizing by default (size_precision = 0).
type Equity struct{ Base }

func NewEquity(id ids.InstrumentId, quoteCcy value.Currency, pricePrec, sizePrec int32, makerFee, takerFee decimal.Decimal) Equity {
	one := value.NewQuantity(decimal.NewFromInt(1), 0)
	return Equity{Base{
		Id: id, AssetClass: AssetClassEquity, QuoteCcy: quoteCcy,
		PricePrec: pricePrec, SizePrec: sizePrec,
		PriceIncrement: value.NewPrice(defaultIncrement(pricePrec), pricePrec),
		SizeIncrement:  value.NewQuantity(defaultIncrement(sizePrec), sizePrec),
		LotSize:        &one,
		MakerFeeRate:   makerFee, TakerFeeRate: takerFee,
		Multiplier_: decimal.NewFromInt(1),
	}}
}

// CurrencyPair is a spot FX / crypto spot instrument with a distinct base
// and quote currency.
type CurrencyPair struct {
	Base
	BaseCurrency value.Currency
}

func NewCurrencyPair(id ids.InstrumentId, baseCcy, quoteCcy value.Currency, pricePrec, sizePrec int32, makerFee, takerFee decimal.Decimal) CurrencyPair {
	return CurrencyPair{
		Base: Base{
			Id: id, AssetClass: AssetClassFX, QuoteCcy: quoteCcy, BaseCcy: &baseCcy,
			PricePrec: pricePrec, SizePrec: sizePrec,
			PriceIncrement: value.NewPrice(defaultIncrement(pricePrec), pricePrec),
			SizeIncrement:  value.NewQuantity(defaultIncrement(sizePrec), sizePrec),
			MakerFeeRate:   makerFee, TakerFeeRate: takerFee,
			Multiplier_: decimal.NewFromInt(1),
		},
		BaseCurrency: baseCcy,
	}
}

// CryptoPerpetual adds a settlement currency distinct from quote currency
// and an explicit contract multiplier.
type CryptoPerpetual struct {
	Base
	BaseCurrency       value.Currency
	SettlementCurrency value.Currency
}

func NewCryptoPerpetual(id ids.InstrumentId, baseCcy, quoteCcy, settlementCcy value.Currency, pricePrec, sizePrec int32, multiplier, makerFee, takerFee decimal.Decimal) CryptoPerpetual {
	return CryptoPerpetual{
		Base: Base{
			Id: id, AssetClass: AssetClassCrypto, QuoteCcy: quoteCcy, BaseCcy: &baseCcy,
			PricePrec: pricePrec, SizePrec: sizePrec,
			PriceIncrement: value.NewPrice(defaultIncrement(pricePrec), pricePrec),
			SizeIncrement:  value.NewQuantity(defaultIncrement(sizePrec), sizePrec),
			Multiplier_:    multiplier,
			MakerFeeRate:   makerFee, TakerFeeRate: takerFee,
		},
		BaseCurrency:       baseCcy,
		SettlementCurrency: settlementCcy,
	}
}

// FuturesContract adds an expiry date string and an explicit multiplier.
type FuturesContract struct {
	Base
	ExpiryDate string
}

func NewFuturesContract(id ids.InstrumentId, quoteCcy value.Currency, assetClass AssetClass, pricePrec, sizePrec int32, expiryDate string, multiplier, makerFee, takerFee decimal.Decimal) FuturesContract {
	return FuturesContract{
		Base: Base{
			Id: id, AssetClass: assetClass, QuoteCcy: quoteCcy,
			PricePrec: pricePrec, SizePrec: sizePrec,
			PriceIncrement: value.NewPrice(defaultIncrement(pricePrec), pricePrec),
			SizeIncrement:  value.NewQuantity(defaultIncrement(sizePrec), sizePrec),
			Multiplier_:    multiplier,
			MakerFeeRate:   makerFee, TakerFeeRate: takerFee,
		},
		ExpiryDate: expiryDate,
	}
}

// OptionsContract is net-new relative to the source system: an expiring,
// struck derivative instrument. It follows FuturesContract's shape with
// the addition of a strike price, matching the data model's explicit
// instrument variant set.
type OptionsContract struct {
	Base
	ExpiryDate  string
	StrikePrice value.Price
	IsCall      bool
}

func NewOptionsContract(id ids.InstrumentId, quoteCcy value.Currency, pricePrec, sizePrec int32, expiryDate string, strikePrice value.Price, isCall bool, multiplier, makerFee, takerFee decimal.Decimal) OptionsContract {
	return OptionsContract{
		Base: Base{
			Id: id, AssetClass: AssetClassIndex, QuoteCcy: quoteCcy,
			PricePrec: pricePrec, SizePrec: sizePrec,
			PriceIncrement: value.NewPrice(defaultIncrement(pricePrec), pricePrec),
			SizeIncrement:  value.NewQuantity(defaultIncrement(sizePrec), sizePrec),
			Multiplier_:    multiplier,
			MakerFeeRate:   makerFee, TakerFeeRate: takerFee,
		},
		ExpiryDate:  expiryDate,
		StrikePrice: strikePrice,
		IsCall:      isCall,
	}
}

func (o OptionsContract) String() string {
	cp := "P"
	if o.IsCall {
		cp = "C"
	}
	return fmt.Sprintf("OptionsContract(%s, strike=%s%s, exp=%s)", o.Id, o.StrikePrice, cp, o.ExpiryDate)
}
