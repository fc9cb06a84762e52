// Package value implements the exact-decimal value types (Currency,
// Price, Quantity, Money and AccountBalance) that carry every piece of
// monetary state in the kernel. All arithmetic here uses
// github.com/shopspring/decimal; no float64 ever touches a value that
// feeds back into the simulation.
package value

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mrhb33/nautilus-backtest-go/services/enums"
)

// Currency is immutable and compares by code alone.
type Currency struct {
	Code      string
	Precision int32
	Kind      enums.CurrencyKind
}

func NewCurrency(code string, precision int32, kind enums.CurrencyKind) Currency {
	return Currency{Code: code, Precision: precision, Kind: kind}
}

func (c Currency) Equal(other Currency) bool { return c.Code == other.Code }

func (c Currency) String() string { return c.Code }

var (
	USD = NewCurrency("USD", 2, enums.CurrencyKindFiat)
	USDT = NewCurrency("USDT", 2, enums.CurrencyKindCrypto)
	BTC = NewCurrency("BTC", 8, enums.CurrencyKindCrypto)
)

// Price is a fixed-precision exact decimal, quantized half-up at
// construction. Unlike Quantity it may be negative is disallowed by callers
// that enforce market semantics, but the type itself does not reject
// negative values (some derived quantities, e.g. PnL deltas, are
// represented with Money instead).
type Price struct {
	dec       decimal.Decimal
	precision int32
}

func NewPrice(v decimal.Decimal, precision int32) Price {
	return Price{dec: v.Round(precision), precision: precision}
}

func NewPriceFromFloat(v float64, precision int32) Price {
	return NewPrice(decimal.NewFromFloat(v), precision)
}

func (p Price) Decimal() decimal.Decimal { return p.dec }
func (p Price) Precision() int32         { return p.precision }
func (p Price) String() string           { return p.dec.StringFixed(p.precision) }
func (p Price) IsZero() bool             { return p.dec.IsZero() }
func (p Price) IsPositive() bool         { return p.dec.IsPositive() }

func (p Price) Add(other Price) Price {
	return NewPrice(p.dec.Add(other.dec), p.precision)
}

func (p Price) Sub(other Price) Price {
	return NewPrice(p.dec.Sub(other.dec), p.precision)
}

func (p Price) Cmp(other Price) int { return p.dec.Cmp(other.dec) }

// Quantity is the same representation as Price but must be non-negative.
type Quantity struct {
	dec       decimal.Decimal
	precision int32
}

// NewQuantity panics on a negative value: quantities are a structural
// invariant, not a user input to validate softly.
func NewQuantity(v decimal.Decimal, precision int32) Quantity {
	if v.IsNegative() {
		panic(fmt.Sprintf("value: negative quantity %s", v.String()))
	}
	return Quantity{dec: v.Round(precision), precision: precision}
}

func NewQuantityFromFloat(v float64, precision int32) Quantity {
	return NewQuantity(decimal.NewFromFloat(v), precision)
}

func ZeroQuantity(precision int32) Quantity {
	return Quantity{dec: decimal.Zero, precision: precision}
}

func (q Quantity) Decimal() decimal.Decimal { return q.dec }
func (q Quantity) Precision() int32         { return q.precision }
func (q Quantity) String() string           { return q.dec.StringFixed(q.precision) }
func (q Quantity) IsZero() bool             { return q.dec.IsZero() }

func (q Quantity) Add(other Quantity) Quantity {
	return NewQuantity(q.dec.Add(other.dec), q.precision)
}

// Sub subtracts without panicking on a negative result, for cases where the
// caller (e.g. leaves_qty) legitimately needs signed arithmetic before a
// non-negativity assertion. Pass the result to NewQuantity, which panics on
// a negative value, when it must be a valid Quantity.
func (q Quantity) Sub(other Quantity) decimal.Decimal {
	return q.dec.Sub(other.dec)
}

func (q Quantity) Cmp(other Quantity) int { return q.dec.Cmp(other.dec) }

// Money is an amount denominated in a specific currency. Arithmetic between
// Money values of different currencies fails loudly: the kernel never
// performs implicit cross-currency conversion.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: amount.Round(currency.Precision), Currency: currency}
}

func NewMoneyFromFloat(amount float64, currency Currency) Money {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

func ZeroMoney(currency Currency) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

func (m Money) String() string {
	return m.Amount.StringFixed(m.Currency.Precision) + " " + m.Currency.Code
}

// Add returns an error when the currencies differ rather than silently
// coercing - a currency mismatch here is an InvariantViolation upstream.
func (m Money) Add(other Money) (Money, error) {
	if !m.Currency.Equal(other.Currency) {
		return Money{}, fmt.Errorf("value: currency mismatch %s vs %s", m.Currency.Code, other.Currency.Code)
	}
	return NewMoney(m.Amount.Add(other.Amount), m.Currency), nil
}

func (m Money) Sub(other Money) (Money, error) {
	if !m.Currency.Equal(other.Currency) {
		return Money{}, fmt.Errorf("value: currency mismatch %s vs %s", m.Currency.Code, other.Currency.Code)
	}
	return NewMoney(m.Amount.Sub(other.Amount), m.Currency), nil
}

// AccountBalance holds the tripartite total/locked/free view of a single
// currency's balance. The invariant free = total - locked is enforced by
// the constructor and by WithTotal, never by a caller-supplied free value.
type AccountBalance struct {
	Total    Money
	Locked   Money
	Free     Money
	Currency Currency
}

func NewAccountBalance(total, locked Money) (AccountBalance, error) {
	if !total.Currency.Equal(locked.Currency) {
		return AccountBalance{}, fmt.Errorf("value: balance currency mismatch %s vs %s", total.Currency.Code, locked.Currency.Code)
	}
	free, err := total.Sub(locked)
	if err != nil {
		return AccountBalance{}, err
	}
	return AccountBalance{Total: total, Locked: locked, Free: free, Currency: total.Currency}, nil
}

// WithTotal recomputes Free after a change to Total, preserving Locked.
func (b AccountBalance) WithTotal(total Money) (AccountBalance, error) {
	return NewAccountBalance(total, b.Locked)
}
