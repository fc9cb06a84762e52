// Package ids defines the nominal identifier types used across the kernel.
//
// Every identifier wraps a non-empty string but carries a distinct Go type
// per kind, so two identifiers built from the same string but different
// kinds are never equal and never collide in a map.
package ids

import (
	"fmt"
	"strings"
)

// Venue identifies a simulated trading venue, e.g. "SIM" or "BINANCE".
type Venue struct{ value string }

func NewVenue(value string) Venue { return Venue{value: value} }
func (v Venue) String() string    { return v.value }
func (v Venue) IsEmpty() bool     { return v.value == "" }

// Symbol identifies a tradable symbol local to a venue, e.g. "AAPL".
type Symbol struct{ value string }

func NewSymbol(value string) Symbol { return Symbol{value: value} }
func (s Symbol) String() string     { return s.value }

// InstrumentId is the composite symbol.venue, where venue is the substring
// after the final '.'.
type InstrumentId struct {
	Symbol Symbol
	Venue  Venue
}

func NewInstrumentId(symbol Symbol, venue Venue) InstrumentId {
	return InstrumentId{Symbol: symbol, Venue: venue}
}

// ParseInstrumentId splits on the rightmost '.', so symbols containing dots
// (e.g. "BTC.USD.PERP") are still parsed correctly: everything left of the
// last dot is the symbol, everything right of it is the venue.
func ParseInstrumentId(s string) (InstrumentId, error) {
	idx := strings.LastIndex(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return InstrumentId{}, fmt.Errorf("ids: malformed instrument id %q, want SYMBOL.VENUE", s)
	}
	return InstrumentId{
		Symbol: NewSymbol(s[:idx]),
		Venue:  NewVenue(s[idx+1:]),
	}, nil
}

func (id InstrumentId) String() string {
	return id.Symbol.value + "." + id.Venue.value
}

func (id InstrumentId) IsEmpty() bool {
	return id.Symbol.value == "" && id.Venue.value == ""
}

// The remaining identifier kinds are simple opaque string wrappers. Each
// gets its own type so the compiler rejects mixing a ClientOrderId where a
// VenueOrderId is expected, and so map keys never collide across kinds.

type ClientOrderId struct{ value string }

func NewClientOrderId(value string) ClientOrderId { return ClientOrderId{value: value} }
func (c ClientOrderId) String() string            { return c.value }
func (c ClientOrderId) IsEmpty() bool             { return c.value == "" }

type VenueOrderId struct{ value string }

func NewVenueOrderId(value string) VenueOrderId { return VenueOrderId{value: value} }
func (v VenueOrderId) String() string           { return v.value }
func (v VenueOrderId) IsEmpty() bool            { return v.value == "" }

type OrderListId struct{ value string }

func NewOrderListId(value string) OrderListId { return OrderListId{value: value} }
func (o OrderListId) String() string          { return o.value }

type PositionId struct{ value string }

func NewPositionId(value string) PositionId { return PositionId{value: value} }
func (p PositionId) String() string         { return p.value }
func (p PositionId) IsEmpty() bool          { return p.value == "" }

type TradeId struct{ value string }

func NewTradeId(value string) TradeId { return TradeId{value: value} }
func (t TradeId) String() string      { return t.value }

type StrategyId struct{ value string }

func NewStrategyId(value string) StrategyId { return StrategyId{value: value} }
func (s StrategyId) String() string         { return s.value }
func (s StrategyId) IsEmpty() bool          { return s.value == "" }

type TraderId struct{ value string }

func NewTraderId(value string) TraderId { return TraderId{value: value} }
func (t TraderId) String() string       { return t.value }

type AccountId struct{ value string }

func NewAccountId(value string) AccountId { return AccountId{value: value} }
func (a AccountId) String() string        { return a.value }

// AccountIdForVenue follows the convention ACCOUNT-{venue} used throughout
// the kernel whenever a venue needs a synthetic single account.
func AccountIdForVenue(venue Venue) AccountId {
	return AccountId{value: "ACCOUNT-" + venue.value}
}
