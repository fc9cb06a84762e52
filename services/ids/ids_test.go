package ids

import "testing"

func TestParseInstrumentId(t *testing.T) {
	id, err := ParseInstrumentId("AAPL.NASDAQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Symbol.String() != "AAPL" || id.Venue.String() != "NASDAQ" {
		t.Fatalf("got %s/%s", id.Symbol, id.Venue)
	}
}

func TestParseInstrumentIdSymbolWithDots(t *testing.T) {
	id, err := ParseInstrumentId("BTC.USD.PERP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Symbol.String() != "BTC.USD" || id.Venue.String() != "PERP" {
		t.Fatalf("got %s/%s", id.Symbol, id.Venue)
	}
}

func TestParseInstrumentIdMalformed(t *testing.T) {
	cases := []string{"NODOT", ".VENUE", "SYMBOL."}
	for _, c := range cases {
		if _, err := ParseInstrumentId(c); err == nil {
			t.Fatalf("expected error for %q", c)
		}
	}
}

func TestNominalTypingDoesNotCollide(t *testing.T) {
	// A ClientOrderId and a VenueOrderId built from the same string carry
	// identical underlying strings, yet as distinct types they stay
	// distinct when used as keys of one map.
	c := NewClientOrderId("X-1")
	v := NewVenueOrderId("X-1")
	if c.String() != v.String() {
		t.Fatal("expected identical underlying strings")
	}
	m := map[any]struct{}{c: {}, v: {}}
	if len(m) != 2 {
		t.Fatal("expected a ClientOrderId and a VenueOrderId with the same string to be distinct map keys")
	}
}

func TestAccountIdForVenue(t *testing.T) {
	venue := NewVenue("SIM")
	if got := AccountIdForVenue(venue).String(); got != "ACCOUNT-SIM" {
		t.Fatalf("got %s", got)
	}
}
