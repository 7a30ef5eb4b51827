package convert

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testRates() RateSet {
	return RateSet{
		JPY:       decimal.NewFromInt(15_000_000),
		USD:       decimal.NewFromInt(100_000),
		EUR:       decimal.NewFromInt(92_000),
		FetchedAt: time.Unix(1_700_000_000, 0),
	}
}

func TestRecompute_FromOneBTC(t *testing.T) {
	res, err := Recompute(BTC, AmountSet{BTC: "1"}, testRates())
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	want := AmountSet{BTC: "1", Sats: "100,000,000", JPY: "15,000,000", USD: "100,000", EUR: "92,000"}
	if res.Amounts != want {
		t.Fatalf("Amounts = %#v, want %#v", res.Amounts, want)
	}
	if res.Active != BTC {
		t.Fatalf("Active = %s, want btc", res.Active)
	}
}

func TestRecompute_FromHalfBitcoinOfSats(t *testing.T) {
	res, err := Recompute(Sats, AmountSet{Sats: "50,000,000"}, testRates())
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	want := AmountSet{BTC: "0.50000000", Sats: "50,000,000", JPY: "7,500,000", USD: "50,000", EUR: "46,000"}
	if res.Amounts != want {
		t.Fatalf("Amounts = %#v, want %#v", res.Amounts, want)
	}
}

func TestRecompute_RegroupsActiveField(t *testing.T) {
	res, err := Recompute(JPY, AmountSet{JPY: "1500000"}, testRates())
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	if res.Amounts.JPY != "1,500,000" {
		t.Fatalf("JPY = %q, want 1,500,000", res.Amounts.JPY)
	}
	if res.Amounts.BTC != "0.10000000" || res.Amounts.Sats != "10,000,000" {
		t.Fatalf("btc/sats = %q/%q, want 0.10000000/10,000,000", res.Amounts.BTC, res.Amounts.Sats)
	}
}

func TestRecompute_PivotsAgreeAcrossFields(t *testing.T) {
	rates := testRates()
	base, err := Recompute(BTC, AmountSet{BTC: "0.12345678"}, rates)
	if err != nil {
		t.Fatalf("Recompute(btc) returned error: %v", err)
	}

	for _, f := range Fields {
		t.Run(f.String(), func(t *testing.T) {
			var raw AmountSet
			raw.Set(f, base.Amounts.Get(f))
			got, err := Recompute(f, raw, rates)
			if err != nil {
				t.Fatalf("Recompute(%s) returned error: %v", f, err)
			}
			for _, other := range Fields {
				want := mustParse(t, base.Amounts.Get(other))
				have := mustParse(t, got.Amounts.Get(other))
				if !want.Equal(have) {
					t.Fatalf("from %s: %s = %s, want %s", f, other, have, want)
				}
			}
		})
	}
}

func TestRecompute_BlankInputZeroesOtherFields(t *testing.T) {
	res, err := Recompute(USD, AmountSet{USD: "", BTC: "1"}, testRates())
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	if res.Amounts.BTC != "0.00000000" || res.Amounts.Sats != "0" || res.Amounts.USD != "" {
		t.Fatalf("Amounts = %#v, want zeroed fields and blank usd", res.Amounts)
	}
}

func TestRecompute_Errors(t *testing.T) {
	cases := []struct {
		name   string
		active Field
		raw    AmountSet
		rates  RateSet
		want   error
	}{
		{"unknown field", Field(42), AmountSet{}, testRates(), ErrUnknownField},
		{"no field", FieldNone, AmountSet{}, testRates(), ErrUnknownField},
		{"rates unset", BTC, AmountSet{BTC: "1"}, RateSet{}, ErrRatesUnset},
		{"partial rates", BTC, AmountSet{BTC: "1"}, RateSet{JPY: decimal.NewFromInt(1)}, ErrRatesUnset},
		{"not a number", Sats, AmountSet{Sats: "abc"}, testRates(), ErrInvalidInput},
		{"two points", EUR, AmountSet{EUR: "1.2.3"}, testRates(), ErrInvalidInput},
		{"lone point", JPY, AmountSet{JPY: "."}, testRates(), ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Recompute(tc.active, tc.raw, tc.rates)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Recompute error = %v, want %v", err, tc.want)
			}
			if res.Amounts != (AmountSet{}) || res.Active != FieldNone {
				t.Fatalf("Recompute returned partial result %#v", res)
			}
		})
	}
}

func TestParseField(t *testing.T) {
	for _, f := range Fields {
		got, err := ParseField(" " + f.String() + " ")
		if err != nil || got != f {
			t.Fatalf("ParseField(%q) = %v, %v; want %v", f.String(), got, err, f)
		}
	}
	if _, err := ParseField("doge"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("ParseField(doge) error = %v, want ErrUnknownField", err)
	}
	if FieldNone.Valid() {
		t.Fatalf("FieldNone.Valid() = true")
	}
}

func mustParse(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return d
}
