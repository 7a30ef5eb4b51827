package convert

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// pivotPlaces is the precision of the bitcoin pivot when it is derived.
const pivotPlaces = 8

var satsPerBTC = decimal.New(1, 8)

// Result is the outcome of a successful recomputation.
type Result struct {
	Active  Field
	Amounts AmountSet
	// Pivot is the bitcoin amount every other field was derived from.
	Pivot decimal.Decimal
}

// Recompute treats the active field of raw as ground truth and derives the
// other four fields through the bitcoin pivot. On error nothing is derived
// and callers keep their previous amounts.
func Recompute(active Field, raw AmountSet, rates RateSet) (Result, error) {
	if !active.Valid() {
		return Result{}, fmt.Errorf("recompute: %w: %s", ErrUnknownField, active)
	}
	if !rates.Valid() {
		return Result{}, fmt.Errorf("recompute: %w", ErrRatesUnset)
	}

	input, err := parseActive(raw.Get(active))
	if err != nil {
		return Result{}, fmt.Errorf("recompute %s: %w", active, err)
	}

	pivot, err := toBTC(active, input, rates)
	if err != nil {
		return Result{}, err
	}

	var out AmountSet
	for _, f := range Fields {
		if f == active {
			out.Set(f, Group(raw.Get(active)))
			continue
		}
		out.Set(f, render(f, pivot, rates))
	}
	return Result{Active: active, Amounts: out, Pivot: pivot}, nil
}

// parseActive treats blank input as zero so clearing a field zeroes the rest.
func parseActive(value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	return Parse(value)
}

func toBTC(active Field, input decimal.Decimal, rates RateSet) (decimal.Decimal, error) {
	switch active {
	case BTC:
		return input, nil
	case Sats:
		return input.Div(satsPerBTC).Round(pivotPlaces), nil
	case JPY, USD, EUR:
		rate, _ := rates.Rate(active)
		return input.Div(rate).Round(pivotPlaces), nil
	default:
		return decimal.Zero, fmt.Errorf("recompute: %w: %s", ErrUnknownField, active)
	}
}

func render(f Field, btc decimal.Decimal, rates RateSet) string {
	switch f {
	case BTC:
		return FormatFixed(btc, pivotPlaces)
	case Sats:
		return Format(btc.Mul(satsPerBTC), f.Precision())
	default:
		rate, _ := rates.Rate(f)
		return Format(btc.Mul(rate), f.Precision())
	}
}
