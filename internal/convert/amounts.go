package convert

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSet holds the price of one bitcoin in each fiat unit and the quote's
// own timestamp. The zero value is an unset RateSet.
type RateSet struct {
	JPY       decimal.Decimal
	USD       decimal.Decimal
	EUR       decimal.Decimal
	FetchedAt time.Time
}

// Valid reports whether all three rates are positive.
func (r RateSet) Valid() bool {
	return r.JPY.IsPositive() && r.USD.IsPositive() && r.EUR.IsPositive()
}

// Rate returns the bitcoin price in the given fiat field.
func (r RateSet) Rate(f Field) (decimal.Decimal, bool) {
	switch f {
	case JPY:
		return r.JPY, true
	case USD:
		return r.USD, true
	case EUR:
		return r.EUR, true
	default:
		return decimal.Zero, false
	}
}

// AmountSet carries the display text of all five fields.
type AmountSet struct {
	BTC  string
	Sats string
	JPY  string
	USD  string
	EUR  string
}

// Get returns the text for f, or "" for an invalid field.
func (a AmountSet) Get(f Field) string {
	switch f {
	case BTC:
		return a.BTC
	case Sats:
		return a.Sats
	case JPY:
		return a.JPY
	case USD:
		return a.USD
	case EUR:
		return a.EUR
	default:
		return ""
	}
}

// Set stores value for f. Invalid fields are ignored.
func (a *AmountSet) Set(f Field, value string) {
	switch f {
	case BTC:
		a.BTC = value
	case Sats:
		a.Sats = value
	case JPY:
		a.JPY = value
	case USD:
		a.USD = value
	case EUR:
		a.EUR = value
	}
}
