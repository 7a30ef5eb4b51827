// Package convert implements the five-unit conversion engine and the number
// formatting it relies on.
//
// Every recomputation pivots through bitcoin: the field the user edited is
// parsed, converted to a BTC amount, and the four remaining fields are
// derived from that amount. Deriving everything from one pivot keeps the
// five values consistent with each other under a single RateSet.
//
// Precision per field:
//
//	btc   8 digits (fixed when derived)
//	sats  8 digits
//	jpy   3 digits
//	usd   5 digits
//	eur   5 digits
//
// Arithmetic uses github.com/shopspring/decimal so that display rounding is
// the only place precision is lost.
package convert
