package convert

import (
	"fmt"
	"strings"
)

// Field identifies one of the five amount inputs.
type Field int

const (
	FieldNone Field = iota
	BTC
	Sats
	JPY
	USD
	EUR
)

// Fields lists the amount inputs in display order.
var Fields = [...]Field{BTC, Sats, JPY, USD, EUR}

var fieldInfo = map[Field]struct {
	key       string
	label     string
	symbol    string
	precision int32
}{
	BTC:  {"btc", "BTC", "₿", 8},
	Sats: {"sats", "sats", "₿", 8},
	JPY:  {"jpy", "JPY", "¥", 3},
	USD:  {"usd", "USD", "$", 5},
	EUR:  {"eur", "EUR", "€", 5},
}

// ParseField maps a query/config key such as "sats" to its Field.
func ParseField(key string) (Field, error) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	for _, f := range Fields {
		if fieldInfo[f].key == normalized {
			return f, nil
		}
	}
	return FieldNone, fmt.Errorf("%w: %q", ErrUnknownField, key)
}

// Valid reports whether f is one of the five amount inputs.
func (f Field) Valid() bool {
	_, ok := fieldInfo[f]
	return ok
}

// String returns the query parameter name of the field.
func (f Field) String() string {
	if info, ok := fieldInfo[f]; ok {
		return info.key
	}
	if f == FieldNone {
		return "none"
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Label is the unit suffix used in share text ("BTC", "sats", ...).
func (f Field) Label() string {
	return fieldInfo[f].label
}

// Symbol is the currency sign shown before an amount.
func (f Field) Symbol() string {
	return fieldInfo[f].symbol
}

// Precision is the maximum number of fraction digits rendered for the field.
// These follow typical quote granularity, not currency subunits.
func (f Field) Precision() int32 {
	return fieldInfo[f].precision
}
