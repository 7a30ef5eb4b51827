package convert

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Strip removes grouping separators and anything else that is not a digit
// or a decimal point.
func Strip(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Group inserts "," every three integer digits and leaves the fraction as
// typed. It strips the input first, so it is safe to apply repeatedly.
func Group(value string) string {
	stripped := Strip(value)
	parts := strings.Split(stripped, ".")
	parts[0] = groupInteger(parts[0])
	return strings.Join(parts, ".")
}

func groupInteger(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3)
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Format rounds d to at most places fraction digits, drops trailing zeros
// and groups the integer part.
func Format(d decimal.Decimal, places int32) string {
	return Group(d.Round(places).String())
}

// FormatFixed renders d with exactly places fraction digits.
func FormatFixed(d decimal.Decimal, places int32) string {
	return Group(d.StringFixed(places))
}

// Parse strips separators from display text and parses the remainder.
func Parse(value string) (decimal.Decimal, error) {
	stripped := Strip(value)
	if stripped == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidInput, value)
	}
	d, err := decimal.NewFromString(stripped)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidInput, value)
	}
	return d, nil
}

// TimestampLayout is how the quote time is shown.
const TimestampLayout = "2006/01/02 15:04"

// FormatTimestamp renders t in local time, or "" for the zero time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(TimestampLayout)
}
