package quote

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/five82/satsrate/internal/convert"
)

// PriceResponse mirrors the simple/price payload for ids=bitcoin.
type PriceResponse struct {
	Bitcoin *BitcoinQuote `json:"bitcoin"`
}

// BitcoinQuote is the price of one bitcoin in each requested unit.
type BitcoinQuote struct {
	JPY           decimal.Decimal `json:"jpy"`
	USD           decimal.Decimal `json:"usd"`
	EUR           decimal.Decimal `json:"eur"`
	LastUpdatedAt int64           `json:"last_updated_at"`
}

// RateSet validates the payload and converts it. A RateSet is only returned
// when every rate is positive and the timestamp is present.
func (p PriceResponse) RateSet() (convert.RateSet, error) {
	if p.Bitcoin == nil {
		return convert.RateSet{}, fmt.Errorf("%w: missing bitcoin quote", ErrParse)
	}
	q := p.Bitcoin
	rates := convert.RateSet{JPY: q.JPY, USD: q.USD, EUR: q.EUR}
	if !rates.Valid() {
		return convert.RateSet{}, fmt.Errorf("%w: rates must be positive (jpy=%s usd=%s eur=%s)", ErrParse, q.JPY, q.USD, q.EUR)
	}
	if q.LastUpdatedAt <= 0 {
		return convert.RateSet{}, fmt.Errorf("%w: missing last_updated_at", ErrParse)
	}
	rates.FetchedAt = time.Unix(q.LastUpdatedAt, 0)
	return rates, nil
}
