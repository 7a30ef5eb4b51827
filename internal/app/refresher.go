package app

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/five82/satsrate/internal/convert"
	"github.com/five82/satsrate/internal/logging"
	"github.com/five82/satsrate/internal/quote"
	"github.com/five82/satsrate/internal/state"
)

// ErrRefreshInFlight is returned when a refresh is requested while one is
// already running.
var ErrRefreshInFlight = errors.New("rate refresh already in flight")

// Refresher fetches rates into a store, one fetch at a time. Rates are only
// fetched on request; nothing polls.
type Refresher struct {
	fetcher  quote.RateFetcher
	store    *state.Store
	log      *logging.Entry
	inFlight atomic.Bool
}

func NewRefresher(fetcher quote.RateFetcher, store *state.Store, log *logging.Log) *Refresher {
	if log == nil {
		log = logging.Default()
	}
	return &Refresher{fetcher: fetcher, store: store, log: log.WithComponent("refresh")}
}

// Refresh fetches once and records the outcome. A throttled request leaves
// the store untouched.
func (r *Refresher) Refresh(ctx context.Context) (convert.RateSet, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return convert.RateSet{}, ErrRefreshInFlight
	}
	defer r.inFlight.Store(false)

	rates, err := r.fetcher.FetchRates(ctx)
	if errors.Is(err, quote.ErrThrottled) {
		r.log.Debug("refresh throttled")
		return convert.RateSet{}, err
	}
	r.store.Update(rates, err)
	if err != nil {
		r.log.WithError(err).Warn("rate refresh failed")
		return convert.RateSet{}, err
	}
	r.log.WithFields(logging.Fields{
		"jpy":        rates.JPY.String(),
		"usd":        rates.USD.String(),
		"eur":        rates.EUR.String(),
		"fetched_at": rates.FetchedAt,
	}).Info("rates refreshed")
	return rates, nil
}
