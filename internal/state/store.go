package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/satsrate/internal/convert"
)

// StaleAfter is the age at which a RateSet is shown as outdated.
const StaleAfter = 10 * time.Minute

// Freshness classifies how old the held rates are.
type Freshness int

const (
	FreshnessUnknown Freshness = iota
	FreshnessRecent
	FreshnessOutdated
)

func (f Freshness) String() string {
	switch f {
	case FreshnessRecent:
		return "recent"
	case FreshnessOutdated:
		return "outdated"
	default:
		return "unknown"
	}
}

// Classify returns FreshnessOutdated once now is at least StaleAfter past
// fetchedAt. The boundary itself counts as outdated.
func Classify(fetchedAt, now time.Time) Freshness {
	if fetchedAt.IsZero() {
		return FreshnessUnknown
	}
	if now.Sub(fetchedAt) >= StaleAfter {
		return FreshnessOutdated
	}
	return FreshnessRecent
}

// Snapshot represents the latest rate data available to callers.
type Snapshot struct {
	Rates               convert.RateSet
	HasRates            bool
	LastAttempt         time.Time
	LastError           error
	ConsecutiveFailures int
}

// Freshness classifies the held rates at now.
func (s Snapshot) Freshness(now time.Time) Freshness {
	if !s.HasRates {
		return FreshnessUnknown
	}
	return Classify(s.Rates.FetchedAt, now)
}

// Store coordinates updates to the rate snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the whole RateSet on success. When err is non-nil, or the
// rates are invalid, the previous RateSet is kept and the error recorded.
func (s *Store) Update(rates convert.RateSet, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastAttempt = time.Now()
	if err == nil && !rates.Valid() {
		err = convert.ErrRatesUnset
	}
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Rates = rates
	s.snapshot.HasRates = true
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
