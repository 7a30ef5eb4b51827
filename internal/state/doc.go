// Package state holds the most recent exchange rates for the UI and the HTTP
// host.
//
// # Update Semantics
//
// Rates are replaced wholesale and never partially:
//
//	store.Update(rates, nil)
//	→ snapshot.Rates = rates
//	→ snapshot.LastError = nil
//
//	store.Update(convert.RateSet{}, err)
//	→ snapshot.Rates unchanged
//	→ snapshot.LastError = err
//	→ snapshot.ConsecutiveFailures++
//
// A RateSet that fails validation is treated as a failed update.
//
// # Freshness
//
// Classify compares the quote timestamp to the current time. Rates that are
// StaleAfter (10 minutes) old or older are outdated; the UI uses this to
// flag the refresh action. The boundary is inclusive on the outdated side.
//
// # Concurrency
//
// Store uses a sync.RWMutex. The TUI reads snapshots on every tick while the
// refresh command and HTTP handlers write.
package state
