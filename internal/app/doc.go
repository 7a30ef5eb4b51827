// Package app provides the orchestration layer for satsrate.
//
// # Overview
//
// This package wires together configuration, logging, the quote client, the
// rate store, the offline asset cache and the two front ends (the converter
// TUI and the HTTP host). It is the composition root where all dependencies
// are initialized and connected.
//
// # Entry Points
//
//   - Run: load config and prefs, then start the converter TUI (blocks)
//   - Serve: start the HTTP host with the rate API, offline cache and the
//     page message socket, install the configured asset version, and block
//     until the context is cancelled
//   - CheckUpdate / SkipWaiting: talk to a running host over its /sw socket
//
// # Data Flow
//
//	┌──────────────┐
//	│ Run()/Serve()│ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read TOML + SATSRATE_* env
//	       ├─────> logging.Configure()  Route logs to the log file
//	       ├─────> quote.NewClient()    Rate endpoint + refresh limiter
//	       ├─────> state.Store{}        Shared rate snapshot
//	       ├─────> NewRefresher()       One fetch at a time
//	       ├─────> ui.Run()             TUI (Run only)
//	       └─────> server.New()         HTTP host (Serve only)
//
// # Refreshing
//
// Rates are fetched on demand only: at startup and whenever the user asks.
// Refresher refuses a second fetch while one is in flight and leaves the
// store untouched when the client throttles a request, so the held rates
// and their timestamp stay as they were.
//
// # Shutdown
//
// Serve stops accepting requests when the context is cancelled, then waits
// for in-flight installs and update checks on the offline manager before
// returning.
package app
