// Package server hosts the converter over HTTP: a small JSON API backed by
// the rate store and conversion engine, the offline manager's message socket,
// and fetch interception for every other path.
package server
