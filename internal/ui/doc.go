// Package ui provides the Bubble Tea converter for satsrate.
//
// The screen shows the current rates with their age, five amount fields
// (BTC, sats, JPY, USD, EUR) and a command bar. Typing digits, '.' or ','
// into any field makes it the active field and recomputes the other four
// through the bitcoin pivot. Every other key is a command:
//
//	tab/j, shift+tab/k   move between fields
//	x                    clear the focused field
//	r                    refresh rates
//	c                    copy the five amounts with a share link
//	s                    show share links
//	L                    show the log tail
//	T                    cycle theme
//	h/?                  help
//	q, ctrl+c            quit
//
// A failed refresh is reported once in an alert; the previous rates stay in
// use until a refresh succeeds.
package ui
