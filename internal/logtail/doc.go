// Package logtail reads the tail of the satsrate log file and turns its JSON
// records into one-line summaries for the TUI log overlay.
//
// Read uses a ring buffer of maxLines entries, so memory stays bounded no
// matter how large the file has grown. Parse never fails: lines that are not
// JSON are shown as they are.
package logtail
