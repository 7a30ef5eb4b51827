package offline

import (
	"context"
	"net/http"
)

// Entry is a stored response.
type Entry struct {
	URL    string      `json:"url"`
	Status int         `json:"status"`
	Header http.Header `json:"header,omitempty"`
	Body   []byte      `json:"body"`
}

// Storage holds named stores of entries keyed by request URL.
type Storage interface {
	// Open creates the named store if it does not exist.
	Open(ctx context.Context, name string) error
	Put(ctx context.Context, name string, entry Entry) error
	// Match reports false when the store or the URL is missing.
	Match(ctx context.Context, name, url string) (Entry, bool, error)
	// Keys lists every store name.
	Keys(ctx context.Context) ([]string, error)
	// Delete removes the named store and reports whether it existed.
	Delete(ctx context.Context, name string) (bool, error)
}
