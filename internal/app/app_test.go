package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/five82/satsrate/internal/logging"
	"github.com/five82/satsrate/internal/offline"
	"github.com/five82/satsrate/internal/server"
	"github.com/five82/satsrate/internal/state"
)

type staticFetcher struct{}

func (staticFetcher) Fetch(_ context.Context, req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       io.NopCloser(strings.NewReader("<html>" + req.URL.Path + "</html>")),
		Request:    req,
	}, nil
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"127.0.0.1:8080", "ws://127.0.0.1:8080/sw"},
		{"http://localhost:8080/", "ws://localhost:8080/sw"},
		{"https://rates.example.com/base", "wss://rates.example.com/base/sw"},
	}
	for _, tt := range tests {
		got, err := socketURL(tt.in)
		if err != nil {
			t.Fatalf("socketURL(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("socketURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := socketURL("ftp://example.com"); err == nil {
		t.Fatalf("expected error for ftp scheme")
	}
}

func TestCheckUpdateAndSkipWaiting(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log := logging.Discard()
	mgr, err := offline.NewManager(offline.Options{
		Storage: offline.NewMemoryStorage(),
		Fetcher: staticFetcher{},
		Assets:  []string{"index.html"},
		Log:     log,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := mgr.Install(ctx, "v1"); err != nil {
		t.Fatalf("Install: %v", err)
	}

	store := &state.Store{}
	srv := httptest.NewServer(server.New(server.Options{
		Store:     store,
		Refresher: NewRefresher(&stubFetcher{rates: sampleRates()}, store, log),
		Offline:   mgr,
		Log:       log,
	}))
	defer srv.Close()

	opts := Options{Host: srv.URL}
	status, err := CheckUpdate(ctx, opts)
	if err != nil {
		t.Fatalf("CheckUpdate: %v", err)
	}
	if status != offline.TypeNewVersionInstalled {
		t.Fatalf("status = %q, want %q", status, offline.TypeNewVersionInstalled)
	}

	version, err := SkipWaiting(ctx, opts)
	if err != nil {
		t.Fatalf("SkipWaiting: %v", err)
	}
	if version != "v1" {
		t.Fatalf("active version = %q, want v1", version)
	}
	if got := mgr.ActiveVersion(); got != "v1" {
		t.Fatalf("manager active = %q, want v1", got)
	}

	status, err = CheckUpdate(ctx, opts)
	if err != nil {
		t.Fatalf("CheckUpdate after activation: %v", err)
	}
	if status != offline.TypeNoUpdateFound {
		t.Fatalf("status = %q, want %q", status, offline.TypeNoUpdateFound)
	}
}
