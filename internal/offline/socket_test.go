package offline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSocket_RoundTrip(t *testing.T) {
	m, _, _ := newTestManager(t, false)
	srv := httptest.NewServer(http.HandlerFunc(m.ServeSocket))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	port, err := Dial(ctx, strings.Replace(srv.URL, "http://", "ws://", 1))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer port.Close()

	if v, err := port.Version(ctx); err != nil || v != "" {
		t.Fatalf("Version = %q, %v", v, err)
	}
	if got, err := port.CheckUpdate(ctx); err != nil || got != TypeNoUpdateFound {
		t.Fatalf("CheckUpdate = %q, %v", got, err)
	}

	if err := m.Install(ctx, "v1"); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if got, err := port.CheckUpdate(ctx); err != nil || got != TypeNewVersionInstalled {
		t.Fatalf("CheckUpdate = %q, %v", got, err)
	}
	if err := port.SkipWaiting(); err != nil {
		t.Fatalf("SkipWaiting: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for m.ActiveVersion() != "v1" {
		if time.Now().After(deadline) {
			t.Fatalf("skipWaiting over the socket did not activate v1")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if v, err := port.Version(ctx); err != nil || v != "v1" {
		t.Fatalf("Version = %q, %v", v, err)
	}
}
