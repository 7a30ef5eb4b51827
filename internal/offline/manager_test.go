package offline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/satsrate/internal/logging"
)

type fakeFetcher struct {
	mu     sync.Mutex
	assets map[string]string
	gate   chan struct{}
	hits   []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{assets: map[string]string{
		"/index.html": "index v1",
		"/main.js":    "main v1",
		"/api/other":  "network",
	}}
}

func (f *fakeFetcher) Fetch(ctx context.Context, req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits = append(f.hits, req.URL.Path)
	body, ok := f.assets[req.URL.Path]
	if !ok {
		return &http.Response{StatusCode: http.StatusNotFound, Header: http.Header{}, Body: io.NopCloser(strings.NewReader(""))}, nil
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"text/plain"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

func (f *fakeFetcher) set(path, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if body == "" {
		delete(f.assets, path)
		return
	}
	f.assets[path] = body
}

func (f *fakeFetcher) hold() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f.gate
}

func newTestManager(t *testing.T, autoSkip bool) (*Manager, *fakeFetcher, *MemoryStorage) {
	t.Helper()
	fetcher := newFakeFetcher()
	storage := NewMemoryStorage()
	m, err := NewManager(Options{
		Storage:         storage,
		Fetcher:         fetcher,
		Assets:          []string{"./index.html", "./main.js"},
		Prefix:          "test-",
		AutoSkipWaiting: autoSkip,
		Log:             logging.Discard(),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return m, fetcher, storage
}

func storeNames(t *testing.T, s Storage) []string {
	t.Helper()
	names, err := s.Keys(context.Background())
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	return names
}

func get(m *Manager, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestInstall_ActivatesAndServesOffline(t *testing.T) {
	m, fetcher, storage := newTestManager(t, true)
	ctx := context.Background()

	if err := m.Install(ctx, "v1"); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if got := m.ActiveVersion(); got != "v1" {
		t.Fatalf("ActiveVersion = %q", got)
	}
	if names := storeNames(t, storage); len(names) != 1 || names[0] != "test-v1" {
		t.Fatalf("stores = %v", names)
	}

	fetcher.set("/index.html", "")
	for _, target := range []string{"/index.html?btc=1", "/"} {
		rec := get(m, target)
		if rec.Code != http.StatusOK || rec.Body.String() != "index v1" {
			t.Fatalf("GET %s = %d %q", target, rec.Code, rec.Body.String())
		}
	}
}

func TestServeHTTP_MissGoesToNetwork(t *testing.T) {
	m, _, _ := newTestManager(t, true)
	if err := m.Install(context.Background(), "v1"); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if rec := get(m, "/api/other"); rec.Code != http.StatusOK || rec.Body.String() != "network" {
		t.Fatalf("GET /api/other = %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(m, "/nothing"); rec.Code != http.StatusNotFound {
		t.Fatalf("GET /nothing = %d", rec.Code)
	}
}

func TestInstall_FailureKeepsActiveGeneration(t *testing.T) {
	m, fetcher, storage := newTestManager(t, true)
	ctx := context.Background()
	if err := m.Install(ctx, "v1"); err != nil {
		t.Fatalf("Install v1: %v", err)
	}

	fetcher.set("/main.js", "")
	err := m.Install(ctx, "v2")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Fatalf("Install v2 err = %v", err)
	}

	if got := m.ActiveVersion(); got != "v1" {
		t.Fatalf("ActiveVersion = %q, want v1", got)
	}
	if names := storeNames(t, storage); len(names) != 1 || names[0] != "test-v1" {
		t.Fatalf("stores = %v", names)
	}
	if rec := get(m, "/main.js"); rec.Body.String() != "main v1" {
		t.Fatalf("GET /main.js = %q", rec.Body.String())
	}
	for _, g := range m.Generations() {
		if g.Version == "v2" && g.Status != StatusRedundant {
			t.Fatalf("v2 status = %s", g.Status)
		}
	}
}

func TestInstall_WaitsUntilSkipWaiting(t *testing.T) {
	m, fetcher, storage := newTestManager(t, false)
	ctx := context.Background()

	if err := m.Install(ctx, "v1"); err != nil {
		t.Fatalf("Install v1: %v", err)
	}
	if err := m.Handle(ctx, Message{Kind: MsgSkipWaiting}, nil); err != nil {
		t.Fatalf("skipWaiting: %v", err)
	}

	fetcher.set("/index.html", "index v2")
	if err := m.Install(ctx, "v2"); err != nil {
		t.Fatalf("Install v2: %v", err)
	}
	if got := m.ActiveVersion(); got != "v1" {
		t.Fatalf("ActiveVersion = %q before skipWaiting", got)
	}
	if names := storeNames(t, storage); len(names) != 2 {
		t.Fatalf("stores during overlap = %v", names)
	}
	if rec := get(m, "/index.html"); rec.Body.String() != "index v1" {
		t.Fatalf("waiting generation served early: %q", rec.Body.String())
	}

	if err := m.Handle(ctx, Message{Kind: MsgSkipWaiting}, nil); err != nil {
		t.Fatalf("skipWaiting: %v", err)
	}
	if got := m.ActiveVersion(); got != "v2" {
		t.Fatalf("ActiveVersion = %q", got)
	}
	if names := storeNames(t, storage); len(names) != 1 || names[0] != "test-v2" {
		t.Fatalf("stores after activate = %v", names)
	}
	if rec := get(m, "/index.html"); rec.Body.String() != "index v2" {
		t.Fatalf("GET /index.html = %q", rec.Body.String())
	}
}

func TestSkipWaiting_NothingWaiting(t *testing.T) {
	m, _, _ := newTestManager(t, false)
	if err := m.Handle(context.Background(), Message{Kind: MsgSkipWaiting}, nil); err != nil {
		t.Fatalf("skipWaiting with nothing waiting: %v", err)
	}
}

func TestCheckUpdateStatus_IdleAnswersOnce(t *testing.T) {
	m, _, _ := newTestManager(t, true)
	reply := make(chan Reply, 2)
	if err := m.Handle(context.Background(), Message{Kind: MsgCheckUpdateStatus}, reply); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	select {
	case r := <-reply:
		if r.Type != TypeNoUpdateFound {
			t.Fatalf("reply = %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatalf("no reply")
	}
	select {
	case r := <-reply:
		t.Fatalf("unexpected second reply %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCheckUpdateStatus_WaitingGeneration(t *testing.T) {
	m, _, _ := newTestManager(t, false)
	if err := m.Install(context.Background(), "v1"); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if r := m.CheckUpdateStatus(context.Background()); r.Type != TypeNewVersionInstalled {
		t.Fatalf("reply = %+v", r)
	}
}

func TestCheckUpdateStatus_WaitsForInstall(t *testing.T) {
	tests := []struct {
		name       string
		autoSkip   bool
		wantActive string
	}{
		{name: "waiting", autoSkip: false, wantActive: ""},
		{name: "auto activated", autoSkip: true, wantActive: "v1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, fetcher, _ := newTestManager(t, tt.autoSkip)
			gate := fetcher.hold()
			ctx := context.Background()

			installed := make(chan error, 1)
			go func() { installed <- m.Install(ctx, "v1") }()

			deadline := time.Now().Add(time.Second)
			for {
				gens := m.Generations()
				if len(gens) == 1 && gens[0].Status == StatusInstalling {
					break
				}
				if time.Now().After(deadline) {
					t.Fatalf("install never started: %+v", gens)
				}
				time.Sleep(5 * time.Millisecond)
			}
			if !m.Installing() {
				t.Fatalf("Installing = false while install is gated")
			}

			reply := make(chan Reply, 1)
			if err := m.Handle(ctx, Message{Kind: MsgCheckUpdateStatus}, reply); err != nil {
				t.Fatalf("Handle: %v", err)
			}
			select {
			case r := <-reply:
				t.Fatalf("answered before install finished: %+v", r)
			case <-time.After(50 * time.Millisecond):
			}

			close(gate)
			if err := <-installed; err != nil {
				t.Fatalf("Install: %v", err)
			}
			select {
			case r := <-reply:
				if r.Type != TypeNewVersionInstalled {
					t.Fatalf("reply = %+v", r)
				}
			case <-time.After(time.Second):
				t.Fatalf("no reply after install")
			}
			if got := m.ActiveVersion(); got != tt.wantActive {
				t.Fatalf("active = %q, want %q", got, tt.wantActive)
			}
		})
	}
}

func TestCheckUpdateStatus_FailedInstallIsNoUpdate(t *testing.T) {
	m, fetcher, _ := newTestManager(t, true)
	fetcher.set("/main.js", "")
	gate := fetcher.hold()
	ctx := context.Background()

	installed := make(chan error, 1)
	go func() { installed <- m.Install(ctx, "v1") }()

	deadline := time.Now().Add(time.Second)
	for len(m.Generations()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("install never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	reply := make(chan Reply, 1)
	if err := m.Handle(ctx, Message{Kind: MsgCheckUpdateStatus}, reply); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	close(gate)
	if err := <-installed; err == nil {
		t.Fatalf("expected install error")
	}
	select {
	case r := <-reply:
		if r.Type != TypeNoUpdateFound {
			t.Fatalf("reply = %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatalf("no reply after failed install")
	}
}

func TestGetVersion(t *testing.T) {
	m, _, _ := newTestManager(t, true)
	ctx := context.Background()
	reply := make(chan Reply, 1)

	_ = m.Handle(ctx, Message{Kind: MsgGetVersion}, reply)
	if r := <-reply; r.Version == nil || *r.Version != "" {
		t.Fatalf("version before install = %+v", r)
	}

	if err := m.Install(ctx, "v1.36.2"); err != nil {
		t.Fatalf("Install: %v", err)
	}
	_ = m.Handle(ctx, Message{Kind: MsgGetVersion}, reply)
	if r := <-reply; r.Version == nil || *r.Version != "v1.36.2" {
		t.Fatalf("version = %+v", r)
	}
}

func TestInstall_NotifiesControlledClients(t *testing.T) {
	m, _, _ := newTestManager(t, false)
	ctx := context.Background()

	page := m.Attach()
	defer m.Detach(page)
	if err := m.Install(ctx, "v1"); err != nil {
		t.Fatalf("Install v1: %v", err)
	}
	if err := m.Activate(ctx); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if got := page.Controller(); got != "v1" {
		t.Fatalf("claimed controller = %q", got)
	}
	select {
	case r := <-page.Notices():
		t.Fatalf("first install notified an uncontrolled page: %+v", r)
	default:
	}

	if err := m.Install(ctx, "v2"); err != nil {
		t.Fatalf("Install v2: %v", err)
	}
	select {
	case r := <-page.Notices():
		if r.Type != TypeNewVersionInstalled {
			t.Fatalf("notice = %+v", r)
		}
	default:
		t.Fatalf("no notice for v2")
	}
}

func TestClose_WaitsForInstall(t *testing.T) {
	m, fetcher, _ := newTestManager(t, true)
	gate := fetcher.hold()

	installed := make(chan error, 1)
	go func() { installed <- m.Install(context.Background(), "v1") }()
	for len(m.Generations()) == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	closed := make(chan error, 1)
	go func() { closed <- m.Close(context.Background()) }()
	select {
	case <-closed:
		t.Fatalf("Close returned while install in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	if err := <-installed; err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := <-closed; err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Install(context.Background(), "v2"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Install after Close err = %v", err)
	}
}
