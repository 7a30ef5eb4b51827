package offline

import (
	"context"
	"net/http"
	"os"
	"reflect"
	"testing"
)

// exerciseStorage runs the behaviour every Storage must share.
func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	if err := s.Open(ctx, "a"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	entry := Entry{URL: "/index.html", Status: 200, Header: http.Header{"Content-Type": {"text/html"}}, Body: []byte("<html>")}
	if err := s.Put(ctx, "b", entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"a", "b"}) {
		t.Fatalf("Keys = %v", keys)
	}

	got, ok, err := s.Match(ctx, "b", "/index.html")
	if err != nil || !ok {
		t.Fatalf("Match: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, entry) {
		t.Fatalf("Match = %+v, want %+v", got, entry)
	}
	if _, ok, _ := s.Match(ctx, "a", "/index.html"); ok {
		t.Fatalf("entry leaked into store a")
	}

	existed, err := s.Delete(ctx, "b")
	if err != nil || !existed {
		t.Fatalf("Delete b: existed=%v err=%v", existed, err)
	}
	if _, ok, _ := s.Match(ctx, "b", "/index.html"); ok {
		t.Fatalf("entry survived Delete")
	}
	if existed, _ := s.Delete(ctx, "missing"); existed {
		t.Fatalf("Delete of missing store reported true")
	}
	keys, _ = s.Keys(ctx)
	if !reflect.DeepEqual(keys, []string{"a"}) {
		t.Fatalf("Keys after delete = %v", keys)
	}
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestRedisStorage(t *testing.T) {
	addr := os.Getenv("SATSRATE_TEST_REDIS_URL")
	if addr == "" {
		addr = "redis://localhost:6379/15"
	}
	ctx := context.Background()
	s, err := NewRedisStorage(ctx, addr, "satsrate-test-"+t.Name())
	if err != nil {
		t.Skipf("Skipping test - Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	for _, name := range []string{"a", "b"} {
		_, _ = s.Delete(ctx, name)
	}
	t.Cleanup(func() {
		for _, name := range []string{"a", "b"} {
			_, _ = s.Delete(ctx, name)
		}
	})
	exerciseStorage(t, s)
}
