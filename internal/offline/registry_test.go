package offline

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestRegistry_Lifecycle(t *testing.T) {
	var r Registry
	now := time.Now()

	if err := r.Begin("v1", now); err != nil {
		t.Fatalf("Begin v1: %v", err)
	}
	if !r.Installing() {
		t.Fatalf("expected v1 installing")
	}
	if err := r.Begin("v1", now); !errors.Is(err, ErrGenerationExists) {
		t.Fatalf("second Begin err = %v", err)
	}
	if _, err := r.MarkInstalled("v1", now); err != nil {
		t.Fatalf("MarkInstalled: %v", err)
	}
	if g, ok := r.Waiting(); !ok || g.Version != "v1" {
		t.Fatalf("Waiting = %+v, %v", g, ok)
	}
	if _, err := r.Promote("v1", now); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if g, ok := r.Active(); !ok || g.Version != "v1" {
		t.Fatalf("Active = %+v, %v", g, ok)
	}

	_ = r.Begin("v2", now)
	_, _ = r.MarkInstalled("v2", now)
	_ = r.Begin("v3", now)
	removed, err := r.Promote("v2", now)
	if err != nil {
		t.Fatalf("Promote v2: %v", err)
	}
	if !reflect.DeepEqual(removed, []string{"v1"}) {
		t.Fatalf("removed = %v", removed)
	}
	if got := r.Live(); !reflect.DeepEqual(got, []string{"v2", "v3"}) {
		t.Fatalf("Live = %v", got)
	}
}

func TestRegistry_NewInstallSupersedesWaiting(t *testing.T) {
	var r Registry
	now := time.Now()
	_ = r.Begin("v1", now)
	_, _ = r.MarkInstalled("v1", now)
	_ = r.Begin("v2", now)
	superseded, err := r.MarkInstalled("v2", now)
	if err != nil {
		t.Fatalf("MarkInstalled v2: %v", err)
	}
	if !reflect.DeepEqual(superseded, []string{"v1"}) {
		t.Fatalf("superseded = %v", superseded)
	}
	if g, _ := r.Get("v1"); g.Status != StatusRedundant {
		t.Fatalf("v1 status = %s", g.Status)
	}
}

func TestRegistry_FailedVersionCanRetry(t *testing.T) {
	var r Registry
	now := time.Now()
	_ = r.Begin("v1", now)
	r.MarkFailed("v1", now)
	if err := r.Begin("v1", now); err != nil {
		t.Fatalf("retry Begin: %v", err)
	}
	if _, err := r.Promote("v1", now); !errors.Is(err, ErrUnknownGeneration) {
		t.Fatalf("Promote of installing generation err = %v", err)
	}
}
