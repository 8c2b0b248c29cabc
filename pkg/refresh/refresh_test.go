package refresh

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestStart_RunsImmediately(t *testing.T) {
	var calls atomic.Int32
	r := New("test", time.Minute, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer r.Stop()

	if got := calls.Load(); got != 1 {
		t.Errorf("initial calls = %d, want 1", got)
	}
}

func TestStart_InitialErrorSurfaces(t *testing.T) {
	r := New("test", time.Minute, func(ctx context.Context) error {
		return errors.New("db down")
	})
	if err := r.Start(); err == nil {
		t.Fatal("expected error from failing initial refresh")
	}
}

func TestRefresher_TicksOnSchedule(t *testing.T) {
	var calls atomic.Int32
	r := New("test", time.Second, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer r.Stop()

	deadline := time.After(3 * time.Second)
	for calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("no scheduled tick observed, calls = %d", calls.Load())
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestStop_HaltsSchedule(t *testing.T) {
	var calls atomic.Int32
	r := New("test", time.Second, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r.Stop()

	before := calls.Load()
	time.Sleep(1500 * time.Millisecond)
	if after := calls.Load(); after != before {
		t.Errorf("calls advanced after Stop: %d -> %d", before, after)
	}

	// Stop is safe to call twice.
	r.Stop()
}
