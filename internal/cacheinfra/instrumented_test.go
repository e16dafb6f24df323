package cacheinfra

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInstrumented_CountsHitsAndFetches(t *testing.T) {
	ctx := context.Background()
	inner, err := NewMemoryService(Config{TTL: time.Minute})
	if err != nil {
		t.Fatalf("failed to create memory service: %v", err)
	}
	svc := NewInstrumented(inner)

	fetch := func(ctx context.Context) (row, error) {
		return row{ID: 7, Code: "IDLE"}, nil
	}

	for i := 0; i < 4; i++ {
		v, err := svc.GetOrFetch(ctx, "basedata::MachineStatus::id::7", fetch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := v.(row); !ok {
			t.Fatalf("expected row value to keep its type, got %T", v)
		}
	}

	boom := errors.New("boom")
	svc.GetOrFetch(ctx, "basedata::MachineStatus::id::8", func(ctx context.Context) (row, error) {
		return row{}, boom
	})

	svc.Delete(ctx, "basedata::MachineStatus::all")
	svc.DeleteByPrefix(ctx, "basedata::MachineStatus::id::")

	stats := svc.Stats()
	if stats.Requests != 5 {
		t.Errorf("expected 5 requests, got %d", stats.Requests)
	}
	if stats.Fetches != 2 {
		t.Errorf("expected 2 fetches, got %d", stats.Fetches)
	}
	if stats.Hits != 3 {
		t.Errorf("expected 3 hits, got %d", stats.Hits)
	}
	if stats.Errors != 1 {
		t.Errorf("expected 1 error, got %d", stats.Errors)
	}
	if stats.Evictions != 2 {
		t.Errorf("expected 2 evictions, got %d", stats.Evictions)
	}

	svc.Reset()
	if svc.Stats() != (Stats{}) {
		t.Errorf("expected zeroed stats after reset, got %+v", svc.Stats())
	}
}

func TestInstrumented_RejectsInvalidFetchFn(t *testing.T) {
	inner, _ := NewMemoryService(Config{TTL: time.Minute})
	svc := NewInstrumented(inner)

	if _, err := svc.GetOrFetch(context.Background(), "key", 42); err == nil {
		t.Fatal("expected error for invalid fetchFn")
	}
	if svc.Stats().Requests != 0 {
		t.Error("invalid calls should not be counted")
	}
}
