package cacheinfra

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type row struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
}

type backendCase struct {
	name string
	new  func(t *testing.T) Service
}

func backends() []backendCase {
	return []backendCase{
		{
			name: "sturdyc",
			new: func(t *testing.T) Service {
				svc, err := NewSturdycService(Config{
					Capacity:           100,
					NumShards:          2,
					TTL:                time.Minute,
					EvictionPercentage: 10,
				})
				if err != nil {
					t.Fatalf("failed to create sturdyc service: %v", err)
				}
				return svc
			},
		},
		{
			name: "memory",
			new: func(t *testing.T) Service {
				svc, err := NewMemoryService(Config{TTL: time.Minute})
				if err != nil {
					t.Fatalf("failed to create memory service: %v", err)
				}
				return svc
			},
		},
		{
			name: "redis",
			new: func(t *testing.T) Service {
				mr := miniredis.RunT(t)
				client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				svc, err := NewRedisService(client, Config{
					TTL:   time.Minute,
					Redis: RedisConfig{KeyPrefix: "test:"},
				})
				if err != nil {
					t.Fatalf("failed to create redis service: %v", err)
				}
				t.Cleanup(func() { svc.Close() })
				return svc
			},
		},
	}
}

func TestBackends_GetOrFetchCachesTypedValues(t *testing.T) {
	ctx := context.Background()

	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			svc := bc.new(t)

			var calls atomic.Int32
			fetch := func(ctx context.Context) ([]row, error) {
				calls.Add(1)
				return []row{{ID: 1, Code: "STARTED"}, {ID: 2, Code: "PAUSED"}}, nil
			}

			for i := 0; i < 3; i++ {
				v, err := svc.GetOrFetch(ctx, "basedata::Status::all", fetch)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				rows, ok := v.([]row)
				if !ok {
					t.Fatalf("expected []row, got %T", v)
				}
				if len(rows) != 2 || rows[1].Code != "PAUSED" {
					t.Errorf("unexpected rows: %+v", rows)
				}
			}

			if got := calls.Load(); got != 1 {
				t.Errorf("expected fetch to run once, ran %d times", got)
			}
		})
	}
}

func TestBackends_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			svc := bc.new(t)

			var calls atomic.Int32
			fetch := func(ctx context.Context) (row, error) {
				calls.Add(1)
				return row{}, boom
			}

			for i := 0; i < 2; i++ {
				v, err := svc.GetOrFetch(ctx, "basedata::Status::id::9", fetch)
				if !errors.Is(err, boom) {
					t.Errorf("expected fetch error, got %v", err)
				}
				if v != nil {
					t.Errorf("expected nil value, got %v", v)
				}
			}

			if got := calls.Load(); got != 2 {
				t.Errorf("expected fetch on every call, ran %d times", got)
			}
		})
	}
}

func TestBackends_UntypedFetchKeepsError(t *testing.T) {
	ctx := context.Background()
	missing := errors.New("missing")

	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			svc := bc.new(t)

			fetch := func(ctx context.Context) (any, error) {
				return nil, missing
			}

			v, err := svc.GetOrFetch(ctx, "basedata::Status::code::NOPE", fetch)
			if !errors.Is(err, missing) {
				t.Fatalf("expected fetch error to pass through, got %v", err)
			}
			if v != nil {
				t.Errorf("expected nil value, got %v", v)
			}
		})
	}
}

func TestSturdycService_NilResult(t *testing.T) {
	svc := backends()[0].new(t)
	ctx := context.Background()

	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return nil, nil
	}

	for i := 0; i < 2; i++ {
		v, err := svc.GetOrFetch(ctx, "basedata::Status::all", fetch)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if v != nil {
			t.Errorf("expected nil value, got %v", v)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected nil result to be cached, fetch ran %d times", got)
	}
}

func TestBackends_DeleteAndDeleteByPrefix(t *testing.T) {
	ctx := context.Background()

	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			svc := bc.new(t)

			var calls atomic.Int32
			fetchFor := func(code string) func(context.Context) (row, error) {
				return func(ctx context.Context) (row, error) {
					calls.Add(1)
					return row{Code: code}, nil
				}
			}

			keys := []string{
				"basedata::Status::id::1",
				"basedata::Status::id::2",
				"basedata::Status::code::STARTED",
				"basedata::StatusExtra::id::1",
			}
			for _, key := range keys {
				if _, err := svc.GetOrFetch(ctx, key, fetchFor(key)); err != nil {
					t.Fatalf("warm %s: %v", key, err)
				}
			}
			calls.Store(0)

			if err := svc.DeleteByPrefix(ctx, "basedata::Status::id::"); err != nil {
				t.Fatalf("DeleteByPrefix: %v", err)
			}
			if err := svc.Delete(ctx, "basedata::Status::code::STARTED"); err != nil {
				t.Fatalf("Delete: %v", err)
			}

			for _, key := range keys {
				if _, err := svc.GetOrFetch(ctx, key, fetchFor(key)); err != nil {
					t.Fatalf("reload %s: %v", key, err)
				}
			}

			// the sibling type sharing the name prefix must stay cached
			if got := calls.Load(); got != 3 {
				t.Errorf("expected 3 refetches, got %d", got)
			}
		})
	}
}

func TestBackends_RejectInvalidFetchFn(t *testing.T) {
	ctx := context.Background()

	invalid := []struct {
		name    string
		fetchFn any
		message string
	}{
		{name: "nil", fetchFn: nil, message: "cannot be nil"},
		{name: "not a function", fetchFn: "nope", message: "must be a function"},
		{name: "no parameters", fetchFn: func() (any, error) { return nil, nil }, message: "must have signature"},
		{name: "wrong first parameter", fetchFn: func(s string) (any, error) { return nil, nil }, message: "first parameter must be context.Context"},
		{name: "second return not error", fetchFn: func(ctx context.Context) (any, string) { return nil, "" }, message: "second return value must be error"},
	}

	for _, bc := range backends() {
		for _, tt := range invalid {
			t.Run(bc.name+"/"+tt.name, func(t *testing.T) {
				svc := bc.new(t)

				v, err := svc.GetOrFetch(ctx, "key", tt.fetchFn)
				if v != nil {
					t.Errorf("expected nil result, got %v", v)
				}
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("expected *ConfigError, got %T", err)
				}
				if cfgErr.Field != "fetchFn" || !strings.Contains(cfgErr.Message, tt.message) {
					t.Errorf("unexpected error: %v", cfgErr)
				}
			})
		}
	}
}

func TestRedisService_FallsBackWhenEntryIsCorrupt(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	svc, err := NewRedisService(client, Config{TTL: time.Minute, Redis: RedisConfig{KeyPrefix: "k:"}})
	if err != nil {
		t.Fatalf("failed to create redis service: %v", err)
	}

	if err := mr.Set("k:basedata::Status::id::1", "{not json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	v, err := svc.GetOrFetch(ctx, "basedata::Status::id::1", func(ctx context.Context) (row, error) {
		return row{ID: 1, Code: "STARTED"}, nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v.(row).Code != "STARTED" {
		t.Errorf("expected refetched row, got %+v", v)
	}

	stored, err := mr.Get("k:basedata::Status::id::1")
	if err != nil {
		t.Fatalf("expected entry to be rewritten: %v", err)
	}
	if !strings.Contains(stored, "STARTED") {
		t.Errorf("expected rewritten entry, got %s", stored)
	}
	if ttl := mr.TTL("k:basedata::Status::id::1"); ttl != time.Minute {
		t.Errorf("expected ttl of 1m, got %v", ttl)
	}
}

func TestEscapeGlob(t *testing.T) {
	got := escapeGlob("basedata::S*t?[x]\\::")
	want := `basedata::S\*t\?\[x\]\\::`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
