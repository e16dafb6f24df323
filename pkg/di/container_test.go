package di

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/goliatone/go-kardan/cache"
	"github.com/goliatone/go-kardan/config"
	"github.com/goliatone/go-kardan/seed"
)

func testConfig(t testing.TB) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.DSN = "file:" + filepath.Join(t.TempDir(), "kardan.db")
	cfg.Cache.TTL = time.Minute
	return cfg
}

func newTestContainer(t testing.TB, cfg config.Config) *Container {
	t.Helper()
	logger, _ := test.NewNullLogger()

	container, err := NewContainer(context.Background(), cfg, WithLogger(logger))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	t.Cleanup(func() { container.Close() })
	return container
}

func TestNewContainer(t *testing.T) {
	cfg := testConfig(t)
	container := newTestContainer(t, cfg)

	if container.DB() == nil {
		t.Error("Container should have a database handle")
	}
	if container.CacheService() == nil {
		t.Error("Container should have a non-nil cache service")
	}
	if container.KeySerializer() == nil {
		t.Error("Container should have a non-nil key serializer")
	}
	if container.Factory() == nil || container.Access() == nil || container.Machines() == nil {
		t.Error("Container should build the stores and services")
	}
	if got := container.Registry().Len(); got != 7 {
		t.Errorf("Expected 7 registered types, got %d", got)
	}
	if container.Seeder().State() != seed.NotStarted {
		t.Errorf("Seeder should not run before Start, state %s", container.Seeder().State())
	}

	stored := container.Config()
	if stored.Database.DSN != cfg.Database.DSN {
		t.Errorf("Expected DSN %s, got %s", cfg.Database.DSN, stored.Database.DSN)
	}
}

func TestNewContainer_Backends(t *testing.T) {
	for _, backend := range []string{cache.BackendSturdyc, cache.BackendMemory, cache.BackendRedis} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Cache.Backend = backend
			if backend == cache.BackendRedis {
				cfg.Cache.Redis.Addr = miniredis.RunT(t).Addr()
			}

			container := newTestContainer(t, cfg)
			ctx := context.Background()

			store, err := container.Factory().Create("MachineType")
			if err != nil {
				t.Fatalf("Create store failed: %v", err)
			}
			if _, err := store.GetAll(ctx); err != nil {
				t.Fatalf("GetAll failed: %v", err)
			}
			if _, err := store.GetAll(ctx); err != nil {
				t.Fatalf("GetAll failed: %v", err)
			}

			stats, ok := container.CacheStats()
			if !ok {
				t.Fatal("Expected instrumented cache")
			}
			if stats.Requests != 2 || stats.Fetches != 1 {
				t.Errorf("Expected 2 requests and 1 fetch, got %+v", stats)
			}
		})
	}
}

func TestNewContainer_WithoutMigrations(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Migrate = false
	container := newTestContainer(t, cfg)

	store, err := container.Factory().Create("MachineType")
	if err != nil {
		t.Fatalf("Create store failed: %v", err)
	}
	if _, err := store.GetAll(context.Background()); err == nil {
		t.Error("Expected an error reading an unmigrated database")
	}
}

func TestNewContainer_InvalidCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Backend = "nope"

	logger, _ := test.NewNullLogger()
	if _, err := NewContainer(context.Background(), cfg, WithLogger(logger)); err == nil {
		t.Fatal("Expected NewContainer to fail for an unknown cache backend")
	}
}

func TestStart_Seeds(t *testing.T) {
	container := newTestContainer(t, testConfig(t))
	ctx := context.Background()

	report, ran := container.Start(ctx)
	if !ran {
		t.Fatal("Expected seeding on start")
	}
	if report.Failed != 0 {
		t.Errorf("Expected no failures, got %+v", report)
	}
	if report.Tasks["access"].Inserted == 0 {
		t.Errorf("Expected the access bootstrap to insert rows, got %+v", report.Tasks)
	}
	if container.Seeder().State() != seed.Completed {
		t.Errorf("Expected completed seeder, got %s", container.Seeder().State())
	}

	again, _ := container.Start(ctx)
	if again.RunID != report.RunID {
		t.Error("Start must not seed twice")
	}

	account, err := container.Access().Account(ctx, "admin")
	if err != nil {
		t.Fatalf("Expected admin account: %v", err)
	}
	if account.PersonnelCode != "1" {
		t.Errorf("Expected personnel code 1, got %s", account.PersonnelCode)
	}
}

func TestStart_Disabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Seed.OnStart = false
	container := newTestContainer(t, cfg)

	if _, ran := container.Start(context.Background()); ran {
		t.Error("Expected no seeding when seed.on_start is false")
	}
	if container.Seeder().State() != seed.NotStarted {
		t.Errorf("Expected untouched seeder, got %s", container.Seeder().State())
	}
}

func TestClose(t *testing.T) {
	logger, _ := test.NewNullLogger()
	container, err := NewContainer(context.Background(), testConfig(t), WithLogger(logger))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	if err := container.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := container.DB().Ping(); err == nil {
		t.Error("Expected closed database")
	}
}
