package di

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-kardan/basedata"
	"github.com/goliatone/go-kardan/catalog"
	"github.com/goliatone/go-kardan/machine"
	"github.com/goliatone/go-kardan/seed"
)

// TestEndToEndReferenceDataFlow walks one status through its lifecycle.
func TestEndToEndReferenceDataFlow(t *testing.T) {
	container := newTestContainer(t, testConfig(t))
	ctx := container.Context(context.Background())

	store, err := container.Factory().Create("ExecutionStatus")
	require.NoError(t, err)

	started, err := store.Create(ctx, basedata.Payload{Code: "STARTED", Name: "Started"})
	require.NoError(t, err)
	assert.Positive(t, started.ID)

	got, err := store.GetByCode(ctx, "STARTED")
	require.NoError(t, err)
	assert.Equal(t, started.ID, got.ID)

	_, err = store.Create(ctx, basedata.Payload{Code: "STARTED", Name: "Dup"})
	assert.True(t, basedata.IsDuplicateCode(err))

	updated, err := store.Update(ctx, started.ID, basedata.Payload{Code: "OTHER", Name: "X"})
	require.NoError(t, err)
	assert.Equal(t, "STARTED", updated.Code)
	assert.Equal(t, "X", updated.Name)

	got, err = store.GetByCode(ctx, "STARTED")
	require.NoError(t, err)
	assert.Equal(t, "X", got.Name)

	require.NoError(t, store.Delete(ctx, started.ID))
	_, found, err := store.FindByCode(ctx, "STARTED")
	require.NoError(t, err)
	assert.False(t, found)
}

// TestSeedTwiceAgainstEmptyStore runs two independent seed passes.
func TestSeedTwiceAgainstEmptyStore(t *testing.T) {
	container := newTestContainer(t, testConfig(t))
	ctx := context.Background()
	enums := []seed.Enumeration{{
		Type:   "ExecutionStatus",
		Values: []seed.Value{{Code: "STARTED", Display: "Started"}, {Code: "PAUSED", Display: "Paused"}},
	}}

	for range 2 {
		report := seed.Run(ctx, container.Factory(), enums, nil, container.Logger())
		assert.Zero(t, report.Failed)
	}

	rows, err := basedata.For[catalog.ExecutionStatus](container.Factory())
	require.NoError(t, err)
	all, err := rows.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSeededCatalogServesMachines(t *testing.T) {
	container := newTestContainer(t, testConfig(t))
	ctx := context.Background()
	_, _ = container.Start(ctx)

	types, err := container.Factory().Create("MachineType")
	require.NoError(t, err)
	_, err = types.Create(ctx, basedata.Payload{Code: "CNC", Name: "CNC mill"})
	require.NoError(t, err)

	m, err := container.Machines().Create(ctx, machine.Input{Code: "M-1", TypeCode: "CNC", StatusCode: "IDLE"})
	require.NoError(t, err)

	idle, err := container.Factory().Create("MachineStatus")
	require.NoError(t, err)
	err = idle.Delete(ctx, m.MachineStatusID)
	assert.True(t, basedata.IsDependencyExists(err))
}

// TestConcurrentReadWrite mixes readers and writers on several types and
// checks that no reader observes a stale row after the writers finish.
func TestConcurrentReadWrite(t *testing.T) {
	container := newTestContainer(t, testConfig(t))
	ctx := context.Background()
	_, _ = container.Start(ctx)

	f := container.Factory()
	names := []string{"PartStatus", "ProjectStatus", "ShiftStatus"}

	var wg sync.WaitGroup
	errs := make(chan error, 64)

	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			store, err := f.Create(name)
			if err != nil {
				errs <- err
				return
			}
			for i := range 5 {
				if _, err := store.Create(ctx, basedata.Payload{Code: fmt.Sprintf("W%d", i)}); err != nil {
					errs <- fmt.Errorf("%s create: %w", name, err)
				}
			}
		}(name)

		for range 3 {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				store, err := f.Create(name)
				if err != nil {
					errs <- err
					return
				}
				for range 10 {
					if _, err := store.GetAll(ctx); err != nil {
						errs <- fmt.Errorf("%s list: %w", name, err)
					}
				}
			}(name)
		}
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	seeded := map[string]int{}
	for _, enum := range catalog.Enumerations() {
		seeded[enum.Type] = len(enum.Values)
	}

	for _, name := range names {
		store, err := f.Create(name)
		require.NoError(t, err)
		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, seeded[name]+5, name)

		_, found, err := store.FindByCode(ctx, "W4")
		require.NoError(t, err)
		assert.True(t, found, name)
	}
}
