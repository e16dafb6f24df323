package machine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-kardan/basedata"
	"github.com/goliatone/go-kardan/cache"
	"github.com/goliatone/go-kardan/catalog"
	"github.com/goliatone/go-kardan/pkg/testsupport"
)

type fixture struct {
	svc      *Service
	factory  *basedata.Factory
	types    basedata.Store
	statuses basedata.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := testsupport.NewDB(t)

	cfg := cache.DefaultConfig()
	cfg.Backend = cache.BackendMemory
	svc, err := cache.NewCacheService(cfg)
	require.NoError(t, err)

	f := basedata.NewFactory(db, catalog.Registry(), svc, nil)
	machines, err := NewService(db, f)
	require.NoError(t, err)

	types, err := f.Create("MachineType")
	require.NoError(t, err)
	statuses, err := f.Create("MachineStatus")
	require.NoError(t, err)

	var payloads map[string][]basedata.Payload
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("reference.json"), &payloads)
	for _, p := range payloads["MachineType"] {
		_, err := types.Create(ctx, p)
		require.NoError(t, err)
	}
	for _, p := range payloads["MachineStatus"] {
		_, err := statuses.Create(ctx, p)
		require.NoError(t, err)
	}

	return fixture{svc: machines, factory: f, types: types, statuses: statuses}
}

func TestService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	m, err := fx.svc.Create(ctx, Input{Code: " M-1 ", Name: "Mill one", TypeCode: "CNC", StatusCode: "IDLE"})
	require.NoError(t, err)
	assert.Positive(t, m.ID)
	assert.Equal(t, "M-1", m.Code)

	cnc, err := fx.types.GetByCode(ctx, "CNC")
	require.NoError(t, err)
	assert.Equal(t, cnc.ID, m.MachineTypeID)

	got, err := fx.svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestService_CreateRejects(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	_, err := fx.svc.Create(ctx, Input{Code: "M-1", TypeCode: "NOPE", StatusCode: "IDLE"})
	assert.True(t, basedata.IsNotFound(err), "unknown type code")

	_, err = fx.svc.Create(ctx, Input{Code: "M-1", TypeCode: "CNC", StatusCode: "NOPE"})
	assert.True(t, basedata.IsNotFound(err), "unknown status code")

	_, err = fx.svc.Create(ctx, Input{Code: "", TypeCode: "CNC", StatusCode: "IDLE"})
	assert.True(t, basedata.IsValidation(err))

	_, err = fx.svc.Create(ctx, Input{Code: "M-1", TypeCode: "CNC", StatusCode: "IDLE"})
	require.NoError(t, err)
	_, err = fx.svc.Create(ctx, Input{Code: "M-1", TypeCode: "CNC", StatusCode: "IDLE"})
	assert.True(t, basedata.IsDuplicateCode(err))
}

func TestService_ProtectsReferenceRows(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	m, err := fx.svc.Create(ctx, Input{Code: "M-1", TypeCode: "LATHE", StatusCode: "RUNNING"})
	require.NoError(t, err)

	err = fx.types.Delete(ctx, m.MachineTypeID)
	assert.True(t, basedata.IsDependencyExists(err))
	err = fx.statuses.Delete(ctx, m.MachineStatusID)
	assert.True(t, basedata.IsDependencyExists(err))

	require.NoError(t, fx.svc.Delete(ctx, m.ID))
	require.NoError(t, fx.types.Delete(ctx, m.MachineTypeID))

	_, err = fx.svc.Get(ctx, m.ID)
	assert.True(t, basedata.IsNotFound(err))
	assert.True(t, basedata.IsNotFound(fx.svc.Delete(ctx, m.ID)))
}

func TestService_SeesRenamedReferenceData(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	_, err := fx.svc.Create(ctx, Input{Code: "M-1", TypeCode: "CNC", StatusCode: "IDLE"})
	require.NoError(t, err)

	// the code cache is warm now; a new type must still resolve
	_, err = fx.types.Create(ctx, basedata.Payload{Code: "PRESS", Name: "Press"})
	require.NoError(t, err)

	_, err = fx.svc.Create(ctx, Input{Code: "M-2", TypeCode: "PRESS", StatusCode: "IDLE"})
	assert.NoError(t, err)
}

func TestNewService_NeedsCatalogTypes(t *testing.T) {
	f := basedata.NewFactory(testsupport.NewDB(t), basedata.MustNewRegistry(), nil, nil)
	_, err := NewService(nil, f)
	assert.True(t, basedata.IsInvalidEntity(err))
}
