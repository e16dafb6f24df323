package basedata

import (
	"github.com/uptrace/bun"

	"github.com/goliatone/go-kardan/cache"
)

type storeEnv struct {
	db    bun.IDB
	cache cache.CacheService
	keys  cache.KeySerializer
	gens  *generations
}

// Factory hands out stores bound to one type each. It holds no per-call
// state, so it is safe to share between goroutines.
type Factory struct {
	registry *Registry
	env      storeEnv
}

// NewFactory builds a factory over db. A nil cacheService gives uncached
// stores. A nil keys falls back to the default serializer.
func NewFactory(db bun.IDB, registry *Registry, cacheService cache.CacheService, keys cache.KeySerializer) *Factory {
	if keys == nil {
		keys = cache.NewDefaultKeySerializer()
	}
	return &Factory{
		registry: registry,
		env:      storeEnv{db: db, cache: cacheService, keys: keys, gens: newGenerations()},
	}
}

// Create resolves name and returns a new store for that type.
func (f *Factory) Create(name string) (Store, error) {
	d, err := f.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	return f.For(d), nil
}

// For returns a new store for d.
func (f *Factory) For(d Descriptor) Store {
	return d.bind(f.env)
}

// Types lists the registered type names.
func (f *Factory) Types() []string {
	return f.registry.ListKnownTypes()
}

func (f *Factory) Registry() *Registry { return f.registry }

// For returns a typed repository for T, which must be registered with the
// factory's registry. It shares cache entries with the untyped store.
func For[T any, PT Model[T]](f *Factory) (Repository[T], error) {
	d, err := Lookup[T](f.registry)
	if err != nil {
		return nil, err
	}
	typed, ok := d.(*descriptor[T, PT])
	if !ok {
		return nil, errInvalidEntity(d.Name())
	}
	return typed.repository(f.env), nil
}
