package basedata

import (
	"context"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-kardan/cache"
	"github.com/goliatone/go-kardan/internal/logging"
)

// CacheNamespace is the first segment of every reference data cache key.
const CacheNamespace = "basedata"

const (
	segmentAll  = "all"
	segmentID   = "id"
	segmentCode = "code"
)

// generations counts invalidations per type. A read that saw a different
// generation before and after its fetch may have stored a row a concurrent
// write replaced, so it evicts its own key again.
type generations struct {
	m *xsync.MapOf[string, *atomic.Int64]
}

func newGenerations() *generations {
	return &generations{m: xsync.NewMapOf[string, *atomic.Int64]()}
}

func (g *generations) of(typeName string) *atomic.Int64 {
	v, _ := g.m.LoadOrCompute(typeName, func() *atomic.Int64 { return new(atomic.Int64) })
	return v
}

// cachedRepository decorates a repository with read-through caching. Reads
// go through three namespaces (all, id, code) and every successful write
// evicts all three for the type.
type cachedRepository[T any] struct {
	base     Repository[T]
	cache    cache.CacheService
	keys     cache.KeySerializer
	gen      *atomic.Int64
	typeName string
}

var _ Repository[Base] = (*cachedRepository[Base])(nil)

func newCachedRepository[T any](base Repository[T], typeName string, svc cache.CacheService, keys cache.KeySerializer, gens *generations) *cachedRepository[T] {
	if keys == nil {
		keys = cache.NewDefaultKeySerializer()
	}
	if gens == nil {
		gens = newGenerations()
	}
	return &cachedRepository[T]{
		base:     base,
		cache:    svc,
		keys:     keys,
		gen:      gens.of(typeName),
		typeName: typeName,
	}
}

// read runs a cached fetch under key and evicts key again when a write
// invalidated the type while the fetch was in flight.
func read[T any](ctx context.Context, svc cache.CacheService, gen *atomic.Int64, key string, fetchFn cache.FetchFn[T]) (T, error) {
	before := gen.Load()
	v, err := cache.GetOrFetch(ctx, svc, key, fetchFn)
	if gen.Load() != before {
		if derr := svc.Delete(ctx, key); derr != nil {
			logging.Logger(ctx).WithError(derr).WithField("key", key).Warn("cache eviction failed")
		}
	}
	return v, err
}

func (c *cachedRepository[T]) allKey() string {
	return c.keys.SerializeKey(CacheNamespace, c.typeName, segmentAll)
}

func (c *cachedRepository[T]) idKey(id int64) string {
	return c.keys.SerializeKey(CacheNamespace, c.typeName, segmentID, id)
}

func (c *cachedRepository[T]) codeKey(code string) string {
	return c.keys.SerializeKey(CacheNamespace, c.typeName, segmentCode, code)
}

func (c *cachedRepository[T]) GetByID(ctx context.Context, id int64) (T, error) {
	return read(ctx, c.cache, c.gen, c.idKey(id), func(ctx context.Context) (T, error) {
		return c.base.GetByID(ctx, id)
	})
}

func (c *cachedRepository[T]) FindByCode(ctx context.Context, code string) (T, bool, error) {
	var zero T
	code = strings.TrimSpace(code)
	if code == "" {
		return zero, false, nil
	}

	row, err := read(ctx, c.cache, c.gen, c.codeKey(code), func(ctx context.Context) (T, error) {
		return c.base.GetByCode(ctx, code)
	})
	if err != nil {
		if IsNotFound(err) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return row, true, nil
}

func (c *cachedRepository[T]) GetByCode(ctx context.Context, code string) (T, error) {
	row, ok, err := c.FindByCode(ctx, code)
	if err != nil {
		return row, err
	}
	if !ok {
		return row, errNotFound(c.typeName, "code", code)
	}
	return row, nil
}

func (c *cachedRepository[T]) GetAll(ctx context.Context) ([]T, error) {
	rows, err := read(ctx, c.cache, c.gen, c.allKey(), func(ctx context.Context) ([]T, error) {
		return c.base.GetAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	// callers must not be able to edit the cached slice
	return slices.Clone(rows), nil
}

func (c *cachedRepository[T]) Create(ctx context.Context, payload Payload) (T, error) {
	row, err := c.base.Create(ctx, payload)
	if err == nil {
		c.invalidate(ctx)
	}
	return row, err
}

func (c *cachedRepository[T]) Update(ctx context.Context, id int64, payload Payload) (T, error) {
	row, err := c.base.Update(ctx, id, payload)
	if err == nil {
		c.invalidate(ctx)
	}
	return row, err
}

func (c *cachedRepository[T]) Delete(ctx context.Context, id int64) error {
	err := c.base.Delete(ctx, id)
	if err == nil {
		c.invalidate(ctx)
	}
	return err
}

// invalidate evicts every namespace of the type. Eviction failures are
// logged and do not fail the write, which has already committed.
func (c *cachedRepository[T]) invalidate(ctx context.Context) {
	log := logging.Logger(ctx).WithField("type", c.typeName)
	c.gen.Add(1)

	if err := c.cache.Delete(ctx, c.allKey()); err != nil {
		log.WithError(err).Warn("cache eviction failed")
	}

	for _, segment := range []string{segmentID, segmentCode} {
		prefix := cache.Prefix(c.keys, CacheNamespace, c.typeName, segment)
		if err := c.cache.DeleteByPrefix(ctx, prefix); err != nil {
			log.WithError(err).WithField("prefix", prefix).Warn("cache eviction failed")
		}
	}
}
