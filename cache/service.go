package cache

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
)

// KeySerializer builds a cache key from a namespace and ordered segments.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(namespace string, segments ...any) string
}

// FetchFn is the function signature CacheService expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the read-through and eviction operations the
// reference data stores rely on.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// GetOrFetch is a type-safe wrapper over CacheService.GetOrFetch.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := service.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, errors.New(
			fmt.Sprintf("cache entry %q holds %T, want %T", key, result, zero),
			errors.CategoryInternal,
		).WithTextCode("CACHE_TYPE_MISMATCH")
	}
	return typed, nil
}
