package cacheinfra

import (
	"context"
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

// memoryService is a plain expiring map backed by go-cache. It has no
// capacity bound and no request coalescing; reference tables are small.
type memoryService struct {
	store *gocache.Cache
}

// NewMemoryService builds the go-cache backend. Expired entries are swept
// every EvictionInterval, or every 2*TTL when unset.
func NewMemoryService(cfg Config) (*memoryService, error) {
	cfg.Backend = BackendMemory
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cleanup := cfg.EvictionInterval
	if cleanup == 0 {
		cleanup = 2 * cfg.TTL
	}

	return &memoryService{store: gocache.New(cfg.TTL, cleanup)}, nil
}

func (s *memoryService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	if v, ok := s.store.Get(key); ok {
		return v, nil
	}

	v, err := callFetch(ctx, fetchFn)
	if err != nil {
		return nil, err
	}

	s.store.SetDefault(key, v)
	return v, nil
}

func (s *memoryService) Delete(_ context.Context, key string) error {
	s.store.Delete(key)
	return nil
}

func (s *memoryService) DeleteByPrefix(_ context.Context, prefix string) error {
	for key := range s.store.Items() {
		if strings.HasPrefix(key, prefix) {
			s.store.Delete(key)
		}
	}
	return nil
}
