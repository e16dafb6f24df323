package cacheinfra

import (
	"context"
	"strings"

	"github.com/viccon/sturdyc"
)

// sturdycService wraps a sturdyc client. It is the default in-process backend.
type sturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService validates cfg and builds a sturdyc client from it.
// Capacity, NumShards, TTL and EvictionPercentage go to sturdyc.New, the
// rest through ToSturdycOptions.
func NewSturdycService(cfg Config) (*sturdycService, error) {
	cfg.Backend = BackendSturdyc
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &sturdycService{client: client}, nil
}

// GetOrFetch returns the cached value for key or runs fetchFn and stores its
// result. Errors from fetchFn are returned and never cached.
func (s *sturdycService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	// validated up front so sturdyc never sees a bad function
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	v, err := s.client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		v, err := callFetch(ctx, fetchFn)
		if v == nil {
			// sturdyc rejects a nil interface even when an error comes with it
			v = nilValue{}
		}
		return v, err
	})
	if err != nil {
		return nil, err
	}
	if _, ok := v.(nilValue); ok {
		return nil, nil
	}
	return v, nil
}

// nilValue stands in for a nil fetch result inside sturdyc.
type nilValue struct{}

func (s *sturdycService) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes every key starting with prefix.
func (s *sturdycService) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}
