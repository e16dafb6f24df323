package cacheinfra

import (
	"context"
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"
)

// Stats is a snapshot of the counters kept by Instrumented.
type Stats struct {
	Requests  int64
	Hits      int64
	Fetches   int64
	Evictions int64
	Errors    int64
}

// Instrumented counts traffic through another Service. A request that does
// not reach the fetch function is a hit.
type Instrumented struct {
	next      Service
	requests  *xsync.Counter
	fetches   *xsync.Counter
	evictions *xsync.Counter
	errors    *xsync.Counter
}

func NewInstrumented(next Service) *Instrumented {
	return &Instrumented{
		next:      next,
		requests:  xsync.NewCounter(),
		fetches:   xsync.NewCounter(),
		evictions: xsync.NewCounter(),
		errors:    xsync.NewCounter(),
	}
}

func (i *Instrumented) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}
	i.requests.Inc()

	// same function type as fetchFn so backends that decode by result type still work
	fn := reflect.ValueOf(fetchFn)
	counted := reflect.MakeFunc(fn.Type(), func(args []reflect.Value) []reflect.Value {
		i.fetches.Inc()
		return fn.Call(args)
	})

	v, err := i.next.GetOrFetch(ctx, key, counted.Interface())
	if err != nil {
		i.errors.Inc()
	}
	return v, err
}

func (i *Instrumented) Delete(ctx context.Context, key string) error {
	i.evictions.Inc()
	return i.next.Delete(ctx, key)
}

func (i *Instrumented) DeleteByPrefix(ctx context.Context, prefix string) error {
	i.evictions.Inc()
	return i.next.DeleteByPrefix(ctx, prefix)
}

// Close forwards to the wrapped service when it holds resources.
func (i *Instrumented) Close() error {
	if c, ok := i.next.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (i *Instrumented) Stats() Stats {
	requests := i.requests.Value()
	fetches := i.fetches.Value()
	hits := requests - fetches
	if hits < 0 {
		// sturdyc early refreshes fetch without a request
		hits = 0
	}
	return Stats{
		Requests:  requests,
		Hits:      hits,
		Fetches:   fetches,
		Evictions: i.evictions.Value(),
		Errors:    i.errors.Value(),
	}
}

func (i *Instrumented) Reset() {
	i.requests.Reset()
	i.fetches.Reset()
	i.evictions.Reset()
	i.errors.Reset()
}
