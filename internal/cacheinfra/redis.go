package cacheinfra

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisDeleteBatch = 100

// redisService stores JSON encoded values in redis. Values are decoded
// into the result type of the fetch function on the way out.
//
// Reads degrade to the fetch function when redis is unreachable or holds
// an entry that no longer decodes.
type redisService struct {
	client    redis.UniversalClient
	ttl       time.Duration
	prefix    string
	scanCount int64
}

// NewRedisService wraps an existing client.
func NewRedisService(client redis.UniversalClient, cfg Config) (*redisService, error) {
	if client == nil {
		return nil, &ConfigError{Field: "Redis", Message: "client cannot be nil"}
	}
	if cfg.TTL <= 0 {
		return nil, &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	scanCount := cfg.Redis.ScanCount
	if scanCount <= 0 {
		scanCount = 100
	}

	return &redisService{
		client:    client,
		ttl:       cfg.TTL,
		prefix:    cfg.Redis.KeyPrefix,
		scanCount: scanCount,
	}, nil
}

func (s *redisService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == nil {
		out := reflect.New(resultType(fetchFn))
		if json.Unmarshal(raw, out.Interface()) == nil {
			return out.Elem().Interface(), nil
		}
	}

	v, err := callFetch(ctx, fetchFn)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(v); err == nil {
		// a failed write only costs a future miss
		_ = s.client.Set(ctx, s.prefix+key, data, s.ttl).Err()
	}
	return v, nil
}

func (s *redisService) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// DeleteByPrefix scans for matching keys and removes them in batches.
func (s *redisService) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := s.client.Scan(ctx, 0, escapeGlob(s.prefix+prefix)+"*", s.scanCount).Iterator()

	batch := make([]string, 0, redisDeleteBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == redisDeleteBatch {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(batch) > 0 {
		return s.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Close releases the underlying client.
func (s *redisService) Close() error {
	return s.client.Close()
}

// escapeGlob quotes the characters redis MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
