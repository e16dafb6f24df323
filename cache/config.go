package cache

import (
	"io"
	"time"

	"github.com/goliatone/go-kardan/internal/cacheinfra"
)

// Backend names accepted by Config.Backend.
const (
	BackendSturdyc = cacheinfra.BackendSturdyc
	BackendMemory  = cacheinfra.BackendMemory
	BackendRedis   = cacheinfra.BackendRedis
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend              string
	Capacity             int
	NumShards            int
	TTL                  time.Duration
	EvictionPercentage   int
	EarlyRefresh         *EarlyRefreshConfig
	MissingRecordStorage bool
	EvictionInterval     time.Duration
	Redis                RedisConfig
	// Instrument wraps the backend with hit/miss counters readable through StatsOf.
	Instrument bool
}

// EarlyRefreshConfig mirrors the underlying sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	ScanCount int64
}

// Stats is a snapshot of cache traffic counters.
type Stats struct {
	Requests  int64 `json:"requests"`
	Hits      int64 `json:"hits"`
	Fetches   int64 `json:"fetches"`
	Evictions int64 `json:"evictions"`
	Errors    int64 `json:"errors"`
}

// DefaultEarlyRefresh returns the refresh windows applied when early refresh
// is turned on.
func DefaultEarlyRefresh() *EarlyRefreshConfig {
	return convertFromInternal(cacheinfra.Config{EarlyRefresh: cacheinfra.DefaultEarlyRefresh()}).EarlyRefresh
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	cfg := convertFromInternal(cacheinfra.DefaultConfig())
	cfg.Instrument = true
	return cfg
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// NewCacheService constructs the backend selected by cfg.Backend.
func NewCacheService(cfg Config) (CacheService, error) {
	svc, err := cacheinfra.New(cfg.toInternal())
	if err != nil {
		return nil, err
	}
	if cfg.Instrument {
		return cacheinfra.NewInstrumented(svc), nil
	}
	return svc, nil
}

// StatsOf returns the counters of a service built with Config.Instrument.
func StatsOf(service CacheService) (Stats, bool) {
	instrumented, ok := service.(*cacheinfra.Instrumented)
	if !ok {
		return Stats{}, false
	}
	s := instrumented.Stats()
	return Stats{
		Requests:  s.Requests,
		Hits:      s.Hits,
		Fetches:   s.Fetches,
		Evictions: s.Evictions,
		Errors:    s.Errors,
	}, true
}

// Close releases backend resources such as redis connections.
func Close(service CacheService) error {
	if c, ok := service.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (c Config) toInternal() cacheinfra.Config {
	var early *cacheinfra.EarlyRefreshConfig
	if c.EarlyRefresh != nil {
		early = &cacheinfra.EarlyRefreshConfig{
			MinAsyncRefreshTime: c.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: c.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     c.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      c.EarlyRefresh.RetryBaseDelay,
		}
	}

	return cacheinfra.Config{
		Backend:              c.Backend,
		Capacity:             c.Capacity,
		NumShards:            c.NumShards,
		TTL:                  c.TTL,
		EvictionPercentage:   c.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: c.MissingRecordStorage,
		EvictionInterval:     c.EvictionInterval,
		Redis: cacheinfra.RedisConfig{
			Addr:      c.Redis.Addr,
			Password:  c.Redis.Password,
			DB:        c.Redis.DB,
			KeyPrefix: c.Redis.KeyPrefix,
			ScanCount: c.Redis.ScanCount,
		},
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	var early *EarlyRefreshConfig
	if cfg.EarlyRefresh != nil {
		early = &EarlyRefreshConfig{
			MinAsyncRefreshTime: cfg.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: cfg.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     cfg.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      cfg.EarlyRefresh.RetryBaseDelay,
		}
	}

	return Config{
		Backend:              cfg.Backend,
		Capacity:             cfg.Capacity,
		NumShards:            cfg.NumShards,
		TTL:                  cfg.TTL,
		EvictionPercentage:   cfg.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: cfg.MissingRecordStorage,
		EvictionInterval:     cfg.EvictionInterval,
		Redis: RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			ScanCount: cfg.Redis.ScanCount,
		},
	}
}
