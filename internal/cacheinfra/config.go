package cacheinfra

import (
	"time"

	"github.com/viccon/sturdyc"
)

// Supported cache backends.
const (
	BackendSturdyc = "sturdyc"
	BackendMemory  = "memory"
	BackendRedis   = "redis"
)

// Config holds the settings shared by every cache backend plus the
// backend specific sections.
type Config struct {
	// Backend selects the implementation. Empty means BackendSturdyc.
	Backend string

	// Capacity defines the maximum number of entries that sturdyc can store.
	Capacity int

	// NumShards determines the number of sturdyc shards.
	NumShards int

	// TTL is the lifetime of cached entries for every backend.
	TTL time.Duration

	// EvictionPercentage is the share of entries sturdyc evicts when full (1-100).
	EvictionPercentage int

	// EarlyRefresh enables sturdyc background refreshes. Nil disables them.
	EarlyRefresh *EarlyRefreshConfig

	// MissingRecordStorage lets sturdyc remember keys that resolved to sturdyc.ErrNotFound.
	MissingRecordStorage bool

	// EvictionInterval sets how often expired entries are swept.
	// Zero uses the backend default.
	EvictionInterval time.Duration

	Redis RedisConfig
}

// EarlyRefreshConfig mirrors the sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix is prepended to every key written to redis.
	KeyPrefix string
	// ScanCount is the COUNT hint used while scanning keys for prefix eviction.
	ScanCount int64
}

// DefaultConfig returns the sturdyc backed configuration used unless
// something else is configured.
func DefaultConfig() Config {
	return Config{
		Backend:              BackendSturdyc,
		Capacity:             10000,
		NumShards:            256,
		TTL:                  5 * time.Minute,
		EvictionPercentage:   10,
		MissingRecordStorage: true,
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "kardan:",
			ScanCount: 100,
		},
	}
}

// DefaultEarlyRefresh returns the sturdyc refresh windows used when early
// refresh is turned on. It is off by default since a refresh can bring back
// an entry a write just evicted.
func DefaultEarlyRefresh() *EarlyRefreshConfig {
	return &EarlyRefreshConfig{
		MinAsyncRefreshTime: 10 * time.Second,
		MaxAsyncRefreshTime: 20 * time.Second,
		SyncRefreshTime:     30 * time.Second,
		RetryBaseDelay:      100 * time.Millisecond,
	}
}

// ToSturdycOptions maps the optional settings to sturdyc options.
// Capacity, NumShards, TTL and EvictionPercentage go to sturdyc.New directly.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}

	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks the settings relevant to the selected backend.
func (c Config) Validate() error {
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	switch c.backend() {
	case BackendSturdyc:
		return c.validateSturdyc()
	case BackendMemory:
		if c.EvictionInterval < 0 {
			return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
		}
		return nil
	case BackendRedis:
		if c.Redis.Addr == "" {
			return &ConfigError{Field: "Redis.Addr", Message: "is required"}
		}
		if c.Redis.DB < 0 {
			return &ConfigError{Field: "Redis.DB", Message: "must be non-negative"}
		}
		return nil
	default:
		return &ConfigError{Field: "Backend", Message: "unknown backend " + c.Backend}
	}
}

func (c Config) validateSturdyc() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EarlyRefresh != nil {
		if c.EarlyRefresh.MinAsyncRefreshTime < 0 {
			return &ConfigError{Field: "EarlyRefresh.MinAsyncRefreshTime", Message: "must be non-negative"}
		}
		if c.EarlyRefresh.MaxAsyncRefreshTime < 0 {
			return &ConfigError{Field: "EarlyRefresh.MaxAsyncRefreshTime", Message: "must be non-negative"}
		}
		if c.EarlyRefresh.SyncRefreshTime < 0 {
			return &ConfigError{Field: "EarlyRefresh.SyncRefreshTime", Message: "must be non-negative"}
		}
		if c.EarlyRefresh.RetryBaseDelay < 0 {
			return &ConfigError{Field: "EarlyRefresh.RetryBaseDelay", Message: "must be non-negative"}
		}
	}

	return nil
}

func (c Config) backend() string {
	if c.Backend == "" {
		return BackendSturdyc
	}
	return c.Backend
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
