// Package config loads kardan settings from an optional YAML file and
// KARDAN_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/viper"

	"github.com/goliatone/go-kardan/cache"
	"github.com/goliatone/go-kardan/internal/logging"
	"github.com/goliatone/go-kardan/internal/persistence"
)

const (
	configFileName = "kardan"
	configFileType = "yaml"
	envPrefix      = "KARDAN"
)

type Config struct {
	Database Database `mapstructure:"database" json:"database"`
	Cache    Cache    `mapstructure:"cache" json:"cache"`
	Seed     Seed     `mapstructure:"seed" json:"seed"`
	Log      Log      `mapstructure:"log" json:"log"`
}

type Database struct {
	Driver       string `mapstructure:"driver" json:"driver"`
	DSN          string `mapstructure:"dsn" json:"dsn"`
	Migrate      bool   `mapstructure:"migrate" json:"migrate"`
	MaxOpenConns int    `mapstructure:"max_open_conns" json:"max_open_conns"`
}

type Cache struct {
	Backend            string        `mapstructure:"backend" json:"backend"`
	Capacity           int           `mapstructure:"capacity" json:"capacity"`
	Shards             int           `mapstructure:"shards" json:"shards"`
	TTL                time.Duration `mapstructure:"ttl" json:"ttl"`
	EvictionPercentage int           `mapstructure:"eviction_percentage" json:"eviction_percentage"`
	EarlyRefresh       bool          `mapstructure:"early_refresh" json:"early_refresh"`
	Redis              Redis         `mapstructure:"redis" json:"redis"`
}

type Redis struct {
	Addr      string `mapstructure:"addr" json:"addr"`
	Password  string `mapstructure:"password" json:"password"`
	DB        int    `mapstructure:"db" json:"db"`
	KeyPrefix string `mapstructure:"key_prefix" json:"key_prefix"`
}

type Seed struct {
	OnStart bool  `mapstructure:"on_start" json:"on_start"`
	Admin   Admin `mapstructure:"admin" json:"admin"`
}

// Admin identifies the bootstrap administrator account.
type Admin struct {
	Username      string `mapstructure:"username" json:"username"`
	PersonnelCode string `mapstructure:"personnel_code" json:"personnel_code"`
}

type Log struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", persistence.DriverSQLite)
	v.SetDefault("database.dsn", "file:kardan.db")
	v.SetDefault("database.migrate", true)
	v.SetDefault("database.max_open_conns", 0)

	v.SetDefault("cache.backend", cache.BackendSturdyc)
	v.SetDefault("cache.capacity", 10000)
	v.SetDefault("cache.shards", 256)
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.eviction_percentage", 10)
	v.SetDefault("cache.early_refresh", false)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.key_prefix", "kardan:")

	v.SetDefault("seed.on_start", true)
	v.SetDefault("seed.admin.username", "admin")
	v.SetDefault("seed.admin.personnel_code", "1")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads path when given, otherwise kardan.yaml from the working
// directory or $HOME/.config/kardan. A missing default file is not an
// error. Environment variables override file values.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "kardan"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Database),
		validation.Field(&c.Cache),
		validation.Field(&c.Seed),
		validation.Field(&c.Log),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid configuration")
	}
	return nil
}

func (d Database) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In(persistence.DriverSQLite, persistence.DriverPostgres)),
		validation.Field(&d.DSN, validation.Required),
		validation.Field(&d.MaxOpenConns, validation.Min(0)),
	)
}

func (c Cache) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(cache.BackendSturdyc, cache.BackendMemory, cache.BackendRedis)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Capacity, validation.When(c.Backend == cache.BackendSturdyc, validation.Required, validation.Min(1))),
		validation.Field(&c.Shards, validation.When(c.Backend == cache.BackendSturdyc, validation.Required, validation.Min(1))),
		validation.Field(&c.EvictionPercentage, validation.When(c.Backend == cache.BackendSturdyc, validation.Required, validation.Min(1), validation.Max(100))),
		validation.Field(&c.Redis, validation.Skip.When(c.Backend != cache.BackendRedis)),
	)
}

func (r Redis) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Addr, validation.Required),
		validation.Field(&r.DB, validation.Min(0)),
	)
}

func (s Seed) Validate() error {
	return validation.ValidateStruct(&s, validation.Field(&s.Admin))
}

func (a Admin) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Username, validation.Required, validation.Length(1, 64)),
		validation.Field(&a.PersonnelCode, validation.Required, validation.Length(1, 64)),
	)
}

func (l Log) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("trace", "debug", "info", "warn", "warning", "error")),
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}

// DatabaseConfig maps the database section to persistence settings.
func (c Config) DatabaseConfig() persistence.Config {
	return persistence.Config{
		Driver:       c.Database.Driver,
		DSN:          c.Database.DSN,
		MaxOpenConns: c.Database.MaxOpenConns,
	}
}

// CacheConfig maps the cache section onto the cache defaults.
func (c Config) CacheConfig() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Backend = c.Cache.Backend
	cfg.Capacity = c.Cache.Capacity
	cfg.NumShards = c.Cache.Shards
	cfg.TTL = c.Cache.TTL
	cfg.EvictionPercentage = c.Cache.EvictionPercentage
	if c.Cache.EarlyRefresh {
		cfg.EarlyRefresh = cache.DefaultEarlyRefresh()
	}
	cfg.Redis.Addr = c.Cache.Redis.Addr
	cfg.Redis.Password = c.Cache.Redis.Password
	cfg.Redis.DB = c.Cache.Redis.DB
	cfg.Redis.KeyPrefix = c.Cache.Redis.KeyPrefix
	return cfg
}

// LoggingConfig maps the log section to logger settings.
func (c Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}
