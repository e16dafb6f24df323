// Package di wires a kardan process together. The container is the one
// place that builds the database handle, the cache, the type registry, the
// store factory and the seed coordinator; everything else receives them
// explicitly.
package di

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-kardan/access"
	"github.com/goliatone/go-kardan/basedata"
	"github.com/goliatone/go-kardan/cache"
	"github.com/goliatone/go-kardan/catalog"
	"github.com/goliatone/go-kardan/config"
	"github.com/goliatone/go-kardan/internal/logging"
	"github.com/goliatone/go-kardan/internal/persistence"
	"github.com/goliatone/go-kardan/machine"
	"github.com/goliatone/go-kardan/seed"
)

// Container holds the startup built collaborators of a kardan process.
type Container struct {
	cfg    config.Config
	logger *logrus.Logger

	db            *bun.DB
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	registry      *basedata.Registry
	factory       *basedata.Factory
	access        *access.Repository
	machines      *machine.Service
	seeder        *seed.Coordinator
}

type Option func(*Container)

// WithLogger replaces the logger built from the log section.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewContainer migrates the database when configured, opens it and builds
// the cache, registry, factory and seeder.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	c := &Container{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.New(cfg.LoggingConfig())
	}

	dbCfg := cfg.DatabaseConfig()
	if cfg.Database.Migrate {
		if err := persistence.Migrate(ctx, dbCfg, c.logger); err != nil {
			return nil, err
		}
	}

	db, err := persistence.Open(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	c.db = db

	cacheService, err := cache.NewCacheService(cfg.CacheConfig())
	if err != nil {
		db.Close()
		return nil, err
	}
	c.cacheService = cacheService
	c.keySerializer = cache.NewDefaultKeySerializer()

	c.registry = catalog.Registry()
	c.factory = basedata.NewFactory(db, c.registry, c.cacheService, c.keySerializer)
	c.access = access.NewRepository(db)

	c.machines, err = machine.NewService(db, c.factory)
	if err != nil {
		c.Close()
		return nil, err
	}

	bootstrap := access.NewBootstrapper(db, access.Admin{
		Username:      cfg.Seed.Admin.Username,
		PersonnelCode: cfg.Seed.Admin.PersonnelCode,
	})
	c.seeder = seed.NewCoordinator(c.factory, catalog.Enumerations(),
		seed.WithTasks(bootstrap),
		seed.WithLogger(c.logger.WithField("component", "seed")),
	)

	c.logger.WithFields(logrus.Fields{
		"driver": dbCfg.Driver,
		"cache":  cfg.Cache.Backend,
		"types":  c.registry.Len(),
	}).Debug("container ready")

	return c, nil
}

// Start sends the application ready signal. Seeding only runs when
// seed.on_start is set; ok reports whether it did.
func (c *Container) Start(ctx context.Context) (report seed.Report, ok bool) {
	if !c.cfg.Seed.OnStart {
		return seed.Report{}, false
	}
	return c.seeder.Ready(c.Context(ctx)), true
}

// Context attaches the container logger to ctx.
func (c *Container) Context(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, logrus.NewEntry(c.logger))
}

func (c *Container) Config() config.Config { return c.cfg }

func (c *Container) Logger() *logrus.Logger { return c.logger }

func (c *Container) DB() *bun.DB { return c.db }

func (c *Container) CacheService() cache.CacheService { return c.cacheService }

func (c *Container) KeySerializer() cache.KeySerializer { return c.keySerializer }

// CacheStats reports traffic counters when instrumentation is enabled.
func (c *Container) CacheStats() (cache.Stats, bool) {
	return cache.StatsOf(c.cacheService)
}

func (c *Container) Registry() *basedata.Registry { return c.registry }

func (c *Container) Factory() *basedata.Factory { return c.factory }

func (c *Container) Access() *access.Repository { return c.access }

func (c *Container) Machines() *machine.Service { return c.machines }

func (c *Container) Seeder() *seed.Coordinator { return c.seeder }

// Close releases the cache backend and the database.
func (c *Container) Close() error {
	var errs []error
	if c.cacheService != nil {
		errs = append(errs, cache.Close(c.cacheService))
	}
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	return errors.Join(errs...)
}
