package persistence

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

const migrationsTable = "kardan_schema_migrations"

// Migrate applies every pending up migration for cfg.Driver. The migrator
// gets its own connection because closing it closes the underlying sql.DB.
func Migrate(_ context.Context, cfg Config, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}

	sqldb, err := openSQL(cfg)
	if err != nil {
		return err
	}

	dir, dbDriver, err := migrationDriver(cfg.Driver, sqldb)
	if err != nil {
		sqldb.Close()
		return err
	}
	defer func() {
		_ = dbDriver.Close()
	}()

	sourceDriver, err := iofs.New(migrationFiles, dir)
	if err != nil {
		return fmt.Errorf("failed to create iofs driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, cfg.Driver, dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration %d is dirty, fix it before proceeding", version)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	after, _, _ := m.Version()
	log.WithFields(logrus.Fields{
		"driver": cfg.Driver,
		"from":   version,
		"to":     after,
	}).Info("database migrated")

	return nil
}

func migrationDriver(driver string, sqldb *sql.DB) (string, database.Driver, error) {
	switch driver {
	case DriverPostgres:
		d, err := migratepg.WithInstance(sqldb, &migratepg.Config{MigrationsTable: migrationsTable})
		if err != nil {
			return "", nil, fmt.Errorf("failed to create postgres driver: %w", err)
		}
		return "migrations/postgres", d, nil
	case DriverSQLite, "":
		d, err := migratesqlite.WithInstance(sqldb, &migratesqlite.Config{MigrationsTable: migrationsTable})
		if err != nil {
			return "", nil, fmt.Errorf("failed to create sqlite driver: %w", err)
		}
		return "migrations/sqlite", d, nil
	default:
		return "", nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
