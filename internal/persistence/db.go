package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects the database and how to reach it.
type Config struct {
	Driver string
	DSN    string
	// MaxOpenConns caps the pool. Zero keeps the database/sql default.
	MaxOpenConns int
}

// Open connects to the configured database and wraps it in a bun.DB with
// the matching dialect. SQLite connections always enforce foreign keys.
func Open(ctx context.Context, cfg Config) (*bun.DB, error) {
	sqldb, err := openSQL(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	switch cfg.Driver {
	case DriverPostgres:
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	}
}

func openSQL(cfg Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	switch cfg.Driver {
	case DriverSQLite, "":
		return sql.Open("sqlite3", SQLiteDSN(cfg.DSN))
	case DriverPostgres:
		return sql.Open("postgres", cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// SQLiteDSN adds the connection parameters the stores depend on: foreign
// key enforcement and a busy timeout. Parameters already present win.
func SQLiteDSN(dsn string) string {
	params := []struct{ key, alias, value string }{
		{key: "_foreign_keys", alias: "_fk", value: "on"},
		{key: "_busy_timeout", alias: "_timeout", value: "5000"},
	}

	for _, p := range params {
		if strings.Contains(dsn, p.key+"=") || strings.Contains(dsn, p.alias+"=") {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p.key + "=" + p.value
	}
	return dsn
}

// RunInTx runs fn inside a transaction on db. fn's error rolls it back.
func RunInTx(ctx context.Context, db bun.IDB, fn func(ctx context.Context, tx bun.Tx) error) error {
	return db.RunInTx(ctx, nil, fn)
}
