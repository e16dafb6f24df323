package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-kardan/internal/persistence"
)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
// The path is relative to the test package directory.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// DBConfig returns a sqlite config pointing at a fresh file in a test
// temp directory. The file is removed with the directory.
func DBConfig(t testing.TB) persistence.Config {
	t.Helper()
	return persistence.Config{
		Driver: persistence.DriverSQLite,
		DSN:    "file:" + filepath.Join(t.TempDir(), "kardan.db"),
	}
}

// NewDB migrates a fresh sqlite database and opens it. The handle is
// closed when the test ends.
func NewDB(t testing.TB) *bun.DB {
	t.Helper()
	db, _ := NewDBWithConfig(t)
	return db
}

// NewDBWithConfig is NewDB that also returns the config used, for tests
// that open a second handle.
func NewDBWithConfig(t testing.TB) (*bun.DB, persistence.Config) {
	t.Helper()

	ctx := context.Background()
	cfg := DBConfig(t)

	logger, _ := test.NewNullLogger()
	if err := persistence.Migrate(ctx, cfg, logger); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db, err := persistence.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db, cfg
}

// MustExec runs a raw statement, failing the test on error.
func MustExec(t testing.TB, db bun.IDB, query string, args ...any) {
	t.Helper()

	if _, err := db.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// Count returns the number of rows in table.
func Count(t testing.TB, db bun.IDB, table string) int {
	t.Helper()

	var n int
	if err := db.NewRaw("SELECT count(*) FROM ?", bun.Ident(table)).Scan(context.Background(), &n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
