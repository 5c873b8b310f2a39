// Package dbtest provides migrated databases for tests: an in-memory SQLite
// database, and a throwaway schema on the Postgres at TEST_DATABASE_URL.
package dbtest

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"hobbyhub/internal/database"
)

// NewSQLite opens a fresh in-memory database with the full schema applied.
// The database is closed when the test finishes.
func NewSQLite(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Failed to migrate sqlite: %v", err)
	}
	return db
}

// NewPostgres connects to TEST_DATABASE_URL and migrates a schema private to
// this test, dropped again on cleanup. The test is skipped when the variable
// is unset or the server is unreachable.
func NewPostgres(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping Postgres test")
	}

	admin, err := database.Open(database.DriverPostgres, dsn)
	if err != nil {
		t.Skipf("Postgres not available, skipping test: %v", err)
	}

	schema := "hobbyhub_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	if _, err := admin.Exec("CREATE SCHEMA " + schema); err != nil {
		admin.Close()
		t.Fatalf("Failed to create schema %s: %v", schema, err)
	}
	t.Cleanup(func() {
		if _, err := admin.Exec("DROP SCHEMA " + schema + " CASCADE"); err != nil {
			t.Logf("Failed to drop schema %s: %v", schema, err)
		}
		admin.Close()
	})

	scoped, err := withSearchPath(dsn, schema)
	if err != nil {
		t.Fatalf("Failed to scope DSN: %v", err)
	}
	db, err := database.Open(database.DriverPostgres, scoped)
	if err != nil {
		t.Fatalf("Failed to open postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Failed to migrate postgres: %v", err)
	}
	return db
}

// Open returns a migrated database for driver: SQLite in memory, or Postgres
// via NewPostgres.
func Open(t testing.TB, driver string) *sqlx.DB {
	t.Helper()

	switch driver {
	case database.DriverSQLite:
		return NewSQLite(t)
	case database.DriverPostgres:
		return NewPostgres(t)
	}
	t.Fatalf("unsupported driver %q", driver)
	return nil
}

// withSearchPath makes every connection opened from dsn resolve tables in
// schema. lib/pq passes unknown DSN keys to the server as run-time settings.
func withSearchPath(dsn, schema string) (string, error) {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return fmt.Sprintf("%s search_path=%s", dsn, schema), nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
