package database

import (
	"fmt"
	"log"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver (local dev and tests)

	"hobbyhub/internal/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

func Connect(cfg *config.Config) (*sqlx.DB, error) {
	db, err := Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Printf("Connected to database successfully (driver=%s)", cfg.DBDriver)
	return db, nil
}

// Open connects with the given driver and applies driver-specific pool settings.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer; one connection also keeps
		// in-memory databases alive for the lifetime of the pool.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
	}

	return db, nil
}

// Builder returns a squirrel statement builder using the placeholder style of db's driver.
func Builder(db *sqlx.DB) sq.StatementBuilderType {
	if sqlx.BindType(db.DriverName()) == sqlx.DOLLAR {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// SupportsRowLocks reports whether SELECT ... FOR UPDATE is available.
func SupportsRowLocks(db *sqlx.DB) bool {
	return db.DriverName() == DriverPostgres
}
