// Package sql provides a database-backed registry.Registry over GORM,
// supporting both SQLite (single-node deployments) and PostgreSQL
// (multi-node/HA) through the same model set, grounded on the
// teacher's dual-dialector control-plane store. FindShare resolves a
// row's stored backend kind/config back into a live fsbackend.Backend
// at read time, since the interface itself can't be a database column.
package sql

import "fmt"

// Driver names the SQL dialect a Config connects to.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config configures a Registry's database connection.
type Config struct {
	Driver Driver

	// SQLitePath is the database file path (or ":memory:") for
	// DriverSQLite.
	SQLitePath string

	// PostgresDSN is a libpq-style connection string for
	// DriverPostgres, e.g. "host=... port=5432 user=... dbname=...".
	PostgresDSN string

	// MaxOpenConns/MaxIdleConns bound the Postgres connection pool. 0
	// uses database/sql's defaults.
	MaxOpenConns int
	MaxIdleConns int

	// RunMigrations runs the embedded golang-migrate schema against a
	// Postgres database before GORM opens it. SQLite always manages
	// its own schema via GORM AutoMigrate, since a pure-Go SQLite
	// migrate driver isn't part of this module's dependency set.
	RunMigrations bool
}

func (c *Config) applyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.Driver == DriverSQLite && c.SQLitePath == "" {
		c.SQLitePath = "smbd-registry.db"
	}
	if c.Driver == DriverPostgres {
		if c.MaxOpenConns == 0 {
			c.MaxOpenConns = 25
		}
		if c.MaxIdleConns == 0 {
			c.MaxIdleConns = 5
		}
	}
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sql registry: sqlite path is required")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("sql registry: postgres DSN is required")
		}
	default:
		return fmt.Errorf("sql registry: unsupported driver %q", c.Driver)
	}
	return nil
}
