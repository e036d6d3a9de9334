package sql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/smbdfs/smbd/internal/logx"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runPostgresMigrations applies the embedded schema to dsn via
// golang-migrate, using pgx's database/sql driver rather than opening
// a second pgxpool just for this one-shot step. Ported from the
// teacher's own golang-migrate + iofs + pgx/v5/stdlib migration runner.
func runPostgresMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("sql registry: open migration connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("sql registry: ping database: %w", err)
	}

	driver, err := migratepostgres.WithInstance(db, &migratepostgres.Config{MigrationsTable: "registry_schema_migrations"})
	if err != nil {
		return fmt.Errorf("sql registry: postgres migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("sql registry: migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("sql registry: migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("sql registry: apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		logx.InfoCtx(ctx, "sql registry: migrations applied", "version", version, "dirty", dirty)
	}
	return nil
}
