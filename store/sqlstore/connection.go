// Package sqlstore implements store.Store against PostgreSQL. It is
// the one concrete adapter in this module that reaches outside the
// process boundary for persistence; every other package depends only
// on the store.Store port.
package sqlstore

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open connects to dsn (a standard PostgreSQL connection string) and
// returns a ready-to-use sqlx handle.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: connect: %w", err)
	}
	return db, nil
}

// Migrate applies every pending migration embedded under migrations/
// using goose. It is idempotent: re-running against an up-to-date
// schema is a no-op.
func Migrate(db *sqlx.DB) error {
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("sqlstore: set dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}
