package identity

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

// MigratePostgres creates schema if needed and applies the bundled migrations inside it.
// goose keeps its version table in the same schema.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if !pgIdentIsValid(schema) {
		return fmt.Errorf("identity: invalid schema identifier")
	}
	if _, err := pool.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS `+pgx.Identifier{schema}.Sanitize()); err != nil {
		return fmt.Errorf("identity: create schema: %w", err)
	}

	cc := pool.Config().ConnConfig.Copy()
	if cc.RuntimeParams == nil {
		cc.RuntimeParams = map[string]string{}
	}
	cc.RuntimeParams["search_path"] = schema

	db := stdlib.OpenDB(*cc)
	defer func() { _ = db.Close() }()

	return migrate(ctx, goose.DialectPostgres, db, "migrations/postgres")
}

// MigrateSQLite applies the bundled SQLite migrations.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, goose.DialectSQLite3, db, "migrations/sqlite")
}

func migrate(ctx context.Context, dialect goose.Dialect, db *sql.DB, dir string) error {
	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, db, sub)
	if err != nil {
		return fmt.Errorf("identity: migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("identity: migrate up: %w", err)
	}
	return nil
}
