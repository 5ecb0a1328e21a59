package sqlkv

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// Migrate brings the kv table up to date for the given dialect.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	var gd goose.Dialect
	switch d {
	case SQLite:
		gd = goose.DialectSQLite3
	case Postgres:
		gd = goose.DialectPostgres
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDialect, d)
	}

	sub, err := fs.Sub(migrationsFS, "migrations/"+string(d))
	if err != nil {
		return err
	}

	p, err := goose.NewProvider(gd, db, sub)
	if err != nil {
		return fmt.Errorf("migration setup error: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}
