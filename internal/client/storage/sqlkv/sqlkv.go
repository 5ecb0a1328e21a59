// Package sqlkv is a database/sql backed storage.Storage. SQLite goes through
// modernc.org/sqlite and Postgres through pgx's stdlib driver; both share a
// single kv table created by embedded goose migrations.
package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/codemap/internal/client/storage"
	"github.com/dmitrijs2005/codemap/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

var ErrUnknownDialect = errors.New("sqlkv: unknown dialect")

func (d Dialect) driver() (string, error) {
	switch d {
	case SQLite:
		return "sqlite", nil
	case Postgres:
		return "pgx", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDialect, d)
}

type queries struct {
	get, set, remove string
}

func queriesFor(d Dialect) queries {
	if d == Postgres {
		return queries{
			get: `SELECT value FROM kv WHERE key = $1`,
			set: `INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
				ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			remove: `DELETE FROM kv WHERE key = $1`,
		}
	}
	return queries{
		get: `SELECT value FROM kv WHERE key = ?`,
		set: `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		remove: `DELETE FROM kv WHERE key = ?`,
	}
}

type Repository struct {
	db dbx.DBTX
	q  queries
	// closer is set only when the repository owns the connection pool.
	closer func() error
}

var _ storage.Storage = (*Repository)(nil)

// New wraps an existing connection (or transaction). The kv table must
// already exist; see Migrate.
func New(db dbx.DBTX, d Dialect) (*Repository, error) {
	if _, err := d.driver(); err != nil {
		return nil, err
	}
	return &Repository{db: db, q: queriesFor(d)}, nil
}

// Open connects to dsn with the dialect's driver, runs migrations and returns
// a repository that owns the pool.
func Open(ctx context.Context, d Dialect, dsn string) (*Repository, error) {
	driver, err := d.driver()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if d == SQLite {
		// a single connection keeps :memory: databases coherent
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, err
	}

	r, _ := New(db, d)
	r.closer = db.Close
	return r, nil
}

func (r *Repository) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, storage.ErrEmptyKey
	}
	var value []byte
	err := r.db.QueryRowContext(ctx, r.q.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, nil
}

func (r *Repository) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := r.db.ExecContext(ctx, r.q.set, key, value); err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, key string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	if _, err := r.db.ExecContext(ctx, r.q.remove, key); err != nil {
		return fmt.Errorf("failed to remove kv[%s]: %w", key, err)
	}
	return nil
}

// Close releases the pool if Open created it.
func (r *Repository) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
