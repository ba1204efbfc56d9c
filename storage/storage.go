package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

// Store provides access to the Postgres database backing boards, tasks,
// comments and users. All multi-row mutation runs inside a transaction;
// cascade deletion of tasks and comments is enforced by the schema
// (see schema.sql).
type Store struct {
	db *sql.DB
}

// New opens a connection pool for the given DSN and verifies it with a ping.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// DSNFromEnv assembles a Postgres connection string from the conventional
// DB_* environment variables. Missing optional vars fall back to libpq
// defaults; DB_NAME is required.
func DSNFromEnv() (string, error) {
	name := os.Getenv("DB_NAME")
	if name == "" {
		return "", fmt.Errorf("DB_NAME is not set")
	}
	dsn := "dbname=" + name
	optional := []struct{ env, key string }{
		{"DB_HOST", "host"},
		{"DB_PORT", "port"},
		{"DB_USER", "user"},
		{"DB_PASSWORD", "password"},
		{"DB_SSLMODE", "sslmode"},
	}
	for _, o := range optional {
		if v := os.Getenv(o.env); v != "" {
			dsn += " " + o.key + "=" + v
		}
	}
	return dsn, nil
}

// Ping reports whether the database is reachable. Used by the health check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
