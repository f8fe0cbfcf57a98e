// Package postgres stores the catalog document as a JSONB row in Postgres.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/homelibrarian/homelibrarian/internal/store"
)

const (
	backend    = "postgres"
	driverName = "pgx"
	// DefaultDSN matches the database name suggested during setup.
	DefaultDSN = "postgres://localhost/homelibrary?sslmode=disable"
)

var sqlOpen = sql.Open

// Store is a Postgres-backed store.DocumentStore.
type Store struct {
	db *sql.DB
}

var _ store.DocumentStore = (*Store)(nil)

// Open connects to dsn (DefaultDSN when empty) and ensures the state table exists.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, store.Wrap(backend, "open", fmt.Errorf("open postgres: %w", err))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, store.Wrap(backend, "open", fmt.Errorf("ping postgres: %w", err))
	}
	if err := ensureStateTable(ctx, db); err != nil {
		db.Close()
		return nil, store.Wrap(backend, "open", err)
	}
	if logger != nil {
		logger.Info("postgres store ready")
	}
	return &Store{db: db}, nil
}

// New wraps an existing connection, ensuring the state table exists.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, store.Wrap(backend, "open", err)
	}
	return &Store{db: db}, nil
}

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS library_state (
		key        TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

// Read implements store.DocumentStore.
func (s *Store) Read(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM library_state WHERE key = $1`, store.DocumentKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.Wrap(backend, "read", err)
	}
	return payload, nil
}

// Write implements store.DocumentStore.
func (s *Store) Write(ctx context.Context, doc []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Wrap(backend, "write", fmt.Errorf("begin tx: %w", err))
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO library_state (key, payload, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		store.DocumentKey, doc)
	if err != nil {
		_ = tx.Rollback()
		return store.Wrap(backend, "write", fmt.Errorf("upsert state: %w", err))
	}
	return store.Wrap(backend, "write", tx.Commit())
}

// Close implements store.DocumentStore.
func (s *Store) Close() error {
	return store.Wrap(backend, "close", s.db.Close())
}
