// Package sqlite stores the catalog document in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/homelibrarian/homelibrarian/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const backend = "sqlite"

// Store is a SQLite-backed store.DocumentStore.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ store.DocumentStore = (*Store)(nil)

// Open creates or opens the database at path. It configures WAL mode and
// applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, store.Wrap(backend, "open", fmt.Errorf("open sqlite: %w", err))
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, store.Wrap(backend, "open", fmt.Errorf("exec pragma %q: %w", pragma, err))
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, store.Wrap(backend, "open", fmt.Errorf("exec schema: %w", err))
	}

	if logger != nil {
		logger.Info("sqlite database opened", "path", path)
	}
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Read implements store.DocumentStore.
func (s *Store) Read(ctx context.Context) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, store.DocumentKey).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.Wrap(backend, "read", err)
	}
	return []byte(body), nil
}

// Write implements store.DocumentStore.
func (s *Store) Write(ctx context.Context, doc []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		store.DocumentKey, string(doc), s.now().UTC().Format(time.RFC3339Nano))
	return store.Wrap(backend, "write", err)
}

// UpdatedAt returns when the document was last written.
func (s *Store) UpdatedAt(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM documents WHERE key = ?`, store.DocumentKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, store.ErrNotFound
	}
	if err != nil {
		return time.Time{}, store.Wrap(backend, "read", err)
	}
	return time.Parse(time.RFC3339Nano, raw)
}

// Close implements store.DocumentStore.
func (s *Store) Close() error {
	return store.Wrap(backend, "close", s.db.Close())
}
