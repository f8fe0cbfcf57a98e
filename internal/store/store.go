// Package store persists the catalog document.
//
// The whole catalog is a single JSON document stored under one key. Backends only
// move bytes; encoding and migration live in package schema.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// DocumentKey is the fixed identifier the document is stored under.
const DocumentKey = "home_librarian"

// DocumentStore reads and writes the catalog document.
type DocumentStore interface {
	// Read returns the stored document, or ErrNotFound when none exists.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the stored document atomically.
	Write(ctx context.Context, doc []byte) error
	// Close releases the backend.
	Close() error
}

// BadgerStore keeps the document in an embedded Badger database.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadger opens (or creates) a Badger database at path.
// An empty path opens an in-memory database.
func OpenBadger(path string, logger *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Every save must survive a crash
	opts.CompactL0OnClose = true // Faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, wrap("badger", "open", fmt.Errorf("open badger db: %w", err))
	}

	if logger != nil {
		logger.Info("badger database opened", "path", path, "in_memory", path == "")
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

// Read implements DocumentStore.
func (s *BadgerStore) Read(_ context.Context) ([]byte, error) {
	var doc []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(DocumentKey))
		if err != nil {
			return err
		}
		doc, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("badger", "read", err)
	}
	return doc, nil
}

// Write implements DocumentStore.
func (s *BadgerStore) Write(_ context.Context, doc []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(DocumentKey), doc)
	})
	return wrap("badger", "write", err)
}

// Close implements DocumentStore.
func (s *BadgerStore) Close() error {
	if s.logger != nil {
		s.logger.Info("closing badger database")
	}
	return wrap("badger", "close", s.db.Close())
}
