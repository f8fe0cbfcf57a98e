// Package redis stores the catalog document under a single Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/homelibrarian/homelibrarian/internal/store"
)

const backend = "redis"

// Options configures the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Key overrides the document key, letting several households share a server.
	Key string
}

// Store is a Redis-backed store.DocumentStore.
type Store struct {
	rdb *goredis.Client
	key string
}

var _ store.DocumentStore = (*Store)(nil)

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, opts Options) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, store.Wrap(backend, "open", fmt.Errorf("ping redis: %w", err))
	}
	return New(rdb, opts.Key), nil
}

// New wraps an existing client.
func New(rdb *goredis.Client, key string) *Store {
	if key == "" {
		key = store.DocumentKey
	}
	return &Store{rdb: rdb, key: key}
}

// Read implements store.DocumentStore.
func (s *Store) Read(ctx context.Context) ([]byte, error) {
	doc, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.Wrap(backend, "read", err)
	}
	return doc, nil
}

// Write implements store.DocumentStore.
func (s *Store) Write(ctx context.Context, doc []byte) error {
	return store.Wrap(backend, "write", s.rdb.Set(ctx, s.key, doc, 0).Err())
}

// Close implements store.DocumentStore.
func (s *Store) Close() error {
	return store.Wrap(backend, "close", s.rdb.Close())
}
