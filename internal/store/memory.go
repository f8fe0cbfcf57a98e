package store

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps the document in memory. Used by tests and demo mode.
type MemoryStore struct {
	mu  sync.RWMutex
	doc []byte

	// FailWrites makes Write return an error, for exercising save failures.
	FailWrites error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// Read implements DocumentStore.
func (s *MemoryStore) Read(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil, ErrNotFound
	}
	return slices.Clone(s.doc), nil
}

// Write implements DocumentStore.
func (s *MemoryStore) Write(_ context.Context, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return wrap("memory", "write", s.FailWrites)
	}
	s.doc = slices.Clone(doc)
	return nil
}

// Close implements DocumentStore.
func (s *MemoryStore) Close() error {
	return nil
}
