package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps the document as a JSON file. Writes go to a temporary file
// in the same directory and are renamed into place.
type FileStore struct {
	path string
}

// OpenFile returns a store for the document at path, creating its directory.
func OpenFile(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, wrap("file", "open", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the document path.
func (s *FileStore) Path() string {
	return s.path
}

// Read implements DocumentStore.
func (s *FileStore) Read(_ context.Context) ([]byte, error) {
	doc, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("file", "read", err)
	}
	return doc, nil
}

// Write implements DocumentStore.
func (s *FileStore) Write(_ context.Context, doc []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".library-*.json")
	if err != nil {
		return wrap("file", "write", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // Gone after a successful rename

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return wrap("file", "write", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return wrap("file", "write", err)
	}
	if err := tmp.Close(); err != nil {
		return wrap("file", "write", err)
	}
	return wrap("file", "write", os.Rename(tmpName, s.path))
}

// Close implements DocumentStore.
func (s *FileStore) Close() error {
	return nil
}
