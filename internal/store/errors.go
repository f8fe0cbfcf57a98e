package store

import (
	"fmt"

	domainerrors "github.com/homelibrarian/homelibrarian/internal/errors"
)

// Error is a storage failure tagged with the backend that produced it.
type Error struct {
	Backend string // badger, file, sqlite, postgres, redis, memory
	Op      string // read, write, open, close
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s store: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrNotFound is returned by Read when no document has been written yet.
var ErrNotFound = domainerrors.NotFound("no saved library document")

func wrap(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Backend: backend, Op: op, Err: err}
}

// Wrap tags err with the backend and operation. Exported for backends in subpackages.
func Wrap(backend, op string, err error) error {
	return wrap(backend, op, err)
}
