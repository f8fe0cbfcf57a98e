// Package id generates the prefixed identifiers used for catalog entities.
package id

import (
	"fmt"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes.
const (
	Location = "loc"
	Book     = "book"
	User     = "user"
	Loan     = "loan"
)

// Generate creates a prefixed NanoID such as "book-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Generator mints ids for a prefix. Services take one so tests can be deterministic.
type Generator func(prefix string) string

// Random is the production Generator.
func Random() Generator {
	return MustGenerate
}

// Sequence returns a Generator producing "prefix-1", "prefix-2", ... per prefix.
func Sequence() Generator {
	var mu sync.Mutex
	counters := make(map[string]int)
	return func(prefix string) string {
		mu.Lock()
		defer mu.Unlock()
		counters[prefix]++
		return fmt.Sprintf("%s-%d", prefix, counters[prefix])
	}
}
