package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		got, err := Generate(Book)
		require.NoError(t, err)
		assert.False(t, seen[got], "duplicate id %s", got)
		seen[got] = true
	}
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{Location, Book, User, Loan} {
		t.Run(prefix, func(t *testing.T) {
			got := MustGenerate(prefix)
			assert.True(t, strings.HasPrefix(got, prefix+"-"))
			assert.Len(t, got, len(prefix)+1+21)
		})
	}
}

func TestSequence(t *testing.T) {
	next := Sequence()

	assert.Equal(t, "book-1", next(Book))
	assert.Equal(t, "book-2", next(Book))
	assert.Equal(t, "loc-1", next(Location))
}
