package redis

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelibrarian/homelibrarian/internal/store"
)

// Requires a reachable server; set HOMELIB_TEST_REDIS_ADDR to run.
func TestStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("HOMELIB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HOMELIB_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	s, err := Open(ctx, Options{Addr: addr, Key: "homelib-test-" + t.Name()})
	require.NoError(t, err)
	defer s.Close()
	defer s.rdb.Del(ctx, s.key)

	_, err = s.Read(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Write(ctx, []byte(`{"theme":"light"}`)))
	got, err := s.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"light"}`, string(got))
}

func TestNew_DefaultKey(t *testing.T) {
	s := New(nil, "")
	assert.Equal(t, store.DocumentKey, s.key)
}
