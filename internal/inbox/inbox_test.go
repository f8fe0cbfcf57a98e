package inbox

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (r *recorder) handle(_ context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, filepath.Base(path)+":"+string(data))
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func startWatcher(t *testing.T, dir string, rec *recorder) {
	t.Helper()
	w, err := New(dir, rec.handle, slog.New(slog.DiscardHandler), Options{SettleDelay: 20 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
}

func movedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestWatcher_ImportsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, dir, rec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "books.csv"), []byte("Title,Author\nDune,Frank Herbert\n"), 0o644))

	require.Eventually(t, func() bool { return rec.count() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "books.csv:Title,Author\nDune,Frank Herbert\n", rec.paths[0])

	require.Eventually(t, func() bool {
		return len(movedFiles(t, filepath.Join(dir, "processed"))) == 1
	}, 5*time.Second, 10*time.Millisecond)
	_, err := os.Stat(filepath.Join(dir, "books.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestWatcher_PicksUpExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "waiting.csv"), []byte("x"), 0o644))

	rec := &recorder{}
	startWatcher(t, dir, rec)

	require.Eventually(t, func() bool { return rec.count() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_RejectedFileMovesToFailed(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{err: errors.New("bad csv")}
	startWatcher(t, dir, rec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.csv"), []byte("??"), 0o644))

	require.Eventually(t, func() bool {
		return len(movedFiles(t, filepath.Join(dir, "failed"))) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, movedFiles(t, filepath.Join(dir, "processed")))
}

func TestOptions_Accepts(t *testing.T) {
	opts := Options{}
	opts.setDefaults("/inbox")

	tests := []struct {
		path string
		want bool
	}{
		{"/inbox/books.csv", true},
		{"/inbox/BOOKS.CSV", true},
		{"/inbox/.books.csv", false},
		{"/inbox/books.csv~", false},
		{"/inbox/notes.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, opts.accepts(tt.path))
		})
	}
	assert.Equal(t, "/inbox/processed", opts.ProcessedDir)
	assert.Equal(t, "/inbox/failed", opts.FailedDir)
}
