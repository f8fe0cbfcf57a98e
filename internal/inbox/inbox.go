// Package inbox watches a drop folder and hands settled files to a handler.
// Files are moved to processed/ or failed/ afterwards so each is handled once.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler processes one settled file.
type Handler func(ctx context.Context, path string) error

// Watcher watches one directory, non-recursively.
type Watcher struct {
	dir     string
	handler Handler
	opts    Options
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingFile
	settled chan string
	done    chan struct{}
}

// pendingFile tracks a file that may still be changing.
type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New creates a watcher for dir.
func New(dir string, handler Handler, logger *slog.Logger, opts Options) (*Watcher, error) {
	dir = filepath.Clean(dir)
	opts.setDefaults(dir)
	for _, d := range []string{dir, opts.ProcessedDir, opts.FailedDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create inbox dir: %w", err)
		}
	}
	return &Watcher{
		dir:     dir,
		handler: handler,
		opts:    opts,
		logger:  logger,
		pending: make(map[string]*pendingFile),
	}, nil
}

// Run processes files already waiting in the inbox, then watches for new ones
// until ctx is cancelled. Run must not be called concurrently.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.settled = make(chan string, 16)
	w.done = make(chan struct{})
	defer w.stop()

	w.logger.Info("watching inbox", "dir", w.dir, "patterns", w.opts.Patterns)
	w.scan()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("inbox watcher error", "error", err)
		case path := <-w.settled:
			w.process(ctx, path)
		}
	}
}

// scan queues files that arrived while nobody was watching.
func (w *Watcher) scan() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to scan inbox", "dir", w.dir, "error", err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.startSettling(filepath.Join(w.dir, e.Name()))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.opts.accepts(event.Name) {
		return
	}
	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.cancelPending(event.Name)
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.startSettling(event.Name)
	}
}

// startSettling (re)starts the settle timer for path.
func (w *Watcher) startSettling(path string) {
	if !w.opts.accepts(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}
	w.pending[path] = &pendingFile{
		size:    info.Size(),
		modTime: info.ModTime(),
		timer:   time.AfterFunc(w.opts.SettleDelay, func() { w.checkSettled(path) }),
	}
}

// checkSettled hands path over once its size and mtime stopped changing.
func (w *Watcher) checkSettled(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok {
		w.mu.Unlock()
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		w.mu.Unlock()
		return
	}
	if info.Size() != p.size || !info.ModTime().Equal(p.modTime) {
		p.size = info.Size()
		p.modTime = info.ModTime()
		p.timer = time.AfterFunc(w.opts.SettleDelay, func() { w.checkSettled(path) })
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()

	select {
	case w.settled <- path:
	case <-w.done:
	}
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	dest := w.opts.ProcessedDir
	if err := w.handler(ctx, path); err != nil {
		w.logger.Error("inbox file rejected", "file", filepath.Base(path), "error", err)
		dest = w.opts.FailedDir
	} else {
		w.logger.Info("inbox file imported", "file", filepath.Base(path))
	}

	target := filepath.Join(dest, time.Now().UTC().Format("20060102T150405")+"-"+filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		w.logger.Error("failed to move inbox file", "file", path, "to", dest, "error", err)
	}
}

func (w *Watcher) stop() {
	close(w.done)
	w.mu.Lock()
	for _, p := range w.pending {
		p.timer.Stop()
	}
	clear(w.pending)
	w.mu.Unlock()
}
