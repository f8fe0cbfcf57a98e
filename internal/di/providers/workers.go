package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/homelibrarian/homelibrarian/internal/config"
	"github.com/homelibrarian/homelibrarian/internal/inbox"
	"github.com/homelibrarian/homelibrarian/internal/service"
)

// InboxHandle runs the CSV drop folder watcher with shutdown capability.
type InboxHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *InboxHandle) Shutdown() error {
	h.cancel()
	<-h.done
	return nil
}

// ProvideInbox starts the inbox watcher. A CSV dropped into the inbox folder
// is imported as books; an empty inbox dir disables the watcher.
func ProvideInbox(i do.Injector) (*InboxHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	backupService := do.MustInvoke[*service.BackupService](i)

	ctx, cancel := context.WithCancel(context.Background())
	handle := &InboxHandle{cancel: cancel, done: make(chan struct{})}

	if cfg.Inbox.Dir == "" {
		log.Debug("inbox disabled")
		close(handle.done)
		return handle, nil
	}

	importFile := func(ctx context.Context, path string) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		books, err := backupService.ImportCSV(ctx, f)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		log.Info("inbox import complete", "path", path, "books", len(books))
		return nil
	}

	w, err := inbox.New(cfg.Inbox.Dir, importFile, log, inbox.Options{SettleDelay: cfg.Inbox.SettleDelay})
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		defer close(handle.done)
		if err := w.Run(ctx); err != nil {
			log.Error("inbox watcher error", "error", err)
		}
	}()

	log.Info("inbox watching", "dir", cfg.Inbox.Dir)

	return handle, nil
}

// BackupScheduler takes scheduled backups in the background.
type BackupScheduler struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (s *BackupScheduler) Shutdown() error {
	s.cancel()
	return nil
}

// ProvideBackupScheduler starts the periodic backup check.
func ProvideBackupScheduler(i do.Injector) (*BackupScheduler, error) {
	backupService := do.MustInvoke[*service.BackupService](i)
	log := do.MustInvoke[*slog.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(backupCheckInterval)
		defer ticker.Stop()

		run := func() {
			taken, err := backupService.RunIfDue(ctx)
			if err != nil {
				log.Warn("scheduled backup failed", "error", err)
			} else if taken {
				log.Info("scheduled backup completed")
			}
		}

		// Catch up on startup
		run()

		for {
			select {
			case <-ticker.C:
				run()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Debug("backup scheduler started", "interval", backupCheckInterval)

	return &BackupScheduler{cancel: cancel}, nil
}
