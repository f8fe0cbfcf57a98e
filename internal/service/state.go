// Package service holds the catalog's use cases. Every change goes through
// StateService.Dispatch; the other services resolve references, fill in ids and
// timestamps, and shape read models for the CLI and the HTTP API.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/metrics"
	"github.com/homelibrarian/homelibrarian/internal/schema"
	"github.com/homelibrarian/homelibrarian/internal/state"
	"github.com/homelibrarian/homelibrarian/internal/store"
)

// Clock returns the current time. Services take one so tests control "now".
type Clock func() time.Time

// StateOptions configures a StateService.
type StateOptions struct {
	QuarantineDir string // Where undecodable documents are copied; empty disables
	Metrics       *metrics.Metrics
	Clock         Clock
}

// StateService owns the in-memory catalog and keeps the store in step with it.
// It is the single writer: Dispatch serializes every change.
type StateService struct {
	mu       sync.RWMutex
	current  domain.AppState
	revision uint64

	store         store.DocumentStore
	quarantineDir string
	metrics       *metrics.Metrics
	now           Clock
	logger        *slog.Logger
}

// NewStateService creates a state service holding the default catalog until Load.
func NewStateService(st store.DocumentStore, opts StateOptions, logger *slog.Logger) *StateService {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &StateService{
		current:       domain.DefaultState(),
		store:         st,
		quarantineDir: opts.QuarantineDir,
		metrics:       opts.Metrics,
		now:           now,
		logger:        logger,
	}
}

// Now returns the service clock's time.
func (s *StateService) Now() time.Time {
	return s.now()
}

// Load reads the stored document, upgrading it if needed, and makes it current.
// It never fails: a missing document yields the defaults, and an unreadable one
// is logged, quarantined when possible, and replaced by the defaults in memory.
func (s *StateService) Load(ctx context.Context) domain.AppState {
	loaded, outcome := s.read(ctx)

	s.mu.Lock()
	s.current = loaded
	s.revision++
	s.mu.Unlock()

	s.metrics.ObserveLoad(outcome)
	s.metrics.SetCatalog(loaded.Summarize(s.now()))
	return loaded.Clone()
}

func (s *StateService) read(ctx context.Context) (domain.AppState, string) {
	raw, err := s.store.Read(ctx)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Info("no saved library, starting fresh")
		return domain.DefaultState(), metrics.LoadEmpty
	}
	if err != nil {
		s.logger.Error("failed to read library, starting with defaults", "error", err)
		return domain.DefaultState(), metrics.LoadFailed
	}

	loaded, report, err := schema.Decode(raw)
	if err != nil {
		s.logger.Error("saved library is unreadable, starting with defaults", "error", err, "bytes", len(raw))
		if path, qerr := s.quarantine(raw); qerr != nil {
			s.logger.Warn("failed to quarantine unreadable library", "error", qerr)
		} else if path != "" {
			s.logger.Warn("unreadable library copied aside", "path", path)
		}
		return domain.DefaultState(), metrics.LoadQuarantined
	}

	if report.Newer {
		s.logger.Warn("library was written by a newer release; unknown fields are ignored",
			"document_version", report.From,
			"supported_version", schema.CurrentVersion,
		)
	}
	if len(report.Filled) > 0 {
		s.logger.Info("library was missing fields; defaults applied", "fields", report.Filled)
	}
	for _, dropped := range report.Dropped {
		s.logger.Warn("library value could not be converted", "detail", dropped)
	}
	if report.Migrated() {
		s.logger.Info("library upgraded",
			"from", report.From,
			"to", report.To,
			"steps", report.Applied,
		)
		return loaded, metrics.LoadMigrated
	}
	return loaded, metrics.LoadOK
}

func (s *StateService) quarantine(raw []byte) (string, error) {
	if s.quarantineDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(s.quarantineDir, 0o700); err != nil {
		return "", fmt.Errorf("create quarantine dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.json", store.DocumentKey, s.now().UTC().Format("20060102T150405.000Z"))
	path := filepath.Join(s.quarantineDir, name)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", fmt.Errorf("write quarantine file: %w", err)
	}
	return path, nil
}

// Save makes st current and writes it. Write failures are logged and counted;
// the in-memory catalog stays authoritative.
func (s *StateService) Save(ctx context.Context, st domain.AppState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(ctx, st.Clone())
}

// Reset replaces the catalog with an empty one and returns it.
func (s *StateService) Reset(ctx context.Context) domain.AppState {
	fresh := domain.DefaultState()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(ctx, fresh)
	s.logger.Warn("library reset to defaults")
	return fresh.Clone()
}

// Dispatch applies a to the current catalog and persists the result.
// A rejected action leaves the catalog untouched and returns the current state
// with the action's error.
func (s *StateService) Dispatch(ctx context.Context, a state.Action) (domain.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := state.Reduce(s.current, a)
	s.metrics.ObserveAction(a.Name(), err)
	if err != nil {
		s.logger.Debug("action rejected", "action", a.Name(), "error", err)
		return s.current.Clone(), err
	}

	s.replaceLocked(ctx, next)
	s.logger.Debug("action applied", "action", a.Name(), "revision", s.revision)
	return next.Clone(), nil
}

func (s *StateService) replaceLocked(ctx context.Context, next domain.AppState) {
	s.current = next
	s.revision++
	s.metrics.SetCatalog(next.Summarize(s.now()))

	doc, err := schema.Encode(next)
	if err == nil {
		err = s.store.Write(ctx, doc)
	}
	if err != nil {
		s.metrics.ObservePersistFailure()
		s.logger.Error("failed to save library; changes are kept in memory", "error", err, "revision", s.revision)
	}
}

// State returns a copy of the current catalog.
func (s *StateService) State() domain.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Snapshot returns a copy of the current catalog and its revision. The revision
// changes whenever the catalog is replaced.
func (s *StateService) Snapshot() (domain.AppState, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone(), s.revision
}

// Ping checks that the store can be read. An empty store is healthy.
func (s *StateService) Ping(ctx context.Context) error {
	_, err := s.store.Read(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}
