package backup

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/metrics"
)

// TargetOpener returns the target for the given settings.
type TargetOpener func(ctx context.Context, settings domain.BackupSettings) (Target, error)

// Service creates, lists and reads backup archives.
type Service struct {
	open    TargetOpener
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTargetOpener replaces how targets are opened. Used by tests.
func WithTargetOpener(open TargetOpener) Option {
	return func(s *Service) { s.open = open }
}

// NewService creates a backup service.
func NewService(cfg Config, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		open: func(ctx context.Context, settings domain.BackupSettings) (Target, error) {
			return OpenTarget(ctx, settings, cfg)
		},
		metrics: m,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Created describes a completed backup.
type Created struct {
	Info     Info          `json:"info"`
	Manifest Manifest      `json:"manifest"`
	Duration time.Duration `json:"duration"`
}

// Create archives st to the target chosen by its backup settings.
func (s *Service) Create(ctx context.Context, st domain.AppState, now time.Time) (*Created, error) {
	start := time.Now()
	target, err := s.open(ctx, st.BackupSettings)
	if err != nil {
		s.metrics.ObserveBackup(st.BackupSettings.Location, err)
		return nil, err
	}

	var buf bytes.Buffer
	m, err := WriteArchive(&buf, st, now)
	if err != nil {
		s.metrics.ObserveBackup(target.Name(), err)
		return nil, err
	}
	info, err := target.Put(ctx, FileName(now), buf.Bytes())
	s.metrics.ObserveBackup(target.Name(), err)
	if err != nil {
		return nil, err
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = m.CreatedAt
	}

	res := &Created{Info: info, Manifest: m, Duration: time.Since(start)}
	s.logger.Info("backup complete",
		"target", target.Name(),
		"name", info.Name,
		"size", info.Size,
		"books", m.Counts.Books,
		"duration", res.Duration,
	)
	return res, nil
}

// List returns the archives at the target chosen by settings, newest first.
func (s *Service) List(ctx context.Context, settings domain.BackupSettings) ([]Info, error) {
	target, err := s.open(ctx, settings)
	if err != nil {
		return nil, err
	}
	return target.List(ctx)
}

// Restore reads and validates the named archive. The caller decides whether
// to make the restored library current.
func (s *Service) Restore(ctx context.Context, settings domain.BackupSettings, name string) (*Restored, error) {
	target, err := s.open(ctx, settings)
	if err != nil {
		return nil, err
	}
	data, err := target.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	restored, err := ReadArchive(data)
	if err != nil {
		s.logger.Warn("backup rejected", "target", target.Name(), "name", name, "error", err)
		return nil, err
	}
	s.logger.Info("backup read",
		"target", target.Name(),
		"name", name,
		"backup_id", restored.Manifest.BackupID,
		"migrated", restored.Report.Migrated(),
	)
	return restored, nil
}
