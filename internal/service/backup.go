package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/homelibrarian/homelibrarian/internal/backup"
	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/id"
	"github.com/homelibrarian/homelibrarian/internal/state"
)

// BackupService ties archives to the catalog: taking backups on schedule,
// restoring them, and moving books in and out as files.
type BackupService struct {
	state   *StateService
	books   *BookService
	backups *backup.Service
	ids     id.Generator
	logger  *slog.Logger
}

// NewBackupService creates a new backup service.
func NewBackupService(st *StateService, books *BookService, backups *backup.Service, ids id.Generator, logger *slog.Logger) *BackupService {
	return &BackupService{state: st, books: books, backups: backups, ids: ids, logger: logger}
}

// Create archives the catalog and records the backup date.
func (s *BackupService) Create(ctx context.Context) (*backup.Created, error) {
	now := s.state.Now()
	res, err := s.backups.Create(ctx, s.state.State(), now)
	if err != nil {
		return nil, err
	}
	if _, err := s.state.Dispatch(ctx, state.MarkBackedUp{At: now}); err != nil {
		return nil, err
	}
	return res, nil
}

// RunIfDue takes a backup when the schedule says one is due. It reports
// whether a backup was taken.
func (s *BackupService) RunIfDue(ctx context.Context) (bool, error) {
	settings := s.state.State().BackupSettings
	if !backup.Due(settings, s.state.Now()) {
		return false, nil
	}
	if _, err := s.Create(ctx); err != nil {
		s.logger.Error("scheduled backup failed", "location", settings.Location, "error", err)
		return false, err
	}
	return true, nil
}

// List returns the archives at the configured backup location.
func (s *BackupService) List(ctx context.Context) ([]backup.Info, error) {
	return s.backups.List(ctx, s.state.State().BackupSettings)
}

// Restore replaces the catalog with the named archive. The backup settings in
// force stay as they are so the library keeps backing up to the same place.
func (s *BackupService) Restore(ctx context.Context, name string) (*backup.Restored, error) {
	current := s.state.State()
	restored, err := s.backups.Restore(ctx, current.BackupSettings, name)
	if err != nil {
		return nil, err
	}
	next := restored.State
	next.BackupSettings = current.BackupSettings
	s.state.Save(ctx, next)
	s.logger.Warn("library restored from backup",
		"name", name,
		"backup_id", restored.Manifest.BackupID,
		"books", restored.Manifest.Counts.Books,
	)
	restored.State = next
	return restored, nil
}

// ImportCSV adds the books in a "title, author, isbn" CSV, all or nothing.
func (s *BackupService) ImportCSV(ctx context.Context, r io.Reader) ([]domain.Book, error) {
	st := s.state.State()
	addedBy := ""
	if u, ok := st.ActiveUser(); ok {
		addedBy = u.ID
	}
	books, err := backup.ParseCSV(r, addedBy, s.state.Now(), s.ids)
	if err != nil {
		return nil, err
	}
	return s.books.Import(ctx, books)
}

// Export writes a readable catalog in format (yaml or json).
func (s *BackupService) Export(w io.Writer, format string) error {
	st := s.state.State()
	return backup.Export(w, &st, s.state.Now(), format)
}
