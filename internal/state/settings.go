package state

import (
	"strings"
	"time"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

// UpdateSettings replaces whichever settings groups are non-nil.
type UpdateSettings struct {
	Theme  *domain.Theme
	AI     *domain.AISettings
	DB     *domain.DBSettings
	Backup *domain.BackupSettings
}

// Name implements Action.
func (UpdateSettings) Name() string { return "settings.update" }

func (a UpdateSettings) apply(s *domain.AppState) error {
	if a.Theme != nil {
		if *a.Theme != domain.ThemeDark && *a.Theme != domain.ThemeLight {
			return errors.ValidationWithDetails("validation failed", map[string]string{"theme": "must be dark or light"})
		}
		s.Theme = *a.Theme
	}
	if a.AI != nil {
		ai := *a.AI
		ai.OllamaURL = strings.TrimRight(strings.TrimSpace(ai.OllamaURL), "/")
		if err := validate.Validate(ai); err != nil {
			return err
		}
		s.AISettings = ai
	}
	if a.DB != nil {
		if err := validate.Validate(*a.DB); err != nil {
			return err
		}
		s.DBSettings = *a.DB
	}
	if a.Backup != nil {
		b := *a.Backup
		if err := validate.Validate(b); err != nil {
			return err
		}
		if b.Location == domain.BackupNAS && strings.TrimSpace(b.NASPath) == "" {
			return errors.ValidationWithDetails("validation failed", map[string]string{"nasPath": "is required for NAS backups"})
		}
		b.LastBackupDate = s.BackupSettings.LastBackupDate
		s.BackupSettings = b
	}
	return nil
}

// MarkBackedUp records a completed backup.
type MarkBackedUp struct {
	At time.Time
}

// Name implements Action.
func (MarkBackedUp) Name() string { return "settings.backed-up" }

func (a MarkBackedUp) apply(s *domain.AppState) error {
	at := a.At
	s.BackupSettings.LastBackupDate = &at
	return nil
}

// CompleteSetup finishes onboarding: the family, their rooms, optional starter
// books and provider choices. The first Admin becomes the active user.
type CompleteSetup struct {
	Users []domain.User
	Rooms []domain.Location
	Books []domain.Book
	AI    *domain.AISettings
	DB    *domain.DBSettings
	Demo  bool
	At    time.Time
}

// Name implements Action.
func (CompleteSetup) Name() string { return "setup.complete" }

func (a CompleteSetup) apply(s *domain.AppState) error {
	if s.IsSetupComplete {
		return errors.Conflict("the library is already set up")
	}

	firstAdmin := ""
	for _, u := range a.Users {
		if err := (AddUser{User: u, At: a.At}).apply(s); err != nil {
			return err
		}
		if u.Role == domain.RoleAdmin && firstAdmin == "" {
			firstAdmin = u.ID
		}
	}
	if firstAdmin == "" {
		return errors.ValidationWithDetails("validation failed", map[string]string{"users": "at least one admin is required"})
	}

	for _, room := range a.Rooms {
		if err := (AddLocation{Location: room}).apply(s); err != nil {
			return err
		}
	}
	if err := (ImportBooks{Books: a.Books}).apply(s); err != nil {
		return err
	}
	if err := (UpdateSettings{AI: a.AI, DB: a.DB}).apply(s); err != nil {
		return err
	}

	s.CurrentUser = firstAdmin
	s.IsDemoMode = a.Demo
	s.IsSetupComplete = true
	return nil
}
