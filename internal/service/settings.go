package service

import (
	"context"
	"log/slog"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/state"
)

// SettingsService manages theme, AI provider, database and backup settings.
type SettingsService struct {
	state  *StateService
	logger *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(st *StateService, logger *slog.Logger) *SettingsService {
	return &SettingsService{state: st, logger: logger}
}

// Settings is the settings screen's view of the catalog.
type Settings struct {
	Theme           domain.Theme          `json:"theme"`
	IsSetupComplete bool                  `json:"isSetupComplete"`
	IsDemoMode      bool                  `json:"isDemoMode"`
	AI              domain.AISettings     `json:"aiSettings"`
	DB              domain.DBSettings     `json:"dbSettings"`
	Backup          domain.BackupSettings `json:"backupSettings"`
}

// SettingsUpdate contains the groups to replace. Nil groups are kept.
type SettingsUpdate struct {
	Theme  *domain.Theme          `json:"theme,omitempty"`
	AI     *domain.AISettings     `json:"aiSettings,omitempty"`
	DB     *domain.DBSettings     `json:"dbSettings,omitempty"`
	Backup *domain.BackupSettings `json:"backupSettings,omitempty"`
}

// Get returns the current settings.
func (s *SettingsService) Get() Settings {
	return settingsOf(s.state.State())
}

// Update replaces the given settings groups. A database password equal to
// the redaction placeholder keeps the stored password.
func (s *SettingsService) Update(ctx context.Context, update SettingsUpdate) (Settings, error) {
	if update.DB != nil && update.DB.Password == RedactedPassword {
		db := *update.DB
		db.Password = s.state.State().DBSettings.Password
		update.DB = &db
	}
	next, err := s.state.Dispatch(ctx, state.UpdateSettings{
		Theme:  update.Theme,
		AI:     update.AI,
		DB:     update.DB,
		Backup: update.Backup,
	})
	if err != nil {
		return Settings{}, err
	}
	s.logger.Info("settings updated",
		"theme", next.Theme,
		"ai_provider", next.AISettings.Provider,
		"backup_frequency", next.BackupSettings.Frequency,
		"backup_location", next.BackupSettings.Location,
	)
	return settingsOf(next), nil
}

// RedactedPassword replaces a stored database password in Settings views.
const RedactedPassword = "********"

func settingsOf(st domain.AppState) Settings {
	if st.DBSettings.Password != "" {
		st.DBSettings.Password = RedactedPassword
	}
	return Settings{
		Theme:           st.Theme,
		IsSetupComplete: st.IsSetupComplete,
		IsDemoMode:      st.IsDemoMode,
		AI:              st.AISettings,
		DB:              st.DBSettings,
		Backup:          st.BackupSettings,
	}
}
