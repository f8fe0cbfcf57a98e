package backup

import (
	"time"

	"github.com/homelibrarian/homelibrarian/internal/domain"
)

// Due reports whether an automatic backup should run now. Manual backups are
// never due; a library that was never backed up is due straight away.
func Due(settings domain.BackupSettings, now time.Time) bool {
	var every time.Duration
	switch settings.Frequency {
	case domain.BackupDaily:
		every = 24 * time.Hour
	case domain.BackupWeekly:
		every = 7 * 24 * time.Hour
	default:
		return false
	}
	if settings.LastBackupDate == nil {
		return true
	}
	return now.Sub(*settings.LastBackupDate) >= every
}

// NextDue returns when the next automatic backup falls due, or the zero time
// for manual backups.
func NextDue(settings domain.BackupSettings, now time.Time) time.Time {
	switch {
	case settings.Frequency != domain.BackupDaily && settings.Frequency != domain.BackupWeekly:
		return time.Time{}
	case settings.LastBackupDate == nil:
		return now
	case settings.Frequency == domain.BackupDaily:
		return settings.LastBackupDate.Add(24 * time.Hour)
	default:
		return settings.LastBackupDate.Add(7 * 24 * time.Hour)
	}
}
