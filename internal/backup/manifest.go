package backup

import (
	"time"

	"github.com/homelibrarian/homelibrarian/internal/domain"
)

// FormatVersion is the archive format version. Increment major on breaking changes.
const FormatVersion = "1.0"

// Archive entry names.
const (
	manifestFile = "manifest.json"
	libraryFile  = "library.json"
)

// Manifest describes an archive's contents.
type Manifest struct {
	Version       string    `json:"version"`
	BackupID      string    `json:"backupId"`
	CreatedAt     time.Time `json:"createdAt"`
	SchemaVersion int       `json:"schemaVersion"` // Of library.json
	Checksum      string    `json:"checksum"`      // SHA-256 of library.json
	Counts        Counts    `json:"counts"`
}

// Counts tracks record counts for display and validation.
type Counts struct {
	Books     int `json:"books"`
	Users     int `json:"users"`
	Locations int `json:"locations"`
	Loans     int `json:"loans"`
}

// CountsOf counts the records in st.
func CountsOf(st *domain.AppState) Counts {
	return Counts{
		Books:     len(st.Books),
		Users:     len(st.Users),
		Locations: len(st.Locations),
		Loans:     len(st.Loans),
	}
}
