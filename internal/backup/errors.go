// Package backup archives the catalog and restores it, and moves books in and
// out of the catalog as CSV, YAML and JSON.
package backup

import "github.com/homelibrarian/homelibrarian/internal/errors"

var (
	// ErrInvalidManifest indicates the manifest is missing or malformed.
	ErrInvalidManifest = errors.Validation("invalid or missing backup manifest")

	// ErrVersionMismatch indicates the backup format is not supported.
	ErrVersionMismatch = errors.Validation("backup format version not supported")

	// ErrCorruptedBackup indicates the backup failed integrity checks.
	ErrCorruptedBackup = errors.Validation("backup integrity check failed")

	// ErrBackupNotFound indicates the requested backup does not exist.
	ErrBackupNotFound = errors.NotFound("backup not found")
)
