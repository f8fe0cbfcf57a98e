package backup

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/schema"
)

// maxEntrySize bounds how much of one archive entry is read.
const maxEntrySize = 64 << 20

// WriteArchive writes st to w as a zip holding library.json and manifest.json.
func WriteArchive(w io.Writer, st domain.AppState, createdAt time.Time) (Manifest, error) {
	doc, err := schema.Encode(st)
	if err != nil {
		return Manifest{}, fmt.Errorf("encode library: %w", err)
	}
	sum := sha256.Sum256(doc)

	m := Manifest{
		Version:       FormatVersion,
		BackupID:      uuid.NewString(),
		CreatedAt:     createdAt.UTC(),
		SchemaVersion: schema.CurrentVersion,
		Checksum:      hex.EncodeToString(sum[:]),
		Counts:        CountsOf(&st),
	}

	zw := zip.NewWriter(w)
	lw, err := zw.Create(libraryFile)
	if err != nil {
		return Manifest{}, fmt.Errorf("create %s: %w", libraryFile, err)
	}
	if _, err := lw.Write(doc); err != nil {
		return Manifest{}, fmt.Errorf("write %s: %w", libraryFile, err)
	}

	// Manifest last: it carries the final checksum and counts.
	mw, err := zw.Create(manifestFile)
	if err != nil {
		return Manifest{}, fmt.Errorf("create %s: %w", manifestFile, err)
	}
	enc := json.NewEncoder(mw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return Manifest{}, fmt.Errorf("write %s: %w", manifestFile, err)
	}

	if err := zw.Close(); err != nil {
		return Manifest{}, fmt.Errorf("close zip: %w", err)
	}
	return m, nil
}

// Restored is the outcome of reading an archive.
type Restored struct {
	State    domain.AppState `json:"-"`
	Manifest Manifest        `json:"manifest"`
	Report   schema.Report   `json:"report"`
}

// ReadArchive validates an archive and decodes its library. Older libraries
// are upgraded through the schema chain.
func ReadArchive(data []byte) (*Restored, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, ErrCorruptedBackup.WithCause(err)
	}

	raw, err := readEntry(zr, manifestFile)
	if err != nil {
		return nil, ErrInvalidManifest.WithCause(err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, ErrInvalidManifest.WithCause(err)
	}
	if m.Version != FormatVersion {
		return nil, errors.Validationf("backup format %q is not supported (want %s)", m.Version, FormatVersion)
	}

	doc, err := readEntry(zr, libraryFile)
	if err != nil {
		return nil, ErrCorruptedBackup.WithCause(err)
	}
	sum := sha256.Sum256(doc)
	if m.Checksum != "" && m.Checksum != hex.EncodeToString(sum[:]) {
		return nil, ErrCorruptedBackup.WithCause(fmt.Errorf("checksum mismatch for %s", libraryFile))
	}

	st, report, err := schema.Decode(doc)
	if err != nil {
		return nil, ErrCorruptedBackup.WithCause(err)
	}
	return &Restored{State: st, Manifest: m, Report: report}, nil
}

func readEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(io.LimitReader(rc, maxEntrySize))
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}
