package backup

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

// Archive file naming.
const (
	filePrefix = "home_librarian_backup_"
	fileSuffix = ".zip"
)

// FileName returns the archive name for a backup taken at t.
func FileName(t time.Time) string {
	return filePrefix + t.UTC().Format("20060102T150405Z") + fileSuffix
}

// IsArchiveName reports whether name looks like one of our archives.
func IsArchiveName(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}

// Info describes a stored archive.
type Info struct {
	Name      string    `json:"name"`
	Target    string    `json:"target"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Target is somewhere archives are kept.
type Target interface {
	// Name is the backup location: local, nas or s3.
	Name() string
	Put(ctx context.Context, name string, data []byte) (Info, error)
	Get(ctx context.Context, name string) ([]byte, error)
	// List returns stored archives, newest first.
	List(ctx context.Context) ([]Info, error)
}

// DirTarget keeps archives in a directory: the local data dir or a mounted NAS share.
type DirTarget struct {
	name string
	dir  string
}

// NewDirTarget creates a directory target.
func NewDirTarget(name, dir string) (*DirTarget, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.Validationf("%s backup directory is not configured", name)
	}
	return &DirTarget{name: name, dir: dir}, nil
}

// Name implements Target.
func (t *DirTarget) Name() string { return t.name }

// Dir returns the backup directory.
func (t *DirTarget) Dir() string { return t.dir }

// Put implements Target. The archive is written to a temp file and renamed so
// a crash never leaves a truncated archive under the final name.
func (t *DirTarget) Put(_ context.Context, name string, data []byte) (Info, error) {
	if err := checkName(name); err != nil {
		return Info{}, err
	}
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return Info{}, errors.Unavailablef("create backup dir %s", t.dir).WithCause(err)
	}

	path := filepath.Join(t.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return Info{}, errors.Unavailablef("write backup %s", name).WithCause(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return Info{}, errors.Unavailablef("write backup %s", name).WithCause(err)
	}
	return t.stat(name)
}

// Get implements Target.
func (t *DirTarget) Get(_ context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(t.dir, name))
	if os.IsNotExist(err) {
		return nil, ErrBackupNotFound.WithDetails(map[string]string{"name": name})
	}
	if err != nil {
		return nil, errors.Unavailablef("read backup %s", name).WithCause(err)
	}
	return data, nil
}

// List implements Target.
func (t *DirTarget) List(_ context.Context) ([]Info, error) {
	entries, err := os.ReadDir(t.dir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, errors.Unavailablef("list backups in %s", t.dir).WithCause(err)
	}

	out := []Info{}
	for _, e := range entries {
		if e.IsDir() || !IsArchiveName(e.Name()) {
			continue
		}
		info, err := t.stat(e.Name())
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	sortNewestFirst(out)
	return out, nil
}

func (t *DirTarget) stat(name string) (Info, error) {
	fi, err := os.Stat(filepath.Join(t.dir, name))
	if err != nil {
		return Info{}, fmt.Errorf("stat backup: %w", err)
	}
	return Info{Name: name, Target: t.name, Size: fi.Size(), CreatedAt: fi.ModTime()}, nil
}

// checkName rejects names that would escape the target.
func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return errors.Validationf("invalid backup name %q", name)
	}
	return nil
}

func sortNewestFirst(infos []Info) {
	slices.SortStableFunc(infos, func(a, b Info) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.Name, a.Name)
	})
}

// Config holds where each backup location lives. NAS paths come from the
// catalog's backup settings; everything else is process configuration.
type Config struct {
	LocalDir string
	S3       S3Config
}

// OpenTarget returns the target selected by settings.
func OpenTarget(ctx context.Context, settings domain.BackupSettings, cfg Config) (Target, error) {
	switch settings.Location {
	case domain.BackupLocal, "":
		return NewDirTarget(domain.BackupLocal, cfg.LocalDir)
	case domain.BackupNAS:
		return NewDirTarget(domain.BackupNAS, settings.NASPath)
	case domain.BackupS3:
		return NewS3Target(ctx, cfg.S3)
	case domain.BackupDrive:
		return nil, errors.Unsupportedf("Google Drive backups are not supported; choose local, nas or s3")
	default:
		return nil, errors.Validationf("unknown backup location %q", settings.Location)
	}
}
