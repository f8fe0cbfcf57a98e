package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

func TestFileName(t *testing.T) {
	name := FileName(testNow)
	assert.Equal(t, "home_librarian_backup_20260314T093000Z.zip", name)
	assert.True(t, IsArchiveName(name))
	assert.False(t, IsArchiveName("notes.zip"))
}

func TestDirTarget(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "backups")
	target, err := NewDirTarget(domain.BackupLocal, dir)
	require.NoError(t, err)

	list, err := target.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	older := FileName(testNow.Add(-time.Hour))
	newer := FileName(testNow)
	_, err = target.Put(ctx, older, []byte("one"))
	require.NoError(t, err)
	require.NoError(t, os.Chtimes(filepath.Join(dir, older), testNow.Add(-time.Hour), testNow.Add(-time.Hour)))
	info, err := target.Put(ctx, newer, []byte("two!"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size)
	assert.Equal(t, domain.BackupLocal, info.Target)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o600))

	list, err = target.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer, list[0].Name)
	assert.Equal(t, older, list[1].Name)

	data, err := target.Get(ctx, older)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)

	_, err = target.Get(ctx, FileName(testNow.Add(time.Hour)))
	assert.True(t, errors.Is(err, ErrBackupNotFound))

	_, err = target.Get(ctx, "../etc/passwd")
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}

func TestOpenTarget(t *testing.T) {
	ctx := context.Background()
	cfg := Config{LocalDir: t.TempDir()}

	local, err := OpenTarget(ctx, domain.BackupSettings{Location: domain.BackupLocal}, cfg)
	require.NoError(t, err)
	assert.Equal(t, domain.BackupLocal, local.Name())

	nas, err := OpenTarget(ctx, domain.BackupSettings{Location: domain.BackupNAS, NASPath: t.TempDir()}, cfg)
	require.NoError(t, err)
	assert.Equal(t, domain.BackupNAS, nas.Name())

	_, err = OpenTarget(ctx, domain.BackupSettings{Location: domain.BackupNAS}, cfg)
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	_, err = OpenTarget(ctx, domain.BackupSettings{Location: domain.BackupDrive}, cfg)
	assert.Equal(t, errors.CodeUnsupported, errors.CodeOf(err))

	_, err = OpenTarget(ctx, domain.BackupSettings{Location: domain.BackupS3}, cfg)
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}
