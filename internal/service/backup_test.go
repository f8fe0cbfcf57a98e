package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/homelibrarian/homelibrarian/internal/backup"
	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

func newBackups(t *testing.T, l *testLibrary) *BackupService {
	t.Helper()
	svc := backup.NewService(backup.Config{LocalDir: t.TempDir()}, nil, l.logger)
	return NewBackupService(l.state, l.books, svc, l.ids, l.logger)
}

func TestBackupService_CreateMarksBackedUp(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)
	b := newBackups(t, l)

	res, err := b.Create(context.Background())

	require.NoError(t, err)
	assert.Equal(t, backup.FileName(testNow), res.Info.Name)
	last := l.state.State().BackupSettings.LastBackupDate
	require.NotNil(t, last)
	assert.Equal(t, testNow, *last)
}

func TestBackupService_RunIfDue(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)
	b := newBackups(t, l)
	ctx := context.Background()

	ran, err := b.RunIfDue(ctx)
	require.NoError(t, err)
	assert.True(t, ran, "never backed up")

	l.advance(24 * time.Hour)
	ran, err = b.RunIfDue(ctx)
	require.NoError(t, err)
	assert.False(t, ran, "weekly backup is not due after a day")

	l.advance(6 * 24 * time.Hour)
	ran, err = b.RunIfDue(ctx)
	require.NoError(t, err)
	assert.True(t, ran)

	list, err := b.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBackupService_RestoreKeepsBackupSettings(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)
	b := newBackups(t, l)
	ctx := context.Background()
	addTestBook(t, l, "Dune", "Frank Herbert")

	res, err := b.Create(ctx)
	require.NoError(t, err)

	addTestBook(t, l, "Emma", "Jane Austen")
	daily := domain.BackupSettings{Frequency: domain.BackupDaily, Location: domain.BackupLocal}
	_, err = l.settings.Update(ctx, SettingsUpdate{Backup: &daily})
	require.NoError(t, err)

	restored, err := b.Restore(ctx, res.Info.Name)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Manifest.Counts.Books)

	st := l.state.State()
	require.Len(t, st.Books, 1)
	assert.Equal(t, "Dune", st.Books[0].Title)
	assert.Equal(t, domain.BackupDaily, st.BackupSettings.Frequency)

	_, err = b.Restore(ctx, "home_librarian_backup_20000101T000000Z.zip")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestBackupService_ImportCSV(t *testing.T) {
	l := setupLibrary(t)
	admin, _ := setupFamily(t, l)
	b := newBackups(t, l)

	books, err := b.ImportCSV(context.Background(), strings.NewReader(
		"Title,Author,ISBN\nThe Hobbit,J.R.R. Tolkien,978-0-261-10334-4\nUntitled\n,\n"))

	require.NoError(t, err)
	require.Len(t, books, 2, "single-column rows are skipped")
	assert.Equal(t, "The Hobbit", books[0].Title)
	assert.Equal(t, "9780261103344", books[0].ISBN)
	assert.Equal(t, admin.ID, books[0].AddedByUserID)
	assert.Contains(t, books[0].Tags, backup.ImportTag)
	assert.Equal(t, "Imported Book", books[1].Title)
	assert.Equal(t, "Unknown", books[1].Author)
	assert.Len(t, l.state.State().Books, 2)
}

func TestBackupService_Export(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)
	b := newBackups(t, l)
	ctx := context.Background()
	_, err := l.books.Add(ctx, domain.Book{Title: "Emma", Author: "Jane Austen", LocationID: "loc-1"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, b.Export(&buf, backup.FormatYAML))

	var catalog backup.Catalog
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &catalog))
	require.Len(t, catalog.Books, 1)
	require.Len(t, catalog.Locations, 1)
	assert.Equal(t, "Living Room", catalog.Locations[0].Path)

	assert.True(t, errors.Is(b.Export(&buf, "xml"), errors.ErrValidation))
}
