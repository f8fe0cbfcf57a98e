package backup

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/schema"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func sampleState() domain.AppState {
	st := domain.DefaultState()
	st.IsSetupComplete = true
	st.Locations = []domain.Location{
		{ID: "loc-1", Name: "Living Room", Type: domain.LocationRoom},
		{ID: "loc-2", Name: "Shelf A", Type: domain.LocationShelf, ParentID: "loc-1"},
	}
	st.Books = []domain.Book{{
		ID: "book-1", Title: "Pride and Prejudice", Author: "Jane Austen",
		Genres: []string{"Classic"}, Tags: []string{}, Condition: domain.ConditionGood,
		Status: domain.StatusUnread, LocationID: "loc-2", AddedDate: testNow,
	}}
	st.Users = []domain.User{{
		ID: "user-1", Name: "Asha", DOB: "1985-06-01", Role: domain.RoleAdmin,
		History: []domain.ReadEntry{}, Favorites: []string{"book-1"},
	}}
	st.CurrentUser = "user-1"
	st.Loans = []domain.Loan{{ID: "loan-1", BookID: "book-1", BorrowerName: "Ravi", LoanDate: testNow.AddDate(0, 0, -40)}}
	return st
}

func TestArchive_RoundTrip(t *testing.T) {
	st := sampleState()

	var buf bytes.Buffer
	m, err := WriteArchive(&buf, st, testNow)
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, m.Version)
	assert.NotEmpty(t, m.BackupID)
	assert.Equal(t, testNow, m.CreatedAt)
	assert.Equal(t, schema.CurrentVersion, m.SchemaVersion)
	assert.Equal(t, Counts{Books: 1, Users: 1, Locations: 2, Loans: 1}, m.Counts)
	assert.Len(t, m.Checksum, 64)

	restored, err := ReadArchive(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, m, restored.Manifest)
	assert.False(t, restored.Report.Migrated())
	assert.Equal(t, st, restored.State)
}

func TestReadArchive_UpgradesOldLibraries(t *testing.T) {
	// A library saved before database and backup settings existed.
	old := []byte(`{"isSetupComplete":true,"books":[],"users":[],"locations":[{"id":"loc-1","name":"Study","type":"Room"}],"loans":[],"currentUser":"","theme":"light","aiSettings":{"provider":"ollama","ollamaUrl":"http://nas:11434","ollamaModel":"llava"}}`)
	manifest, _ := json.Marshal(Manifest{Version: FormatVersion, BackupID: "b-1", CreatedAt: testNow})

	restored, err := ReadArchive(zipOf(t, map[string][]byte{libraryFile: old, manifestFile: manifest}))
	require.NoError(t, err)

	assert.Equal(t, 0, restored.Report.From)
	assert.Equal(t, schema.CurrentVersion, restored.Report.To)
	assert.Equal(t, domain.DefaultBackupSettings, restored.State.BackupSettings)
	assert.Equal(t, domain.DefaultDBSettings, restored.State.DBSettings)
	assert.Equal(t, domain.ThemeLight, restored.State.Theme)
	assert.Equal(t, "llava", restored.State.AISettings.OllamaModel)
}

func TestReadArchive_Rejects(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteArchive(&buf, sampleState(), testNow)
	require.NoError(t, err)
	good, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	doc, err := readEntry(good, libraryFile)
	require.NoError(t, err)
	manifest, err := readEntry(good, manifestFile)
	require.NoError(t, err)

	wrongVersion, _ := json.Marshal(Manifest{Version: "9.0"})

	tests := []struct {
		name string
		data []byte
	}{
		{"not a zip", []byte("hello")},
		{"missing manifest", zipOf(t, map[string][]byte{libraryFile: doc})},
		{"bad manifest", zipOf(t, map[string][]byte{libraryFile: doc, manifestFile: []byte("{")})},
		{"unsupported version", zipOf(t, map[string][]byte{libraryFile: doc, manifestFile: wrongVersion})},
		{"missing library", zipOf(t, map[string][]byte{manifestFile: manifest})},
		{"tampered library", zipOf(t, map[string][]byte{libraryFile: bytes.Replace(doc, []byte("Ravi"), []byte("Eve!"), 1), manifestFile: manifest})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadArchive(tt.data)
			require.Error(t, err)
			assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
		})
	}
}

func zipOf(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
