package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

func TestAddUser(t *testing.T) {
	s := mustReduce(t, fixture(), AddUser{User: domain.User{ID: "user-3", Name: "Kabir", DOB: "2019-07-30"}, At: t0})

	u, ok := s.FindUser("user-3")
	require.True(t, ok)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.Equal(t, "Kabir", u.AvatarSeed)
	assert.NotNil(t, u.History)
	assert.NotNil(t, u.Favorites)

	p := domain.NewProfile(u, t0)
	require.NotNil(t, p.Age)
	assert.Equal(t, 5, *p.Age)
	assert.Equal(t, "Kindergarten", p.Grade)
}

func TestAddUser_Rejections(t *testing.T) {
	s := fixture()

	tests := []struct {
		name  string
		user  domain.User
		field string
	}{
		{"future dob", domain.User{ID: "u", Name: "Soon", DOB: "2025-03-02"}, "dob"},
		{"underage admin", domain.User{ID: "u", Name: "Teen", DOB: "2010-01-01", Role: domain.RoleAdmin}, "role"},
		{"missing name", domain.User{ID: "u", DOB: "2010-01-01"}, "name"},
		{"bad dob", domain.User{ID: "u", Name: "X", DOB: "yesterday"}, "dob"},
		{"unknown role", domain.User{ID: "u", Name: "X", DOB: "2010-01-01", Role: "Owner"}, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := requireRejected(t, s, AddUser{User: tt.user, At: t0}, errors.CodeValidation)
			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Contains(t, domainErr.Details, tt.field)
		})
	}

	requireRejected(t, s, AddUser{User: domain.User{ID: "user-kid", Name: "Dup", DOB: "2010-01-01"}, At: t0}, errors.CodeAlreadyExists)
}

func TestAddUser_AdminTurningEighteenToday(t *testing.T) {
	s := mustReduce(t, fixture(), AddUser{User: domain.User{ID: "u", Name: "Dev", DOB: "2007-03-01", Role: domain.RoleAdmin}, At: t0})

	u, _ := s.FindUser("u")
	assert.True(t, u.IsAdmin())
}

func TestUpdateUser(t *testing.T) {
	s := mustReduce(t, fixture(),
		RecordReading{UserID: "user-kid", BookID: "book-2", Status: domain.StatusReading, At: t0},
		UpdateUser{User: domain.User{ID: "user-kid", Name: "Anya R", DOB: "2015-01-01", Role: domain.RoleUser}, At: t0},
	)

	u, _ := s.FindUser("user-kid")
	assert.Equal(t, "Anya R", u.Name)
	assert.Len(t, u.History, 1, "history kept")
	assert.Equal(t, []string{"book-1"}, u.Favorites)
}

func TestUpdateUser_LastAdminCannotBeDemoted(t *testing.T) {
	s := fixture()
	demoted := domain.User{ID: "user-admin", Name: "Ravi", DOB: "1985-04-12", Role: domain.RoleUser}

	requireRejected(t, s, UpdateUser{User: demoted, At: t0}, errors.CodeConflict)
}

func TestSetCurrentUser(t *testing.T) {
	s := mustReduce(t, fixture(), SetCurrentUser{ID: "user-kid"})
	assert.Equal(t, "user-kid", s.CurrentUser)

	s = mustReduce(t, s, SetCurrentUser{ID: ""})
	_, ok := s.ActiveUser()
	assert.False(t, ok)

	requireRejected(t, s, SetCurrentUser{ID: "user-gone"}, errors.CodeNotFound)
}

func TestRecordReading(t *testing.T) {
	finished := t0.Add(72 * time.Hour)
	s := mustReduce(t, fixture(),
		RecordReading{UserID: "user-kid", BookID: "book-1", Status: domain.StatusReading, At: t0},
		RecordReading{UserID: "user-kid", BookID: "book-1", Status: domain.StatusCompleted, Rating: 5, At: finished},
	)

	u, _ := s.FindUser("user-kid")
	require.Len(t, u.History, 1)
	e := u.History[0]
	assert.Equal(t, domain.StatusCompleted, e.Status)
	assert.Equal(t, 5, e.Rating)
	assert.Equal(t, 1, e.ReadCount)
	require.NotNil(t, e.DateFinished)
	assert.Equal(t, finished, *e.DateFinished)
	assert.True(t, u.HasCompleted("book-1"))

	s = mustReduce(t, s,
		RecordReading{UserID: "user-kid", BookID: "book-1", Status: domain.StatusReading, At: finished},
		RecordReading{UserID: "user-kid", BookID: "book-1", Status: domain.StatusCompleted, At: finished.Add(time.Hour)},
	)
	u, _ = s.FindUser("user-kid")
	assert.Equal(t, 2, u.History[0].ReadCount, "re-reads are counted")
	assert.Equal(t, 5, u.History[0].Rating, "zero rating keeps the previous one")

	requireRejected(t, s, RecordReading{UserID: "user-kid", BookID: "book-1", Status: "Skimmed", At: t0}, errors.CodeValidation)
	requireRejected(t, s, RecordReading{UserID: "user-kid", BookID: "book-1", Status: domain.StatusReading, Rating: 6, At: t0}, errors.CodeValidation)
	requireRejected(t, s, RecordReading{UserID: "user-kid", BookID: "book-9", Status: domain.StatusReading, At: t0}, errors.CodeNotFound)
}

func TestToggleFavorite(t *testing.T) {
	s := mustReduce(t, fixture(), ToggleFavorite{UserID: "user-admin", BookID: "book-2"})
	u, _ := s.FindUser("user-admin")
	assert.True(t, u.IsFavorite("book-2"))

	s = mustReduce(t, s, ToggleFavorite{UserID: "user-admin", BookID: "book-2"})
	u, _ = s.FindUser("user-admin")
	assert.False(t, u.IsFavorite("book-2"))

	requireRejected(t, s, ToggleFavorite{UserID: "user-admin", BookID: "book-9"}, errors.CodeNotFound)
}

func TestSetPersonas(t *testing.T) {
	personas := []domain.Persona{{Universe: "Harry Potter", Character: "Hermione Granger", Reason: "Reads everything"}}
	s := mustReduce(t, fixture(), SetPersonas{UserID: "user-kid", Personas: personas})

	u, _ := s.FindUser("user-kid")
	assert.Equal(t, personas, u.Personas)
}
