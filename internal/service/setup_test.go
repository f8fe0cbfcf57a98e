package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/id"
	"github.com/homelibrarian/homelibrarian/internal/store"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// testLibrary bundles the services over one in-memory catalog.
type testLibrary struct {
	store     *store.MemoryStore
	state     *StateService
	ids       id.Generator
	books     *BookService
	locations *LocationService
	loans     *LoanService
	users     *UserService
	settings  *SettingsService
	logger    *slog.Logger
	now       *time.Time
}

func setupLibrary(t *testing.T) *testLibrary {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	now := testNow
	mem := store.NewMemory()
	st := NewStateService(mem, StateOptions{Clock: func() time.Time { return now }}, logger)
	st.Load(context.Background())
	ids := id.Sequence()

	return &testLibrary{
		store:     mem,
		state:     st,
		ids:       ids,
		books:     NewBookService(st, ids, logger),
		locations: NewLocationService(st, ids, logger),
		loans:     NewLoanService(st, ids, logger),
		users:     NewUserService(st, ids, logger),
		settings:  NewSettingsService(st, logger),
		logger:    logger,
		now:       &now,
	}
}

// advance moves the library clock forward.
func (l *testLibrary) advance(d time.Duration) {
	*l.now = l.now.Add(d)
}

// setupFamily completes onboarding with an adult admin, a nine-year-old and
// one room.
func setupFamily(t *testing.T, l *testLibrary) (admin, child domain.User) {
	t.Helper()
	st, err := l.users.Setup(context.Background(), SetupInput{
		Family: []domain.User{
			{Name: "Asha", DOB: "1985-06-01", Role: domain.RoleAdmin},
			{Name: "Kabir", DOB: "2016-09-10"},
		},
		Rooms: []string{"Living Room"},
	})
	require.NoError(t, err)
	require.Len(t, st.Users, 2)
	return st.Users[0], st.Users[1]
}

func addTestBook(t *testing.T, l *testLibrary, title, author string) domain.Book {
	t.Helper()
	b, err := l.books.Add(context.Background(), domain.Book{Title: title, Author: author})
	require.NoError(t, err)
	return b
}

func intPtr(v int) *int { return &v }
