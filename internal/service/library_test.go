package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/location"
)

func TestBookService_AddFillsDefaults(t *testing.T) {
	l := setupLibrary(t)
	admin, _ := setupFamily(t, l)

	b := addTestBook(t, l, "  The Hobbit ", "J.R.R. Tolkien")

	assert.Equal(t, "book-1", b.ID)
	assert.Equal(t, "The Hobbit", b.Title)
	assert.Equal(t, admin.ID, b.AddedByUserID)
	assert.Equal(t, testNow, b.AddedDate)
	assert.Equal(t, domain.ConditionGood, b.Condition)
	assert.Equal(t, domain.StatusUnread, b.Status)
	assert.Contains(t, b.AmazonLink, "amazon")
}

func TestBookService_AddRejectsMissingTitle(t *testing.T) {
	l := setupLibrary(t)

	_, err := l.books.Add(context.Background(), domain.Book{Author: "Nobody"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestBookService_Place(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)
	ctx := context.Background()
	_, err := l.locations.Add(ctx, LocationInput{Name: "Shelf A", Parent: "Living Room"})
	require.NoError(t, err)
	b := addTestBook(t, l, "Dune", "Frank Herbert")

	view, err := l.books.Place(ctx, b.ID, "living-room/shelf-a")
	require.NoError(t, err)
	assert.Equal(t, "Living Room > Shelf A", view.Location)

	view, err = l.books.Place(ctx, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, location.Unassigned, view.Location)

	_, err = l.books.Place(ctx, b.ID, "Garage")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestBookService_DeleteBlockedByActiveLoan(t *testing.T) {
	l := setupLibrary(t)
	admin, _ := setupFamily(t, l)
	ctx := context.Background()
	b := addTestBook(t, l, "Dune", "Frank Herbert")
	require.NoError(t, recordFavorite(l, admin.ID, b.ID))
	loan, err := l.loans.Lend(ctx, LendInput{BookID: b.ID, BorrowerName: "Ravi"})
	require.NoError(t, err)

	err = l.books.Delete(ctx, b.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	_, err = l.loans.Return(ctx, loan.ID)
	require.NoError(t, err)
	require.NoError(t, l.books.Delete(ctx, b.ID))

	st := l.state.State()
	assert.Empty(t, st.Books)
	assert.Len(t, st.Loans, 1, "returned loans stay in the ledger")
	u, _ := st.FindUser(admin.ID)
	assert.Empty(t, u.Favorites)
}

func recordFavorite(l *testLibrary, userID, bookID string) error {
	_, err := l.users.ToggleFavorite(context.Background(), userID, bookID)
	return err
}

func TestBookService_ListFilters(t *testing.T) {
	l := setupLibrary(t)
	_, child := setupFamily(t, l)
	ctx := context.Background()

	room, err := l.locations.Resolve("Living Room")
	require.NoError(t, err)
	shelf, err := l.locations.Add(ctx, LocationInput{Name: "Shelf A", Parent: room.ID})
	require.NoError(t, err)

	_, err = l.books.Add(ctx, domain.Book{Title: "Zen and the Art", Author: "Pirsig", LocationID: shelf.ID, Genres: []string{"Philosophy"}})
	require.NoError(t, err)
	_, err = l.books.Add(ctx, domain.Book{Title: "Gone Girl", Author: "Gillian Flynn", MinAge: intPtr(16), Genres: []string{"Thriller"}})
	require.NoError(t, err)
	_, err = l.books.Add(ctx, domain.Book{Title: "Matilda", Author: "Roald Dahl", LocationID: room.ID, MinAge: intPtr(7)})
	require.NoError(t, err)

	titles := func(f BookFilter) []string {
		t.Helper()
		views, err := l.books.List(f)
		require.NoError(t, err)
		out := make([]string, 0, len(views))
		for _, v := range views {
			out = append(out, v.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Gone Girl", "Matilda", "Zen and the Art"}, titles(BookFilter{}))
	assert.Equal(t, []string{"Matilda", "Zen and the Art"}, titles(BookFilter{LocationID: room.ID}))
	assert.Equal(t, []string{"Gone Girl"}, titles(BookFilter{Unassigned: true}))
	assert.Equal(t, []string{"Zen and the Art"}, titles(BookFilter{Genre: "philosophy"}))
	assert.Equal(t, []string{"Matilda", "Zen and the Art"}, titles(BookFilter{ForUserID: child.ID}))

	_, err = l.books.List(BookFilter{LocationID: "loc-404"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestBookService_ImportIsAllOrNothing(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)

	_, err := l.books.Import(context.Background(), []domain.Book{
		{Title: "Good Row", Author: "A"},
		{Title: "", Author: "B"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Empty(t, l.state.State().Books)
}

func TestBookService_LoadStarterPack(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)

	books, err := l.books.LoadStarterPack(context.Background())

	require.NoError(t, err)
	require.NotEmpty(t, books)
	assert.Len(t, l.state.State().Books, len(domain.StarterBooks))
	for _, b := range books {
		assert.Equal(t, "loc-1", b.LocationID)
	}
}

func TestLocationService_AddAndList(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)
	ctx := context.Background()

	shelf, err := l.locations.Add(ctx, LocationInput{Name: "Shelf A", Parent: "Living Room"})
	require.NoError(t, err)
	assert.Equal(t, domain.LocationShelf, shelf.Type)
	assert.Equal(t, "loc-1", shelf.ParentID)

	_, err = l.books.Add(ctx, domain.Book{Title: "Emma", Author: "Jane Austen", LocationID: shelf.ID})
	require.NoError(t, err)

	views := l.locations.List()
	require.Len(t, views, 2)
	assert.Equal(t, "Living Room", views[0].Path)
	assert.Equal(t, 0, views[0].Depth)
	assert.Equal(t, 0, views[0].Books)
	assert.Equal(t, 1, views[0].TotalBooks)
	assert.Equal(t, "Living Room > Shelf A", views[1].Path)
	assert.Equal(t, 1, views[1].Depth)
	assert.Equal(t, 1, views[1].Books)
}

func TestLocationService_AddRejectsBlankName(t *testing.T) {
	l := setupLibrary(t)

	_, err := l.locations.Add(context.Background(), LocationInput{Name: "   "})

	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestLocationService_MoveRejectsCycle(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)
	ctx := context.Background()
	shelf, err := l.locations.Add(ctx, LocationInput{Name: "Shelf A", Parent: "Living Room"})
	require.NoError(t, err)

	_, err = l.locations.Move(ctx, "Living Room", shelf.ID)

	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestLocationService_DeletePromotesChildren(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)
	ctx := context.Background()
	shelf, err := l.locations.Add(ctx, LocationInput{Name: "Shelf A", Parent: "Living Room"})
	require.NoError(t, err)
	b, err := l.books.Add(ctx, domain.Book{Title: "Emma", Author: "Jane Austen", LocationID: "loc-1"})
	require.NoError(t, err)

	require.NoError(t, l.locations.Delete(ctx, "Living Room"))

	st := l.state.State()
	require.Len(t, st.Locations, 1)
	assert.Equal(t, shelf.ID, st.Locations[0].ID)
	assert.True(t, st.Locations[0].IsRoot())
	got, _ := st.FindBook(b.ID)
	assert.False(t, got.IsPlaced())
}

func TestLocationService_RenameAndImage(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)
	ctx := context.Background()

	renamed, err := l.locations.Rename(ctx, "living room", "Lounge")
	require.NoError(t, err)
	assert.Equal(t, "Lounge", renamed.Name)

	withImage, err := l.locations.SetImage(ctx, "Lounge", "https://example.com/shelf.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/shelf.jpg", withImage.ImageURL)

	view, books, err := l.locations.Get("Lounge")
	require.NoError(t, err)
	assert.Equal(t, "Lounge", view.Path)
	assert.Empty(t, books)
}

func TestLoanService_Lifecycle(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)
	ctx := context.Background()
	b := addTestBook(t, l, "Dune", "Frank Herbert")

	loan, err := l.loans.Lend(ctx, LendInput{BookID: b.ID, BorrowerName: " Ravi "})
	require.NoError(t, err)
	assert.Equal(t, "Ravi", loan.BorrowerName)
	assert.Equal(t, testNow, loan.LoanDate)

	_, err = l.loans.Lend(ctx, LendInput{BookID: b.ID, BorrowerName: "Meera"})
	assert.True(t, errors.Is(err, errors.ErrConflict), "a book is out on one loan at a time")

	l.advance(31 * 24 * time.Hour)
	ledger := l.loans.Ledger()
	require.Len(t, ledger.Active, 1)
	require.Len(t, ledger.Overdue, 1)
	assert.Equal(t, domain.LoanOverdue, ledger.Overdue[0].Status)
	assert.Equal(t, "Dune", ledger.Overdue[0].BookTitle)
	assert.Equal(t, 31, ledger.Overdue[0].DaysOut)

	returned, err := l.loans.Return(ctx, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, *l.now, *returned.ReturnDate)

	_, err = l.loans.Return(ctx, loan.ID)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	ledger = l.loans.Ledger()
	assert.Empty(t, ledger.Active)
	require.Len(t, ledger.History, 1)
	assert.Equal(t, domain.LoanReturned, ledger.History[0].Status)
}

func TestLoanService_LendUnknownBook(t *testing.T) {
	l := setupLibrary(t)

	_, err := l.loans.Lend(context.Background(), LendInput{BookID: "book-404", BorrowerName: "Ravi"})

	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUserService_SetupTwiceConflicts(t *testing.T) {
	l := setupLibrary(t)
	admin, _ := setupFamily(t, l)

	st := l.state.State()
	assert.True(t, st.IsSetupComplete)
	assert.Equal(t, admin.ID, st.CurrentUser)

	_, err := l.users.Setup(context.Background(), SetupInput{
		Family: []domain.User{{Name: "Other", DOB: "1980-01-01", Role: domain.RoleAdmin}},
	})
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestUserService_SetupRequiresAdmin(t *testing.T) {
	l := setupLibrary(t)

	_, err := l.users.Setup(context.Background(), SetupInput{
		Family: []domain.User{{Name: "Kabir", DOB: "2016-09-10"}},
	})

	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.False(t, l.state.State().IsSetupComplete)
}

func TestUserService_AdminMustBeAdult(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)

	_, err := l.users.Add(context.Background(), domain.User{Name: "Teen", DOB: "2010-01-01", Role: domain.RoleAdmin})

	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestUserService_LastAdminCannotBeDemoted(t *testing.T) {
	l := setupLibrary(t)
	admin, _ := setupFamily(t, l)

	admin.Role = domain.RoleUser
	_, err := l.users.Update(context.Background(), admin)

	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestUserService_ProfileDerivesAge(t *testing.T) {
	l := setupLibrary(t)
	_, child := setupFamily(t, l)

	p, err := l.users.Get("kabir")

	require.NoError(t, err)
	assert.Equal(t, child.ID, p.ID)
	require.NotNil(t, p.Age)
	assert.Equal(t, 9, *p.Age)
	assert.NotEmpty(t, p.Grade)
}

func TestUserService_SwitchAndCurrent(t *testing.T) {
	l := setupLibrary(t)
	_, child := setupFamily(t, l)
	ctx := context.Background()

	p, err := l.users.Switch(ctx, "KABIR")
	require.NoError(t, err)
	assert.Equal(t, child.ID, p.ID)

	current, ok := l.users.Current()
	require.True(t, ok)
	assert.Equal(t, child.ID, current.ID)

	_, err = l.users.Switch(ctx, "Nobody")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUserService_List(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)
	_, err := l.users.Add(context.Background(), domain.User{Name: "Anu", DOB: "2012-02-02"})
	require.NoError(t, err)

	var names []string
	for _, p := range l.users.List() {
		names = append(names, p.Name)
	}

	assert.Equal(t, []string{"Asha", "Anu", "Kabir"}, names)
}

func TestUserService_RecordReadingAndFavorites(t *testing.T) {
	l := setupLibrary(t)
	_, child := setupFamily(t, l)
	ctx := context.Background()
	b := addTestBook(t, l, "Matilda", "Roald Dahl")

	entry, err := l.users.RecordReading(ctx, child.ID, b.ID, domain.StatusCompleted, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, entry.Status)
	assert.Equal(t, 5, entry.Rating)
	assert.Equal(t, 1, entry.ReadCount)
	require.NotNil(t, entry.DateFinished)
	assert.Equal(t, testNow, *entry.DateFinished)

	_, err = l.users.RecordReading(ctx, child.ID, b.ID, domain.StatusCompleted, 6)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	fav, err := l.users.ToggleFavorite(ctx, child.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, fav)
	fav, err = l.users.ToggleFavorite(ctx, child.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, fav)
}

func TestSettingsService_RedactsPassword(t *testing.T) {
	l := setupLibrary(t)
	ctx := context.Background()

	got, err := l.settings.Update(ctx, SettingsUpdate{DB: &domain.DBSettings{
		Type: "postgres", Host: "db.local", User: "lib", Password: "s3cret", Name: "homelibrary",
	}})
	require.NoError(t, err)
	assert.Equal(t, RedactedPassword, got.DB.Password)
	assert.Equal(t, "s3cret", l.state.State().DBSettings.Password)

	db := got.DB
	db.Host = "db2.local"
	_, err = l.settings.Update(ctx, SettingsUpdate{DB: &db})
	require.NoError(t, err)
	stored := l.state.State().DBSettings
	assert.Equal(t, "db2.local", stored.Host)
	assert.Equal(t, "s3cret", stored.Password)
}

func TestSettingsService_Validation(t *testing.T) {
	l := setupLibrary(t)
	ctx := context.Background()

	bad := domain.Theme("neon")
	_, err := l.settings.Update(ctx, SettingsUpdate{Theme: &bad})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = l.settings.Update(ctx, SettingsUpdate{Backup: &domain.BackupSettings{Frequency: domain.BackupDaily, Location: domain.BackupNAS}})
	assert.True(t, errors.Is(err, errors.ErrValidation), "NAS backups need a path")

	light := domain.ThemeLight
	got, err := l.settings.Update(ctx, SettingsUpdate{Theme: &light})
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, got.Theme)
	assert.Equal(t, domain.DefaultAISettings, got.AI)
}
