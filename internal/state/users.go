package state

import (
	"slices"
	"strings"
	"time"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

// AddUser adds a household member. At is "today" for the DOB checks.
type AddUser struct {
	User domain.User
	At   time.Time
}

// Name implements Action.
func (AddUser) Name() string { return "user.add" }

func (a AddUser) apply(s *domain.AppState) error {
	u, err := prepareUser(a.User, a.At)
	if err != nil {
		return err
	}
	if userIndex(s, u.ID) >= 0 {
		return errors.AlreadyExistsf("user %s already exists", u.ID)
	}
	u.History = []domain.ReadEntry{}
	u.Favorites = []string{}
	s.Users = append(s.Users, u)
	return nil
}

// UpdateUser edits a member's profile. Reading history, favorites and personas
// are changed through their own actions and are kept as they are.
type UpdateUser struct {
	User domain.User
	At   time.Time
}

// Name implements Action.
func (UpdateUser) Name() string { return "user.update" }

func (a UpdateUser) apply(s *domain.AppState) error {
	i := userIndex(s, a.User.ID)
	if i < 0 {
		return errors.NotFoundf("user %s not found", a.User.ID)
	}
	u, err := prepareUser(a.User, a.At)
	if err != nil {
		return err
	}
	current := s.Users[i]
	if current.IsAdmin() && !u.IsAdmin() && countAdmins(s) == 1 {
		return errors.Conflictf("%s is the only admin; promote someone else first", current.Name)
	}
	u.History = current.History
	u.Favorites = current.Favorites
	u.Personas = current.Personas
	s.Users[i] = u
	return nil
}

// SetCurrentUser switches the active member. An empty ID signs out.
type SetCurrentUser struct {
	ID string
}

// Name implements Action.
func (SetCurrentUser) Name() string { return "user.switch" }

func (a SetCurrentUser) apply(s *domain.AppState) error {
	if a.ID != "" && userIndex(s, a.ID) < 0 {
		return errors.NotFoundf("user %s not found", a.ID)
	}
	s.CurrentUser = a.ID
	return nil
}

// RecordReading sets a member's status for a book. Marking a book Completed
// stamps the finish date and counts the read.
type RecordReading struct {
	UserID string
	BookID string
	Status domain.ReadStatus
	Rating int // 1-5; 0 keeps the current rating
	At     time.Time
}

// Name implements Action.
func (RecordReading) Name() string { return "user.read" }

func (a RecordReading) apply(s *domain.AppState) error {
	i := userIndex(s, a.UserID)
	if i < 0 {
		return errors.NotFoundf("user %s not found", a.UserID)
	}
	if bookIndex(s, a.BookID) < 0 {
		return errors.NotFoundf("book %s not found", a.BookID)
	}
	if !a.Status.Valid() {
		return errors.ValidationWithDetails("validation failed", map[string]string{"status": "must be one of: Unread, Reading, Completed, Did Not Finish, Wishlist"})
	}
	if a.Rating < 0 || a.Rating > 5 {
		return errors.ValidationWithDetails("validation failed", map[string]string{"rating": "must be between 1 and 5"})
	}

	u := &s.Users[i]
	j := slices.IndexFunc(u.History, func(e domain.ReadEntry) bool { return e.BookID == a.BookID })
	if j < 0 {
		u.History = append(u.History, domain.ReadEntry{BookID: a.BookID})
		j = len(u.History) - 1
	}
	e := &u.History[j]
	if a.Status == domain.StatusCompleted && e.Status != domain.StatusCompleted {
		at := a.At
		e.DateFinished = &at
		e.ReadCount++
	}
	e.Status = a.Status
	if a.Rating > 0 {
		e.Rating = a.Rating
	}
	return nil
}

// ToggleFavorite adds the book to the member's favorites, or removes it.
type ToggleFavorite struct {
	UserID string
	BookID string
}

// Name implements Action.
func (ToggleFavorite) Name() string { return "user.favorite" }

func (a ToggleFavorite) apply(s *domain.AppState) error {
	i := userIndex(s, a.UserID)
	if i < 0 {
		return errors.NotFoundf("user %s not found", a.UserID)
	}
	u := &s.Users[i]
	if u.IsFavorite(a.BookID) {
		u.Favorites = slices.DeleteFunc(u.Favorites, func(id string) bool { return id == a.BookID })
		return nil
	}
	if bookIndex(s, a.BookID) < 0 {
		return errors.NotFoundf("book %s not found", a.BookID)
	}
	u.Favorites = append(nonNil(u.Favorites), a.BookID)
	return nil
}

// SetPersonas stores the characters a member's reading resembles.
type SetPersonas struct {
	UserID   string
	Personas []domain.Persona
}

// Name implements Action.
func (SetPersonas) Name() string { return "user.personas" }

func (a SetPersonas) apply(s *domain.AppState) error {
	i := userIndex(s, a.UserID)
	if i < 0 {
		return errors.NotFoundf("user %s not found", a.UserID)
	}
	s.Users[i].Personas = slices.Clone(a.Personas)
	return nil
}

func prepareUser(u domain.User, today time.Time) (domain.User, error) {
	u = u.Clone()
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	u.DOB = strings.TrimSpace(u.DOB)
	if u.ID == "" {
		return u, errors.Validation("user id is required")
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if u.AvatarSeed == "" {
		u.AvatarSeed = u.Name
	}
	if err := validate.Validate(u); err != nil {
		return u, err
	}

	dob, _ := domain.ParseDate(u.DOB)
	u.DOB = dob.Format(domain.DateLayout)
	y, m, d := today.Date()
	if dob.After(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
		return u, errors.ValidationWithDetails("validation failed", map[string]string{"dob": "cannot be in the future"})
	}
	if u.IsAdmin() {
		if age := domain.CalculateAge(dob, today); age < domain.AdultAge {
			return u, errors.ValidationWithDetails("validation failed", map[string]string{"role": "admins must be at least 18 years old"})
		}
	}
	return u, nil
}

func countAdmins(s *domain.AppState) int {
	n := 0
	for _, u := range s.Users {
		if u.IsAdmin() {
			n++
		}
	}
	return n
}
