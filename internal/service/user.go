package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/id"
	"github.com/homelibrarian/homelibrarian/internal/state"
)

// UserService manages household members, onboarding and reading history.
type UserService struct {
	state  *StateService
	ids    id.Generator
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(st *StateService, ids id.Generator, logger *slog.Logger) *UserService {
	return &UserService{state: st, ids: ids, logger: logger}
}

// Add creates a household member. Age and grade are derived, never stored.
func (s *UserService) Add(ctx context.Context, u domain.User) (domain.Profile, error) {
	if u.ID == "" {
		u.ID = s.ids(id.User)
	}
	next, err := s.state.Dispatch(ctx, state.AddUser{User: u, At: s.state.Now()})
	if err != nil {
		return domain.Profile{}, err
	}
	added, _ := next.FindUser(u.ID)
	s.logger.Info("user added", "id", added.ID, "name", added.Name, "role", added.Role)
	return domain.NewProfile(added, s.state.Now()), nil
}

// Update edits a member's profile.
func (s *UserService) Update(ctx context.Context, u domain.User) (domain.Profile, error) {
	next, err := s.state.Dispatch(ctx, state.UpdateUser{User: u, At: s.state.Now()})
	if err != nil {
		return domain.Profile{}, err
	}
	updated, _ := next.FindUser(u.ID)
	return domain.NewProfile(updated, s.state.Now()), nil
}

// Switch makes the member named by ref (id or name) the active user.
func (s *UserService) Switch(ctx context.Context, ref string) (domain.Profile, error) {
	u, err := s.Resolve(ref)
	if err != nil {
		return domain.Profile{}, err
	}
	if _, err := s.state.Dispatch(ctx, state.SetCurrentUser{ID: u.ID}); err != nil {
		return domain.Profile{}, err
	}
	s.logger.Info("active user switched", "id", u.ID, "name", u.Name)
	return domain.NewProfile(u, s.state.Now()), nil
}

// Resolve finds a member by id or by name, ignoring case.
func (s *UserService) Resolve(ref string) (domain.User, error) {
	ref = strings.TrimSpace(ref)
	st := s.state.State()
	if u, ok := st.FindUser(ref); ok {
		return u, nil
	}
	var matches []domain.User
	for _, u := range st.Users {
		if strings.EqualFold(u.Name, ref) {
			matches = append(matches, u)
		}
	}
	switch len(matches) {
	case 0:
		return domain.User{}, errors.NotFoundf("user %q not found", ref)
	case 1:
		return matches[0], nil
	default:
		return domain.User{}, errors.Validationf("user name %q is ambiguous; use the id", ref)
	}
}

// Current returns the active member. A dangling reference reads as no user.
func (s *UserService) Current() (domain.Profile, bool) {
	st := s.state.State()
	u, ok := st.ActiveUser()
	if !ok {
		return domain.Profile{}, false
	}
	return domain.NewProfile(u, s.state.Now()), true
}

// Get returns one member with age and grade derived as of now.
func (s *UserService) Get(ref string) (domain.Profile, error) {
	u, err := s.Resolve(ref)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.NewProfile(u, s.state.Now()), nil
}

// List returns every member, admins first, then by name.
func (s *UserService) List() []domain.Profile {
	st := s.state.State()
	now := s.state.Now()
	out := make([]domain.Profile, 0, len(st.Users))
	for _, u := range st.Users {
		out = append(out, domain.NewProfile(u, now))
	}
	slices.SortStableFunc(out, func(a, b domain.Profile) int {
		if a.IsAdmin() != b.IsAdmin() {
			if a.IsAdmin() {
				return -1
			}
			return 1
		}
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}

// RecordReading sets a member's status and optional rating for a book.
func (s *UserService) RecordReading(ctx context.Context, userID, bookID string, status domain.ReadStatus, rating int) (domain.ReadEntry, error) {
	next, err := s.state.Dispatch(ctx, state.RecordReading{
		UserID: userID,
		BookID: bookID,
		Status: status,
		Rating: rating,
		At:     s.state.Now(),
	})
	if err != nil {
		return domain.ReadEntry{}, err
	}
	u, _ := next.FindUser(userID)
	entry, _ := u.Entry(bookID)
	return entry, nil
}

// ToggleFavorite adds or removes a favorite and reports whether the book is now
// a favorite.
func (s *UserService) ToggleFavorite(ctx context.Context, userID, bookID string) (bool, error) {
	next, err := s.state.Dispatch(ctx, state.ToggleFavorite{UserID: userID, BookID: bookID})
	if err != nil {
		return false, err
	}
	u, _ := next.FindUser(userID)
	return u.IsFavorite(bookID), nil
}

// SetupInput is the onboarding wizard's result.
type SetupInput struct {
	Family      []domain.User      `json:"family"`
	Rooms       []string           `json:"rooms"`
	StarterPack bool               `json:"starterPack"`
	Demo        bool               `json:"demo"`
	AI          *domain.AISettings `json:"aiSettings,omitempty"`
	DB          *domain.DBSettings `json:"dbSettings,omitempty"`
}

// Setup completes onboarding in one step: the family, their rooms and,
// optionally, the starter books spread over those rooms.
func (s *UserService) Setup(ctx context.Context, in SetupInput) (domain.AppState, error) {
	now := s.state.Now()

	users := make([]domain.User, len(in.Family))
	firstAdmin := ""
	for i, u := range in.Family {
		if u.ID == "" {
			u.ID = s.ids(id.User)
		}
		if u.Role == domain.RoleAdmin && firstAdmin == "" {
			firstAdmin = u.ID
		}
		users[i] = u
	}

	rooms := make([]domain.Location, 0, len(in.Rooms))
	for _, name := range in.Rooms {
		if strings.TrimSpace(name) == "" {
			continue
		}
		rooms = append(rooms, domain.Location{ID: s.ids(id.Location), Name: name, Type: domain.LocationRoom})
	}

	var books []domain.Book
	if in.StarterPack {
		books = domain.StarterPack(func() string { return s.ids(id.Book) }, firstAdmin, rooms, now)
	}

	next, err := s.state.Dispatch(ctx, state.CompleteSetup{
		Users: users,
		Rooms: rooms,
		Books: books,
		AI:    in.AI,
		DB:    in.DB,
		Demo:  in.Demo,
		At:    now,
	})
	if err != nil {
		return domain.AppState{}, err
	}
	s.logger.Info("setup complete",
		"users", len(next.Users),
		"rooms", len(next.Locations),
		"books", len(next.Books),
		"demo", next.IsDemoMode,
	)
	return next, nil
}
